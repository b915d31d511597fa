package service

import (
	"errors"
)

// Kind classifies a failure independently of any transport.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindQuota
	KindPaymentRequired
	KindUnavailable
)

// Error is a tagged failure: a kind, a stable code and a user-facing message.
// Sentinels are compared by code, so wrapped copies still match with errors.Is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	// Authentication
	ErrMissingToken        = newError(KindUnauthenticated, "missing_token", "Access token required")
	ErrInvalidToken        = newError(KindForbidden, "invalid_token", "Invalid token")
	ErrInvalidCredentials  = newError(KindUnauthenticated, "invalid_credentials", "Invalid credentials")
	ErrCredentialsRequired = newError(KindValidation, "credentials_required", "Email and password required")
	ErrEmailAlreadyExists  = newError(KindConflict, "user_exists", "User already exists")
	ErrInvalidEmail        = newError(KindValidation, "invalid_email", "Invalid email address")
	ErrOAuthUnavailable    = newError(KindUnavailable, "oauth_unavailable", "Google sign-in is not configured")

	// Tasks
	ErrTaskNotFound    = newError(KindNotFound, "task_not_found", "Task not found")
	ErrTitleRequired   = newError(KindValidation, "title_required", "Title is required")
	ErrTitleTooLong    = newError(KindValidation, "title_too_long", "Title is too long (max 200 characters)")
	ErrInvalidStatus   = newError(KindValidation, "invalid_status", "Status must be Incomplete or Complete")
	ErrInvalidFilter   = newError(KindValidation, "invalid_filter", "Filter must be all, incomplete, complete or overdue")
	ErrInvalidPriority = newError(KindValidation, "invalid_priority", "Priority must be High, Medium or Low")

	// Suggestions
	ErrAlreadySuggested       = newError(KindConflict, "already_suggested", "Task already has an AI suggestion")
	ErrQuotaExceeded          = newError(KindQuota, "quota_exceeded", "Free AI suggestion limit reached. Upgrade to premium for unlimited suggestions")
	ErrGeneratorNotConfigured = newError(KindUnavailable, "ai_not_configured", "AI suggestions are not configured on this server")
	ErrGenerationUnavailable  = newError(KindUnavailable, "ai_unavailable", "AI suggestion service is unavailable, please try again")
	ErrPersistenceFailure     = newError(KindInternal, "persistence_failure", "Failed to save AI suggestion")

	// Premium
	ErrPaymentNotVerified      = newError(KindPaymentRequired, "payment_not_verified", "No verified payment found for this account")
	ErrPaymentsDisabled        = newError(KindUnavailable, "payments_disabled", "Card payments are not configured")
	ErrInvalidTransaction      = newError(KindValidation, "invalid_transaction", "Invalid transaction reference")
	ErrPremiumRequestNotFound  = newError(KindNotFound, "premium_request_not_found", "Premium request not found")
	ErrPremiumRequestFinalized = newError(KindConflict, "premium_request_finalized", "Premium request was already processed")
	ErrPremiumRequired         = newError(KindQuota, "premium_required", "This feature requires a premium account")
	ErrInvalidWebhook          = newError(KindValidation, "invalid_webhook", "Invalid webhook payload or signature")
	ErrExportDisabled          = newError(KindUnavailable, "export_disabled", "Task export storage is not configured")
)

// ValidationError wraps a free-form validation message.
func ValidationError(message string) *Error {
	return newError(KindValidation, "invalid_input", message)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError returns the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
