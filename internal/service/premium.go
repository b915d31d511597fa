package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/taskpilot/internal/model"
	"github.com/templui/taskpilot/internal/repository"
	"github.com/templui/taskpilot/internal/service/payment"
	"github.com/templui/taskpilot/internal/validation"
)

type PremiumService struct {
	userRepository           repository.UserRepository
	premiumRequestRepository repository.PremiumRequestRepository
	emailService             *EmailService
	provider                 payment.Provider
	requireVerifiedPayment   bool
}

// NewPremiumService wires the upgrade flow. provider may be nil when card
// payments are disabled.
func NewPremiumService(
	userRepository repository.UserRepository,
	premiumRequestRepository repository.PremiumRequestRepository,
	emailService *EmailService,
	provider payment.Provider,
	requireVerifiedPayment bool,
) *PremiumService {
	return &PremiumService{
		userRepository:           userRepository,
		premiumRequestRepository: premiumRequestRepository,
		emailService:             emailService,
		provider:                 provider,
		requireVerifiedPayment:   requireVerifiedPayment,
	}
}

// Request records a payment claim. A transaction reference marks it as a
// crypto payment, otherwise it is a card payment.
func (s *PremiumService) Request(userID, transactionRef string) (*model.PremiumRequest, error) {
	transactionRef = strings.TrimSpace(transactionRef)

	method := model.PremiumMethodCard
	var ref *string
	if transactionRef != "" {
		err := validation.ValidateTransactionRef(transactionRef)
		if err != nil {
			return nil, ErrInvalidTransaction
		}
		method = model.PremiumMethodCrypto
		ref = &transactionRef
	}

	return s.createRequest(userID, method, ref)
}

func (s *PremiumService) Requests(userID string) ([]*model.PremiumRequest, error) {
	reqs, err := s.premiumRequestRepository.ByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list premium requests: %w", err)
	}
	return reqs, nil
}

// Activate turns on premium for the user. When verified payments are required
// the user must own a Verified request.
func (s *PremiumService) Activate(userID string) (*model.User, error) {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsPremium {
		return user.Public(), nil
	}

	if s.requireVerifiedPayment {
		verified, err := s.premiumRequestRepository.HasVerified(userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check payments: %w", err)
		}
		if !verified {
			return nil, ErrPaymentNotVerified
		}
	}

	return s.grantPremium(userID)
}

// Checkout starts a hosted card payment and returns the pending request with
// the URL to send the user to.
func (s *PremiumService) Checkout(ctx context.Context, user *model.User) (*model.PremiumRequest, string, error) {
	if s.provider == nil {
		return nil, "", ErrPaymentsDisabled
	}

	req, err := s.createRequest(user.ID, model.PremiumMethodCard, nil)
	if err != nil {
		return nil, "", err
	}

	checkout, err := s.provider.CreateCheckout(ctx, payment.CheckoutRequest{
		UserID:        user.ID,
		RequestID:     req.ID,
		CustomerEmail: user.Email,
		CustomerName:  user.Name,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create checkout: %w", err)
	}

	err = s.premiumRequestRepository.SetProviderRef(req.ID, checkout.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store checkout reference: %w", err)
	}
	req.ProviderRef = &checkout.ID

	return req, checkout.URL, nil
}

// HandleWebhook verifies a provider callback and, for a completed payment,
// verifies the matching request and grants premium.
func (s *PremiumService) HandleWebhook(payload []byte, headers http.Header) error {
	if s.provider == nil {
		return ErrPaymentsDisabled
	}

	event, err := s.provider.ParseWebhook(payload, headers)
	if err != nil {
		slog.Warn("payment webhook rejected", "error", err, "provider", s.provider.Name())
		return ErrInvalidWebhook
	}
	if event == nil {
		return nil
	}

	var req *model.PremiumRequest
	if event.RequestID != "" {
		req, err = s.premiumRequestRepository.ByID(event.RequestID)
	} else {
		req, err = s.premiumRequestRepository.ByProviderRef(event.ProviderRef)
	}
	if errors.Is(err, repository.ErrPremiumRequestNotFound) {
		// Acknowledge so the provider stops retrying
		slog.Warn("payment webhook for unknown premium request", "premium_request_id", event.RequestID, "provider_ref", event.ProviderRef)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get premium request: %w", err)
	}

	if event.UserID != "" && event.UserID != req.UserID {
		slog.Warn("payment webhook user mismatch, skipping", "premium_request_id", req.ID, "event_user_id", event.UserID)
		return nil
	}

	// The provider has taken the money: a paid event settles the request even
	// when an operator rejected it first
	if req.Status == model.PremiumStatusRejected {
		slog.Warn("paid webhook for rejected premium request, verifying", "premium_request_id", req.ID, "user_id", req.UserID)
	}

	_, err = s.settle(req)
	return err
}

// Verify confirms a pending request out of band and grants premium.
func (s *PremiumService) Verify(requestID string) (*model.PremiumRequest, error) {
	req, err := s.requestByID(requestID)
	if err != nil {
		return nil, err
	}
	return s.verify(req)
}

func (s *PremiumService) Reject(requestID string) (*model.PremiumRequest, error) {
	req, err := s.requestByID(requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsPending() {
		return nil, ErrPremiumRequestFinalized
	}

	err = s.premiumRequestRepository.UpdateStatus(req.ID, model.PremiumStatusRejected)
	if err != nil {
		return nil, fmt.Errorf("failed to reject premium request: %w", err)
	}
	req.Status = model.PremiumStatusRejected

	slog.Info("premium request rejected", "premium_request_id", req.ID, "user_id", req.UserID)
	return req, nil
}

func (s *PremiumService) Pending() ([]*model.PremiumRequest, error) {
	reqs, err := s.premiumRequestRepository.Pending()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending premium requests: %w", err)
	}
	return reqs, nil
}

func (s *PremiumService) verify(req *model.PremiumRequest) (*model.PremiumRequest, error) {
	if !req.IsPending() {
		return nil, ErrPremiumRequestFinalized
	}
	return s.settle(req)
}

// settle marks req Verified whatever its status and grants premium.
// Already-verified requests only re-grant, so redelivered webhooks are no-ops.
func (s *PremiumService) settle(req *model.PremiumRequest) (*model.PremiumRequest, error) {
	if !req.IsVerified() {
		err := s.premiumRequestRepository.UpdateStatus(req.ID, model.PremiumStatusVerified)
		if err != nil {
			return nil, fmt.Errorf("failed to verify premium request: %w", err)
		}
		req.Status = model.PremiumStatusVerified
	}

	_, err := s.grantPremium(req.UserID)
	if err != nil {
		return nil, err
	}

	slog.Info("premium request verified", "premium_request_id", req.ID, "user_id", req.UserID, "method", req.Method)
	return req, nil
}

func (s *PremiumService) requestByID(requestID string) (*model.PremiumRequest, error) {
	req, err := s.premiumRequestRepository.ByID(requestID)
	if errors.Is(err, repository.ErrPremiumRequestNotFound) {
		return nil, ErrPremiumRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get premium request: %w", err)
	}
	return req, nil
}

func (s *PremiumService) createRequest(userID, method string, transactionRef *string) (*model.PremiumRequest, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	req := &model.PremiumRequest{
		ID:             uuid.New().String(),
		UserID:         userID,
		Method:         method,
		TransactionRef: transactionRef,
		Status:         model.PremiumStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.premiumRequestRepository.Create(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create premium request: %w", err)
	}

	slog.Info("premium request created", "premium_request_id", req.ID, "user_id", userID, "method", method)
	return req, nil
}

// grantPremium flips the flag (never back) and sends the confirmation email once.
func (s *PremiumService) grantPremium(userID string) (*model.User, error) {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsPremium {
		return user.Public(), nil
	}

	err = s.userRepository.SetPremium(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to activate premium: %w", err)
	}
	user.IsPremium = true

	err = s.emailService.SendPremiumActivatedEmail(user.Email, user.Name)
	if err != nil {
		slog.Warn("failed to send premium email", "error", err, "user_id", userID)
	}

	slog.Info("premium activated", "user_id", userID)
	return user.Public(), nil
}
