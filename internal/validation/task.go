package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

// ValidateTitle checks a trimmed task title
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)

	if trimmed == "" {
		return errors.New("title is required")
	}

	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return errors.New("title is too long (max 200 characters)")
	}

	return nil
}

func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return errors.New("description is too long (max 5000 characters)")
	}
	return nil
}

// Blockchain transaction ids: base58 signatures (Solana) or 0x-prefixed hex hashes.
var transactionRefPattern = regexp.MustCompile(`^(0x[0-9a-fA-F]{64}|[1-9A-HJ-NP-Za-km-z]{32,128})$`)

// ValidateTransactionRef validates an on-chain transaction reference
func ValidateTransactionRef(ref string) error {
	if !transactionRefPattern.MatchString(ref) {
		return errors.New("invalid transaction reference")
	}
	return nil
}
