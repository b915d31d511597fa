// Package ai generates productivity suggestions for tasks.
package ai

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("ai: no API key configured")
	ErrUnavailable   = errors.New("ai: generation unavailable")
)

// Generator turns a prompt into a short suggestion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
