package ai

import "errors"

var (
	// ErrEmptyPlan is returned when no lesson plan text is given.
	ErrEmptyPlan = errors.New("ai: lesson plan is empty")
	// ErrMissingAPIKey is returned when a hosted provider has no key.
	ErrMissingAPIKey = errors.New("ai: api key is required")
	// ErrUnknownProvider is returned by Open for unsupported providers.
	ErrUnknownProvider = errors.New("ai: unknown provider")
	// ErrNoContent is returned when the provider answers without text.
	ErrNoContent = errors.New("ai: provider returned no content")
)
