// Package ai produces lesson plan advice from a class summary.
//
// The class summary is embedded verbatim in every prompt so the same class
// always yields the same prompt.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/perfil/pkg/metrics"
)

// Supported providers.
const (
	ProviderOffline = "offline"
	ProviderGenAI   = "genai"
)

// Operations, used as metric labels.
const (
	OpSuggest = "suggest"
	OpRewrite = "rewrite"
)

// TextService generates teacher-facing text for a class.
type TextService interface {
	// Suggest returns advice for adapting plan to the class.
	Suggest(ctx context.Context, classSummary, plan string) (string, error)
	// Rewrite returns plan rewritten for the class.
	Rewrite(ctx context.Context, classSummary, plan string) (string, error)
	// Provider names the backing provider.
	Provider() string
}

// Open returns the text service for provider. An empty provider selects the
// offline service.
func Open(ctx context.Context, provider, apiKey, model string) (TextService, error) {
	switch provider {
	case "", ProviderOffline:
		return NewOffline(), nil
	case ProviderGenAI:
		return NewGenAI(ctx, apiKey, model)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// AdvicePrompt builds the suggestion prompt.
func AdvicePrompt(classSummary, plan string) string {
	var b strings.Builder
	b.WriteString("You are an experienced teacher coach. ")
	b.WriteString("Suggest concrete adaptations of the lesson plan below for this class.\n\n")
	b.WriteString("Class profile:\n")
	b.WriteString(classSummary)
	b.WriteString("\n\nLesson plan:\n")
	b.WriteString(strings.TrimSpace(plan))
	b.WriteString("\n\nAnswer with at most five short bullet points.")
	return b.String()
}

// RewritePrompt builds the rewrite prompt.
func RewritePrompt(classSummary, plan string) string {
	var b strings.Builder
	b.WriteString("You are an experienced teacher coach. ")
	b.WriteString("Rewrite the lesson plan below so it fits this class. Keep its structure and goals.\n\n")
	b.WriteString("Class profile:\n")
	b.WriteString(classSummary)
	b.WriteString("\n\nLesson plan:\n")
	b.WriteString(strings.TrimSpace(plan))
	return b.String()
}

// instrument wraps a generation call with request, error and latency metrics.
func instrument(op, provider string, call func() (string, error)) (string, error) {
	start := time.Now()
	metrics.RecordAIRequest(op, provider)
	out, err := call()
	metrics.RecordAILatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordAIError(op)
		metrics.RecordErrorByComponent("ai", op)
		return "", err
	}
	return out, nil
}

func checkPlan(plan string) error {
	if strings.TrimSpace(plan) == "" {
		return ErrEmptyPlan
	}
	return nil
}
