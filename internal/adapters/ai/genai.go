package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// GenAIOption configures a GenAIService.
type GenAIOption func(*genai.ClientConfig)

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(url string) GenAIOption {
	return func(c *genai.ClientConfig) {
		c.HTTPOptions.BaseURL = url
	}
}

// GenAIService generates text with the Gemini API.
type GenAIService struct {
	client *genai.Client
	model  string
}

// NewGenAI creates a Gemini-backed service.
func NewGenAI(ctx context.Context, apiKey, model string, opts ...GenAIOption) (*GenAIService, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = defaultModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIService{client: client, model: model}, nil
}

// Provider implements TextService.
func (s *GenAIService) Provider() string { return ProviderGenAI }

// Suggest implements TextService.
func (s *GenAIService) Suggest(ctx context.Context, classSummary, plan string) (string, error) {
	if err := checkPlan(plan); err != nil {
		return "", err
	}
	return instrument(OpSuggest, ProviderGenAI, func() (string, error) {
		return s.generate(ctx, AdvicePrompt(classSummary, plan))
	})
}

// Rewrite implements TextService.
func (s *GenAIService) Rewrite(ctx context.Context, classSummary, plan string) (string, error) {
	if err := checkPlan(plan); err != nil {
		return "", err
	}
	return instrument(OpRewrite, ProviderGenAI, func() (string, error) {
		return s.generate(ctx, RewritePrompt(classSummary, plan))
	})
}

func (s *GenAIService) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}
