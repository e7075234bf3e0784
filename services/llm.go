package services

import (
	"context"
	"fmt"
	"insightai_backend/config"
	"insightai_backend/pkg/logging"
	"insightai_backend/utils"

	"github.com/sashabaranov/go-openai"
)

const llmMaxTokens = 2000

// LLMService dispatches completions to the configured provider. OpenAI
// goes through the official-style client, Gemini over raw HTTP.
type LLMService struct {
	provider     string
	model        string
	geminiAPIKey string
	openaiClient *openai.Client
}

func NewLLMService(cfg *config.Config) *LLMService {
	key := cfg.OpenAIAPIKey
	if cfg.LLMProvider == "Gemini" {
		key = cfg.GeminiAPIKey
	}
	logging.Logger.Info("LLM client configured",
		"provider", cfg.LLMProvider,
		"model", cfg.LLMModel,
		"apiKey", utils.MaskAPIKey(key),
	)
	return &LLMService{
		provider:     cfg.LLMProvider,
		model:        cfg.LLMModel,
		geminiAPIKey: cfg.GeminiAPIKey,
		openaiClient: openai.NewClient(cfg.OpenAIAPIKey),
	}
}

func (s *LLMService) Complete(ctx context.Context, prompt string) (string, error) {
	switch s.provider {
	case "OpenAI":
		return s.completeOpenAI(ctx, prompt)
	case "Gemini":
		return utils.CallGemini(ctx, prompt, s.model, s.geminiAPIKey)
	default:
		logging.Logger.Error("invalid LLM provider", "provider", s.provider)
		return "", fmt.Errorf("invalid provider: %q", s.provider)
	}
}

func (s *LLMService) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	resp, err := s.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a helpful assistant."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   llmMaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
