package services

import (
	"bytes"
	"context"
	"fmt"
	"insightai_backend/config"

	"github.com/sashabaranov/go-openai"
)

// SpeechService wraps the Whisper speech-to-text API.
type SpeechService struct {
	client *openai.Client
	model  string
}

func NewSpeechService(cfg *config.Config) *SpeechService {
	return &SpeechService{
		client: openai.NewClient(cfg.OpenAIAPIKey),
		model:  cfg.WhisperModel,
	}
}

func (s *SpeechService) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.model,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	return resp.Text, nil
}
