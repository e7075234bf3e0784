package bootstrap

import (
	"insightai_backend/config"
	"insightai_backend/services"
)

type Services struct {
	UploadService        *services.UploadService
	TranscriptionService *services.TranscriptionService
	SummaryService       *services.SummaryService
	AnalysisService      *services.AnalysisService
	ChatService          *services.ChatService
	LLMService           *services.LLMService
	SpeechService        *services.SpeechService
	Worker               *services.TranscriptionWorker
}

func NewServices(cfg *config.Config, repos *Repositories, infra *Infrastructure) *Services {
	res := &Services{}

	llmService := services.NewLLMService(cfg)
	res.LLMService = llmService

	speechService := services.NewSpeechService(cfg)
	res.SpeechService = speechService

	uploadService := services.NewUploadService(repos.SessionRepository, repos.TranscriptionRepository, infra.Storage, cfg)
	res.UploadService = uploadService

	transcriptionService := services.NewTranscriptionService(
		repos.TranscriptionRepository, infra.Storage, speechService, infra.Queue, infra.EventPublisher, cfg)
	res.TranscriptionService = transcriptionService

	summaryService := services.NewSummaryService(repos.TranscriptionRepository, llmService, infra.EventPublisher, infra.Cache, cfg)
	res.SummaryService = summaryService

	analysisService := services.NewAnalysisService(repos.TranscriptionRepository, llmService, infra.EventPublisher, infra.Cache, cfg)
	res.AnalysisService = analysisService

	chatService := services.NewChatService(repos.TranscriptionRepository, repos.ChatRepository, llmService, infra.Cache)
	res.ChatService = chatService

	res.Worker = services.NewTranscriptionWorker(infra.Queue, transcriptionService, uploadService)
	return res
}
