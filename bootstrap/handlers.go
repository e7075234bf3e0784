package bootstrap

import "insightai_backend/handlers"

type Handlers struct {
	UploadHandler        *handlers.UploadHandler
	TranscriptionHandler *handlers.TranscriptionHandler
	InsightHandler       *handlers.InsightHandler
	ChatHandler          *handlers.ChatHandler
	WSHandler            *handlers.WSHandler
}

func NewHandlers(services *Services, infra *Infrastructure) *Handlers {
	res := &Handlers{}
	res.UploadHandler = handlers.NewUploadHandler(services.UploadService)
	res.TranscriptionHandler = handlers.NewTranscriptionHandler(services.TranscriptionService)
	res.InsightHandler = handlers.NewInsightHandler(services.SummaryService, services.AnalysisService)
	res.ChatHandler = handlers.NewChatHandler(services.ChatService)
	res.WSHandler = handlers.NewWSHandler(infra.EventPublisher)
	return res
}
