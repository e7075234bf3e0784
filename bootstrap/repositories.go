package bootstrap

import (
	"insightai_backend/platform/database"
	"insightai_backend/repository"
)

type Repositories struct {
	SessionRepository       repository.SessionRepository
	TranscriptionRepository repository.TranscriptionRepository
	ChatRepository          repository.ChatRepository
}

func NewRepositories(db *database.DB) *Repositories {
	sqlDB := db.GetDatabase()
	return &Repositories{
		SessionRepository:       repository.NewSessionRepository(sqlDB),
		TranscriptionRepository: repository.NewTranscriptionRepository(sqlDB),
		ChatRepository:          repository.NewChatRepository(sqlDB),
	}
}
