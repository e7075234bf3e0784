package repository

import (
	"context"
	"insightai_backend/models"
	"time"

	"gorm.io/gorm"
)

type sessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{DB: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.UploadSession) error {
	return r.DB.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, sessionID string) (*models.UploadSession, error) {
	var session models.UploadSession
	err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	return &session, err
}

// RecordChunk appends the index to received_indices exactly once. A
// duplicate index is a no-op, which keeps re-uploads idempotent.
func (r *sessionRepository) RecordChunk(ctx context.Context, sessionID string, index int) error {
	return r.DB.WithContext(ctx).
		Model(&models.UploadSession{}).
		Where("session_id = ? AND NOT (? = ANY(received_indices))", sessionID, index).
		Updates(map[string]interface{}{
			"received_indices": gorm.Expr("array_append(received_indices, ?)", index),
			"chunks_received":  gorm.Expr("chunks_received + 1"),
			"updated_at":       time.Now(),
		}).Error
}

func (r *sessionRepository) UpdateFileInfo(ctx context.Context, sessionID, fileName, mimeType string) error {
	return r.DB.WithContext(ctx).
		Model(&models.UploadSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"file_name":  fileName,
			"mime_type":  mimeType,
			"updated_at": time.Now(),
		}).Error
}

func (r *sessionRepository) ClaimStatus(ctx context.Context, sessionID, from, to string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.UploadSession{}).
		Where("session_id = ? AND status = ?", sessionID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

// ListExpired returns sessions past their deadline that never completed.
// Finalizing counts too: a crash mid-finalize must not strand the chunks.
func (r *sessionRepository) ListExpired(ctx context.Context, before time.Time) ([]*models.UploadSession, error) {
	var sessions []*models.UploadSession
	err := r.DB.WithContext(ctx).
		Where("status IN ? AND expires_at < ?", []string{models.SessionUploading, models.SessionFinalizing}, before).
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.UploadSession{}).Error
}
