package repository

import (
	"context"
	"encoding/json"
	"insightai_backend/models"
	"time"

	"gorm.io/gorm"
)

type transcriptionRepository struct {
	DB *gorm.DB
}

func NewTranscriptionRepository(db *gorm.DB) TranscriptionRepository {
	return &transcriptionRepository{DB: db}
}

func (r *transcriptionRepository) Create(ctx context.Context, record *models.TranscriptionRecord) error {
	return r.DB.WithContext(ctx).Create(record).Error
}

func (r *transcriptionRepository) GetByID(ctx context.Context, id string) (*models.TranscriptionRecord, error) {
	var record models.TranscriptionRecord
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&record).Error
	return &record, err
}

func (r *transcriptionRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.TranscriptionRecord, error) {
	var records []*models.TranscriptionRecord
	err := r.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// ClaimStatus does the conditional UPDATE that serializes racing triggers
// of the same step. field must be one of the three status columns.
func (r *transcriptionRepository) ClaimStatus(ctx context.Context, id, field, from, to string) (bool, error) {
	switch field {
	case "status", "summary_status", "analysis_status":
	default:
		return false, gorm.ErrInvalidField
	}
	res := r.DB.WithContext(ctx).
		Model(&models.TranscriptionRecord{}).
		Where("id = ? AND "+field+" = ?", id, from).
		Updates(map[string]interface{}{
			field:        to,
			"updated_at": time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *transcriptionRepository) UpdateTranscription(ctx context.Context, id, status, text string, processedBytes int64) error {
	updates := map[string]interface{}{
		"status":              status,
		"transcription_text":  text,
		"processed_bytes":     processedBytes,
		"transcription_error": "",
		"updated_at":          time.Now(),
	}
	if status == models.StatusCompleted {
		updates["completed_at"] = time.Now()
	}
	return r.DB.WithContext(ctx).
		Model(&models.TranscriptionRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// AppendTranscription adds a slice of text and advances the checkpoint in
// one statement so a crash never loses acknowledged progress.
func (r *transcriptionRepository) AppendTranscription(ctx context.Context, id, status, textDelta string, processedBytes int64) error {
	updates := map[string]interface{}{
		"status":             status,
		"transcription_text": gorm.Expr("transcription_text || ?", textDelta),
		"processed_bytes":    processedBytes,
		"updated_at":         time.Now(),
	}
	if status == models.StatusCompleted {
		updates["completed_at"] = time.Now()
	}
	return r.DB.WithContext(ctx).
		Model(&models.TranscriptionRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *transcriptionRepository) SetTranscriptionError(ctx context.Context, id, message string) error {
	return r.DB.WithContext(ctx).
		Model(&models.TranscriptionRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":              models.StatusError,
			"transcription_error": message,
			"updated_at":          time.Now(),
		}).Error
}

func (r *transcriptionRepository) UpdateSummary(ctx context.Context, id, status, text, errMsg string) error {
	return r.DB.WithContext(ctx).
		Model(&models.TranscriptionRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"summary_status": status,
			"summary_text":   text,
			"summary_error":  errMsg,
			"updated_at":     time.Now(),
		}).Error
}

func (r *transcriptionRepository) UpdateAnalysis(ctx context.Context, id, status string, data json.RawMessage, errMsg string) error {
	updates := map[string]interface{}{
		"analysis_status": status,
		"analysis_error":  errMsg,
		"updated_at":      time.Now(),
	}
	if data != nil {
		updates["analysis_data"] = string(data)
	}
	return r.DB.WithContext(ctx).
		Model(&models.TranscriptionRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}
