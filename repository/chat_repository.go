package repository

import (
	"context"
	"errors"
	"insightai_backend/models"

	"gorm.io/gorm"
)

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(ctx context.Context, node *models.ChatNode) error {
	return r.db.WithContext(ctx).Create(node).Error
}

func (r *chatRepository) GetByRecordID(ctx context.Context, recordID string) ([]*models.ChatNode, error) {
	var res []*models.ChatNode
	err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at ASC").
		Find(&res).Error
	return res, err
}

func (r *chatRepository) GetLastNode(ctx context.Context, recordID string) (*models.ChatNode, error) {
	var node models.ChatNode
	err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at DESC").
		First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}
