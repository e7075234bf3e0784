package models

import (
	"time"

	"github.com/lib/pq"
)

// UploadSession tracks one chunked upload. A row is created by the first
// chunk that arrives for a session id and mutated by every later chunk.
type UploadSession struct {
	SessionID       string        `gorm:"column:session_id;type:varchar(255);primaryKey" json:"session_id"`
	OwnerID         string        `gorm:"column:owner_id;type:varchar(255);not null;index:idx_session_owner" json:"owner_id"`
	FileName        string        `gorm:"column:file_name;type:varchar(512)" json:"file_name"`
	MimeType        string        `gorm:"column:mime_type;type:varchar(128)" json:"mime_type"`
	FileSize        int64         `gorm:"column:file_size;type:bigint" json:"file_size"`
	TotalChunks     int           `gorm:"column:total_chunks;type:int;not null" json:"total_chunks"`
	ReceivedIndices pq.Int64Array `gorm:"column:received_indices;type:bigint[]" json:"received_indices"`
	ChunksReceived  int           `gorm:"column:chunks_received;type:int;default:0" json:"chunks_received"`
	Status          string        `gorm:"column:status;type:varchar(20);default:'uploading';index:idx_session_status" json:"status"`
	CreatedAt       time.Time     `gorm:"column:created_at;type:timestamp" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"column:updated_at;type:timestamp" json:"updated_at"`
	ExpiresAt       time.Time     `gorm:"column:expires_at;type:timestamp;index:idx_session_expires" json:"expires_at"`
}

func (UploadSession) TableName() string {
	return "upload_sessions"
}

const (
	SessionUploading  = "uploading"
	SessionFinalizing = "finalizing"
	SessionCompleted  = "completed"
	SessionExpired    = "expired"
)

// HasChunk reports whether the given index was already received.
func (s *UploadSession) HasChunk(index int) bool {
	for _, i := range s.ReceivedIndices {
		if int(i) == index {
			return true
		}
	}
	return false
}

type UploadChunkResp struct {
	SessionID      string `json:"session_id"`
	ChunkIndex     int    `json:"chunk_index"`
	ChunksReceived int    `json:"chunks_received"`
	TotalChunks    int    `json:"total_chunks"`
}

type FinalizeUploadReq struct {
	TotalChunks int `json:"total_chunks"`
}

type FinalizeUploadResp struct {
	RecordID string `json:"record_id"`
	MediaKey string `json:"media_key"`
	FileSize int64  `json:"file_size"`
	Status   string `json:"status"`
}
