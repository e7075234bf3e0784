package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Pipeline step statuses. The transcription, summary and analysis steps each
// move through these independently on the same row.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusPartial    = "partial"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// TranscriptionRecord is the row tracking one interview through the whole
// pipeline: assembled media -> transcript -> summary -> analysis.
type TranscriptionRecord struct {
	ID       string `gorm:"column:id;type:varchar(255);primaryKey" json:"id"`
	OwnerID  string `gorm:"column:owner_id;type:varchar(255);not null;index:idx_record_owner" json:"owner_id"`
	FileName string `gorm:"column:file_name;type:varchar(512);not null" json:"file_name"`
	MimeType string `gorm:"column:mime_type;type:varchar(128)" json:"mime_type"`
	MediaKey string `gorm:"column:media_key;type:varchar(255);not null;index:idx_record_media_key" json:"media_key"`
	FileSize int64  `gorm:"column:file_size;type:bigint" json:"file_size"`

	Status             string `gorm:"column:status;type:varchar(20);default:'pending';index:idx_record_status" json:"status"`
	TranscriptionText  string `gorm:"column:transcription_text;type:text" json:"transcription_text"`
	TranscriptionError string `gorm:"column:transcription_error;type:text" json:"transcription_error,omitempty"`
	// ProcessedBytes is the durable checkpoint for sliced transcription of
	// oversized media. A worker restart resumes from here.
	ProcessedBytes int64 `gorm:"column:processed_bytes;type:bigint;default:0" json:"processed_bytes"`

	SummaryStatus string `gorm:"column:summary_status;type:varchar(20);default:'pending'" json:"summary_status"`
	SummaryText   string `gorm:"column:summary_text;type:text" json:"summary_text"`
	SummaryError  string `gorm:"column:summary_error;type:text" json:"summary_error,omitempty"`

	AnalysisStatus string          `gorm:"column:analysis_status;type:varchar(20);default:'pending'" json:"analysis_status"`
	AnalysisData   json.RawMessage `gorm:"column:analysis_data;type:jsonb" json:"analysis_data,omitempty"`
	AnalysisError  string          `gorm:"column:analysis_error;type:text" json:"analysis_error,omitempty"`

	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamp" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;type:timestamp" json:"updated_at"`
	CompletedAt *time.Time `gorm:"column:completed_at;type:timestamp" json:"completed_at,omitempty"`
}

func (TranscriptionRecord) TableName() string {
	return "transcription_records"
}

func (r *TranscriptionRecord) BeforeCreate(tx *gorm.DB) error {
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.SummaryStatus == "" {
		r.SummaryStatus = StatusPending
	}
	if r.AnalysisStatus == "" {
		r.AnalysisStatus = StatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return nil
}

func (r *TranscriptionRecord) IsCompleted() bool {
	return r.Status == StatusCompleted
}

// Analysis is trusted only once AnalysisStatus is completed.
func (r *TranscriptionRecord) AnalysisReady() bool {
	return r.AnalysisStatus == StatusCompleted && len(r.AnalysisData) > 0
}

// AnalysisResult is the schema requested from the LLM by the analyzer.
// Missing fields are back-filled so the shape stays structurally valid.
type AnalysisResult struct {
	Sentiment            string   `json:"sentiment"`
	SentimentExplanation string   `json:"sentiment_explanation"`
	PainPoints           []string `json:"pain_points"`
	FeatureRequests      []string `json:"feature_requests"`
	Topics               []string `json:"topics"`
}

// SummaryResult is the schema requested from the LLM by the summarizer.
type SummaryResult struct {
	Text      string   `json:"text"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// TranscriptionTask is one unit of sliced-transcription continuation work
// carried on the redis queue.
type TranscriptionTask struct {
	RecordID  string    `json:"record_id"`
	MediaKey  string    `json:"media_key"`
	Offset    int64     `json:"offset"`
	FileSize  int64     `json:"file_size"`
	Attempt   int       `json:"attempt"`
	CreatedAt time.Time `json:"created_at"`
}
