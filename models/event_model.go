package models

import "time"

type TranscriptionEventType string

const (
	EventTranscriptionProcessing TranscriptionEventType = "transcription_processing"
	EventTranscriptionPartial    TranscriptionEventType = "transcription_partial"
	EventTranscriptionCompleted  TranscriptionEventType = "transcription_completed"
	EventTranscriptionFailed     TranscriptionEventType = "transcription_failed"
	EventSummaryCompleted        TranscriptionEventType = "summary_completed"
	EventSummaryFailed           TranscriptionEventType = "summary_failed"
	EventAnalysisCompleted       TranscriptionEventType = "analysis_completed"
	EventAnalysisFailed          TranscriptionEventType = "analysis_failed"
)

type ProgressInfo struct {
	ProcessedBytes int64 `json:"processed_bytes"`
	TotalBytes     int64 `json:"total_bytes"`
	Percentage     int   `json:"percentage"`
}

// TranscriptionEvent is published on redis pub/sub by pipeline steps and
// streamed to clients over the websocket endpoint.
type TranscriptionEvent struct {
	Type      TranscriptionEventType `json:"type"`
	RecordID  string                 `json:"record_id"`
	UserID    string                 `json:"user_id"`
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Progress  *ProgressInfo          `json:"progress,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
