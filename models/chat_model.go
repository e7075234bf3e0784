package models

import "time"

// ChatNode persists one question/answer exchange against a record. The chat
// contract is stateless (the caller resends full history) but the log is
// kept so the UI can replay a conversation.
type ChatNode struct {
	ID        string    `gorm:"column:id;type:varchar(255);primaryKey" json:"id"`
	RecordID  string    `gorm:"column:record_id;type:varchar(255);not null;index:idx_chat_record" json:"record_id"`
	ParentID  string    `gorm:"column:parent_id;type:varchar(255)" json:"parent_id"`
	Question  string    `gorm:"column:question;type:text;not null" json:"question"`
	Answer    string    `gorm:"column:answer;type:text;not null" json:"answer"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp" json:"created_at"`
}

func (ChatNode) TableName() string {
	return "chat_nodes"
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatReq struct {
	Messages []ChatMessage `json:"messages"`
}

type ChatResp struct {
	Reply  string `json:"reply"`
	NodeID string `json:"node_id"`
}

// ChatContext is the assembled context block embedded verbatim into the
// system message. Cached per record until summary/analysis change.
type ChatContext struct {
	RecordID   string `json:"record_id"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
	Analysis   string `json:"analysis"`
}
