package services

import (
	"context"
	"errors"
	"fmt"
	"insightai_backend/models"
	"insightai_backend/pkg/logging"
	"insightai_backend/platform/cache"
	"insightai_backend/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatService answers questions about one interview. The caller resends
// the full conversation each turn; the assembled context block (transcript,
// summary, analysis) is cached per record and each exchange is logged as a
// ChatNode.
type ChatService struct {
	recordRepo   repository.TranscriptionRepository
	chatRepo     repository.ChatRepository
	llm          LLMClient
	contextCache *cache.TypedCache[models.ChatContext]
}

func NewChatService(
	recordRepo repository.TranscriptionRepository,
	chatRepo repository.ChatRepository,
	llm LLMClient,
	cacheService cache.CacheService) *ChatService {
	return &ChatService{
		recordRepo:   recordRepo,
		chatRepo:     chatRepo,
		llm:          llm,
		contextCache: cache.NewTypedCache[models.ChatContext](cacheService),
	}
}

func chatContextCacheKey(recordID string) string {
	return "chat_context:" + recordID
}

func (s *ChatService) Ask(ctx context.Context, ownerID, recordID string, req models.ChatReq) (*models.ChatResp, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: messages required", ErrValidation)
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" || strings.TrimSpace(last.Content) == "" {
		return nil, fmt.Errorf("%w: last message must be a non-empty user message", ErrValidation)
	}

	record, err := s.recordRepo.GetByID(ctx, recordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: record %s", ErrNotFound, recordID)
	} else if err != nil {
		return nil, err
	}
	if record.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	chatCtx, err := s.contextBlock(ctx, record)
	if err != nil {
		return nil, err
	}

	prompt := s.buildPrompt(chatCtx, req.Messages)
	answer, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		logging.Logger.Error("fail chat completion", "recordID", recordID, "error", err)
		return nil, err
	}

	nodeID := uuid.New().String()
	go s.logExchange(nodeID, recordID, last.Content, answer)

	return &models.ChatResp{Reply: answer, NodeID: nodeID}, nil
}

func (s *ChatService) History(ctx context.Context, ownerID, recordID string) ([]*models.ChatNode, error) {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: record %s", ErrNotFound, recordID)
	} else if err != nil {
		return nil, err
	}
	if record.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return s.chatRepo.GetByRecordID(ctx, recordID)
}

// contextBlock assembles (or fetches from cache) the artifacts embedded
// into the system message. Analysis is included only once completed.
func (s *ChatService) contextBlock(ctx context.Context, record *models.TranscriptionRecord) (*models.ChatContext, error) {
	key := chatContextCacheKey(record.ID)
	if cached, ok, err := s.contextCache.Get(key); err == nil && ok {
		return &cached, nil
	}

	chatCtx := models.ChatContext{
		RecordID:   record.ID,
		Transcript: record.TranscriptionText,
		Summary:    record.SummaryText,
	}
	if record.AnalysisReady() {
		chatCtx.Analysis = string(record.AnalysisData)
	}

	if err := s.contextCache.Set(key, chatCtx, 30*time.Minute); err != nil {
		logging.Logger.Error("fail caching chat context", "recordID", record.ID, "error", err)
	}
	return &chatCtx, nil
}

func (s *ChatService) buildPrompt(chatCtx *models.ChatContext, messages []models.ChatMessage) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant answering questions about one recorded interview.\n")
	b.WriteString("Use only the material below; say so when the answer is not in it.\n\n")

	b.WriteString("Transcript:\n")
	b.WriteString(chatCtx.Transcript)
	b.WriteString("\n\n")

	if chatCtx.Summary != "" {
		b.WriteString("Summary:\n")
		b.WriteString(chatCtx.Summary)
		b.WriteString("\n\n")
	}
	if chatCtx.Analysis != "" {
		b.WriteString("Analysis:\n")
		b.WriteString(chatCtx.Analysis)
		b.WriteString("\n\n")
	}

	if len(messages) > 1 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range messages[:len(messages)-1] {
			b.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
		}
		b.WriteString("\n")
	}

	b.WriteString("Now answer the following question in context of the above:\n")
	b.WriteString("Q: " + messages[len(messages)-1].Content + "\n")
	return b.String()
}

func (s *ChatService) logExchange(nodeID, recordID, question, answer string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	parentID := ""
	if lastNode, err := s.chatRepo.GetLastNode(ctx, recordID); err == nil && lastNode != nil {
		parentID = lastNode.ID
	}
	node := &models.ChatNode{
		ID:        nodeID,
		RecordID:  recordID,
		ParentID:  parentID,
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Now(),
	}
	if err := s.chatRepo.Create(ctx, node); err != nil {
		logging.Logger.Error("fail logging chat exchange", "recordID", recordID, "error", err)
	}
}
