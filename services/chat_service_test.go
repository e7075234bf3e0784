package services

import (
	"context"
	"encoding/json"
	"errors"
	"insightai_backend/models"
	"strings"
	"testing"
	"time"
)

func newTestChatService(llm *fakeLLM) (*ChatService, *fakeRecordRepo, *fakeChatRepo, *fakeCache) {
	records := newFakeRecordRepo()
	chatRepo := newFakeChatRepo()
	cacheService := newFakeCache()
	svc := NewChatService(records, chatRepo, llm, cacheService)
	return svc, records, chatRepo, cacheService
}

func seedAnalyzedRecord(records *fakeRecordRepo, id string) *models.TranscriptionRecord {
	analysis, _ := json.Marshal(models.AnalysisResult{
		Sentiment:            "positive",
		SentimentExplanation: "Generally happy.",
		PainPoints:           []string{"slow exports"},
		FeatureRequests:      []string{},
		Topics:               []string{"onboarding"},
	})
	record := seedTranscribedRecord(records, id, longTranscript)
	record.SummaryStatus = models.StatusCompleted
	record.SummaryText = "A summary of the interview."
	record.AnalysisStatus = models.StatusCompleted
	record.AnalysisData = analysis
	return record
}

func waitForNodes(t *testing.T, chatRepo *fakeChatRepo, recordID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if chatRepo.count(recordID) >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("chat log never reached %d nodes", want)
}

func TestAskEmbedsArtifactsInPrompt(t *testing.T) {
	llm := &fakeLLM{reply: "They mostly discussed onboarding."}
	svc, records, chatRepo, _ := newTestChatService(llm)
	seedAnalyzedRecord(records, "r1")

	resp, err := svc.Ask(context.Background(), "owner-1", "r1", models.ChatReq{
		Messages: []models.ChatMessage{{Role: "user", Content: "What did they talk about?"}},
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if resp.Reply != "They mostly discussed onboarding." {
		t.Fatalf("reply %q", resp.Reply)
	}
	if resp.NodeID == "" {
		t.Fatal("no node id returned")
	}

	prompt := llm.prompts[0]
	for _, fragment := range []string{longTranscript, "A summary of the interview.", "slow exports", "What did they talk about?"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q", fragment)
		}
	}

	waitForNodes(t, chatRepo, "r1", 1)
	nodes, _ := chatRepo.GetByRecordID(context.Background(), "r1")
	if nodes[0].Question != "What did they talk about?" || nodes[0].Answer != resp.Reply {
		t.Fatalf("logged node %+v", nodes[0])
	}
}

func TestAskOmitsUnfinishedAnalysis(t *testing.T) {
	llm := &fakeLLM{reply: "Answer."}
	svc, records, _, _ := newTestChatService(llm)
	record := seedAnalyzedRecord(records, "r1")
	record.AnalysisStatus = models.StatusProcessing

	if _, err := svc.Ask(context.Background(), "owner-1", "r1", models.ChatReq{
		Messages: []models.ChatMessage{{Role: "user", Content: "Anything?"}},
	}); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if strings.Contains(llm.prompts[0], "slow exports") {
		t.Fatal("in-flight analysis leaked into the prompt")
	}
}

func TestAskIncludesConversationHistory(t *testing.T) {
	llm := &fakeLLM{reply: "Answer."}
	svc, records, _, _ := newTestChatService(llm)
	seedAnalyzedRecord(records, "r1")

	if _, err := svc.Ask(context.Background(), "owner-1", "r1", models.ChatReq{
		Messages: []models.ChatMessage{
			{Role: "user", Content: "First question?"},
			{Role: "assistant", Content: "First answer."},
			{Role: "user", Content: "Follow-up?"},
		},
	}); err != nil {
		t.Fatalf("ask: %v", err)
	}

	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "First question?") || !strings.Contains(prompt, "First answer.") {
		t.Fatal("earlier turns missing from the prompt")
	}
	if !strings.Contains(prompt, "Q: Follow-up?") {
		t.Fatal("current question missing from the prompt")
	}
}

func TestAskCachesContextBlock(t *testing.T) {
	llm := &fakeLLM{reply: "Answer."}
	svc, records, _, cacheService := newTestChatService(llm)
	seedAnalyzedRecord(records, "r1")

	req := models.ChatReq{Messages: []models.ChatMessage{{Role: "user", Content: "Q?"}}}
	if _, err := svc.Ask(context.Background(), "owner-1", "r1", req); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if _, ok := cacheService.GetCache(chatContextCacheKey("r1")); !ok {
		t.Fatal("context block not cached")
	}
}

func TestAskValidation(t *testing.T) {
	llm := &fakeLLM{reply: "Answer."}
	svc, records, _, _ := newTestChatService(llm)
	seedAnalyzedRecord(records, "r1")

	tests := []struct {
		name     string
		messages []models.ChatMessage
	}{
		{"no messages", nil},
		{"last message not from user", []models.ChatMessage{{Role: "assistant", Content: "hi"}}},
		{"blank question", []models.ChatMessage{{Role: "user", Content: "   "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ask(context.Background(), "owner-1", "r1", models.ChatReq{Messages: tt.messages})
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}
}

func TestAskAndHistoryGuards(t *testing.T) {
	llm := &fakeLLM{reply: "Answer."}
	svc, records, _, _ := newTestChatService(llm)
	seedAnalyzedRecord(records, "r1")
	req := models.ChatReq{Messages: []models.ChatMessage{{Role: "user", Content: "Q?"}}}

	if _, err := svc.Ask(context.Background(), "intruder", "r1", req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("ask foreign owner: want ErrForbidden, got %v", err)
	}
	if _, err := svc.Ask(context.Background(), "owner-1", "ghost", req); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ask unknown record: want ErrNotFound, got %v", err)
	}
	if _, err := svc.History(context.Background(), "intruder", "r1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("history foreign owner: want ErrForbidden, got %v", err)
	}
}
