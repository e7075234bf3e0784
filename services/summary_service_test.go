package services

import (
	"context"
	"errors"
	"insightai_backend/config"
	"insightai_backend/models"
	"strings"
	"testing"
	"time"
)

const longTranscript = "The interviewee talked at length about onboarding friction, " +
	"billing surprises and how much they liked the new export flow in the dashboard."

func testInsightConfig() *config.Config {
	return &config.Config{InsightTimeout: time.Minute}
}

func newTestSummaryService(llm *fakeLLM) (*SummaryService, *fakeRecordRepo, *fakeEvents, *fakeCache) {
	records := newFakeRecordRepo()
	events := &fakeEvents{}
	cacheService := newFakeCache()
	svc := NewSummaryService(records, llm, events, cacheService, testInsightConfig())
	return svc, records, events, cacheService
}

func seedTranscribedRecord(records *fakeRecordRepo, id, transcript string) *models.TranscriptionRecord {
	record := &models.TranscriptionRecord{
		ID:                id,
		OwnerID:           "owner-1",
		FileName:          "interview.mp3",
		MediaKey:          "media/" + id,
		Status:            models.StatusCompleted,
		TranscriptionText: transcript,
		SummaryStatus:     models.StatusPending,
		AnalysisStatus:    models.StatusPending,
	}
	records.put(record)
	return record
}

func TestSummarizeTrivialTranscriptShortCircuits(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
	}{
		{"too short", "Okay. Thanks."},
		{"processing phrase", "Your transcription in progress, check back later to see the final transcript."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{reply: `{"text":"should never be used"}`}
			svc, records, _, _ := newTestSummaryService(llm)
			seedTranscribedRecord(records, "r1", tt.transcript)

			result, err := svc.Summarize(context.Background(), "owner-1", "r1")
			if err != nil {
				t.Fatalf("summarize: %v", err)
			}
			if llm.callCount() != 0 {
				t.Fatal("trivial transcript must not reach the LLM")
			}
			if !strings.Contains(result.Text, "too short to summarize") {
				t.Fatalf("unexpected placeholder %q", result.Text)
			}
			record, _ := records.GetByID(context.Background(), "r1")
			if record.SummaryStatus != models.StatusCompleted {
				t.Fatalf("summary status %s", record.SummaryStatus)
			}
		})
	}
}

func TestSummarizeParsesFencedJSON(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n{\"text\":\"They discussed onboarding.\",\"key_points\":[\"onboarding\",\"billing\"]}\n```"}
	svc, records, events, _ := newTestSummaryService(llm)
	seedTranscribedRecord(records, "r1", longTranscript)

	result, err := svc.Summarize(context.Background(), "owner-1", "r1")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if result.Text != "They discussed onboarding." {
		t.Fatalf("text %q", result.Text)
	}
	if len(result.KeyPoints) != 2 {
		t.Fatalf("key points %v", result.KeyPoints)
	}

	record, _ := records.GetByID(context.Background(), "r1")
	if record.SummaryStatus != models.StatusCompleted || record.SummaryText != result.Text {
		t.Fatalf("persisted summary: status=%s text=%q", record.SummaryStatus, record.SummaryText)
	}
	types := events.types()
	if len(types) != 1 || types[0] != models.EventSummaryCompleted {
		t.Fatalf("events %v", types)
	}
}

func TestSummarizePlainProseFallsBackToText(t *testing.T) {
	prose := "The conversation was mostly about pricing concerns and feature gaps."
	llm := &fakeLLM{reply: prose}
	svc, records, _, _ := newTestSummaryService(llm)
	seedTranscribedRecord(records, "r1", longTranscript)

	result, err := svc.Summarize(context.Background(), "owner-1", "r1")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if result.Text != prose {
		t.Fatalf("want raw prose preserved, got %q", result.Text)
	}
}

func TestSummarizeInvalidatesChatContextCache(t *testing.T) {
	llm := &fakeLLM{reply: `{"text":"fresh summary"}`}
	svc, records, _, cacheService := newTestSummaryService(llm)
	seedTranscribedRecord(records, "r1", longTranscript)
	_ = cacheService.SetCache(chatContextCacheKey("r1"), "stale", time.Minute)

	if _, err := svc.Summarize(context.Background(), "owner-1", "r1"); err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if _, ok := cacheService.GetCache(chatContextCacheKey("r1")); ok {
		t.Fatal("stale chat context survived the summary update")
	}
}

func TestSummarizeClaimConflicts(t *testing.T) {
	llm := &fakeLLM{reply: `{"text":"x"}`}
	svc, records, _, _ := newTestSummaryService(llm)
	record := seedTranscribedRecord(records, "r1", longTranscript)
	record.SummaryStatus = models.StatusProcessing

	_, err := svc.Summarize(context.Background(), "owner-1", "r1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if llm.callCount() != 0 {
		t.Fatal("conflicting trigger must not reach the LLM")
	}
}

func TestSummarizeReplacesCompletedSummary(t *testing.T) {
	llm := &fakeLLM{reply: `{"text":"second pass"}`}
	svc, records, _, _ := newTestSummaryService(llm)
	record := seedTranscribedRecord(records, "r1", longTranscript)
	record.SummaryStatus = models.StatusCompleted
	record.SummaryText = "first pass"

	result, err := svc.Summarize(context.Background(), "owner-1", "r1")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if result.Text != "second pass" {
		t.Fatalf("text %q", result.Text)
	}
}

func TestSummarizeGuards(t *testing.T) {
	llm := &fakeLLM{reply: `{"text":"x"}`}
	svc, records, _, _ := newTestSummaryService(llm)
	record := seedTranscribedRecord(records, "r1", "")
	record.Status = models.StatusPending

	if _, err := svc.Summarize(context.Background(), "owner-1", "r1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty transcript: want ErrValidation, got %v", err)
	}
	if _, err := svc.Summarize(context.Background(), "intruder", "r1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign owner: want ErrForbidden, got %v", err)
	}
	if _, err := svc.Summarize(context.Background(), "owner-1", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown record: want ErrNotFound, got %v", err)
	}
}
