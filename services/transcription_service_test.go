package services

import (
	"context"
	"encoding/json"
	"errors"
	"insightai_backend/config"
	"insightai_backend/models"
	"insightai_backend/platform/queue"
	"strings"
	"testing"
	"time"
)

const testDirectSize = 64

func testTranscriptionConfig() *config.Config {
	return &config.Config{
		DirectTranscribeSize: testDirectSize,
		TranscribeTimeout:    time.Minute,
	}
}

func newTestTranscriptionService() (*TranscriptionService, *fakeRecordRepo, *fakeStore, *fakeQueue, *fakeEvents, *fakeSpeech) {
	records := newFakeRecordRepo()
	store := newFakeStore()
	taskQueue := newFakeQueue()
	events := &fakeEvents{}
	speech := &fakeSpeech{}
	svc := NewTranscriptionService(records, store, speech, taskQueue, events, testTranscriptionConfig())
	return svc, records, store, taskQueue, events, speech
}

func seedRecord(records *fakeRecordRepo, store *fakeStore, id string, mediaSize int) *models.TranscriptionRecord {
	record := &models.TranscriptionRecord{
		ID:             id,
		OwnerID:        "owner-1",
		FileName:       "interview.mp3",
		MediaKey:       "media/" + id,
		FileSize:       int64(mediaSize),
		Status:         models.StatusPending,
		SummaryStatus:  models.StatusPending,
		AnalysisStatus: models.StatusPending,
	}
	records.put(record)
	if mediaSize > 0 {
		store.objects[record.MediaKey] = make([]byte, mediaSize)
	}
	return record
}

func popTask(t *testing.T, taskQueue *fakeQueue) models.TranscriptionTask {
	t.Helper()
	raw, err := taskQueue.PopFromQueue(queue.TranscriptionQueue)
	if err != nil {
		t.Fatalf("pop task: %v", err)
	}
	var task models.TranscriptionTask
	if err := json.Unmarshal([]byte(raw.(string)), &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return task
}

func TestStartSmallMediaCompletesDirectly(t *testing.T) {
	svc, records, store, taskQueue, events, _ := newTestTranscriptionService()
	seedRecord(records, store, "r1", testDirectSize)

	record, err := svc.Start(context.Background(), "owner-1", "r1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if record.Status != models.StatusCompleted {
		t.Fatalf("status %s, want completed", record.Status)
	}
	if record.TranscriptionText == "" {
		t.Fatal("no transcript persisted")
	}
	if record.ProcessedBytes != testDirectSize {
		t.Fatalf("checkpoint %d, want %d", record.ProcessedBytes, testDirectSize)
	}
	if taskQueue.size(queue.TranscriptionQueue) != 0 {
		t.Fatal("direct transcription must not enqueue continuation work")
	}

	types := events.types()
	if len(types) != 2 || types[0] != models.EventTranscriptionProcessing || types[1] != models.EventTranscriptionCompleted {
		t.Fatalf("unexpected event sequence %v", types)
	}
}

func TestStartOversizedMediaGoesPartial(t *testing.T) {
	svc, records, store, taskQueue, _, _ := newTestTranscriptionService()
	seedRecord(records, store, "r1", testDirectSize*3)

	record, err := svc.Start(context.Background(), "owner-1", "r1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if record.Status != models.StatusPartial {
		t.Fatalf("status %s, want partial", record.Status)
	}
	if record.ProcessedBytes != testDirectSize {
		t.Fatalf("checkpoint %d, want %d", record.ProcessedBytes, testDirectSize)
	}

	task := popTask(t, taskQueue)
	if task.RecordID != "r1" || task.Offset != testDirectSize || task.FileSize != testDirectSize*3 {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestProcessTaskChainsUntilDone(t *testing.T) {
	svc, records, store, taskQueue, events, _ := newTestTranscriptionService()
	seedRecord(records, store, "r1", testDirectSize*3)

	if _, err := svc.Start(context.Background(), "owner-1", "r1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// middle slice: stays partial and re-enqueues the next offset
	task := popTask(t, taskQueue)
	if err := svc.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("middle slice: %v", err)
	}
	record, _ := records.GetByID(context.Background(), "r1")
	if record.Status != models.StatusPartial || record.ProcessedBytes != testDirectSize*2 {
		t.Fatalf("after middle slice: status=%s checkpoint=%d", record.Status, record.ProcessedBytes)
	}

	// final slice: completes, no further task
	task = popTask(t, taskQueue)
	if task.Offset != testDirectSize*2 {
		t.Fatalf("next offset %d, want %d", task.Offset, testDirectSize*2)
	}
	if err := svc.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("final slice: %v", err)
	}
	record, _ = records.GetByID(context.Background(), "r1")
	if record.Status != models.StatusCompleted || record.ProcessedBytes != testDirectSize*3 {
		t.Fatalf("after final slice: status=%s checkpoint=%d", record.Status, record.ProcessedBytes)
	}
	if taskQueue.size(queue.TranscriptionQueue) != 0 {
		t.Fatal("completed record still has queued work")
	}
	if got := strings.Count(record.TranscriptionText, "segment("); got != 3 {
		t.Fatalf("transcript holds %d segments, want 3", got)
	}

	types := events.types()
	if types[len(types)-1] != models.EventTranscriptionCompleted {
		t.Fatalf("last event %s, want completed", types[len(types)-1])
	}
}

// a failing continuation slice is re-enqueued with its attempt counter
// bumped; only after the ceiling does the record move to error
func TestProcessTaskRetriesBeforeFailing(t *testing.T) {
	svc, records, store, taskQueue, _, speech := newTestTranscriptionService()
	record := seedRecord(records, store, "r1", testDirectSize*3)
	record.Status = models.StatusPartial
	record.ProcessedBytes = testDirectSize
	speech.setErr(errors.New("speech api unavailable"))

	task := models.TranscriptionTask{
		RecordID: "r1",
		MediaKey: record.MediaKey,
		Offset:   testDirectSize,
		FileSize: testDirectSize * 3,
	}

	for want := 1; want < 3; want++ {
		// a short deadline keeps the in-call backoff from stalling the test
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		err := svc.ProcessTask(ctx, task)
		cancel()
		if err != nil {
			t.Fatalf("attempt %d must requeue, got %v", want, err)
		}
		task = popTask(t, taskQueue)
		if task.Attempt != want || task.Offset != testDirectSize {
			t.Fatalf("requeued task %+v, want attempt %d at same offset", task, want)
		}
		got, _ := records.GetByID(context.Background(), "r1")
		if got.Status != models.StatusPartial {
			t.Fatalf("status %s after attempt %d, want partial", got.Status, want)
		}
	}

	// third attempt exhausts the ceiling
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := svc.ProcessTask(ctx, task); err == nil {
		t.Fatal("exhausted task must surface an error")
	}
	got, _ := records.GetByID(context.Background(), "r1")
	if got.Status != models.StatusError || got.TranscriptionError == "" {
		t.Fatalf("record not marked failed: status=%s", got.Status)
	}
	if taskQueue.size(queue.TranscriptionQueue) != 0 {
		t.Fatal("exhausted task must not requeue")
	}
}

func TestProcessTaskDropsStaleWork(t *testing.T) {
	svc, records, store, taskQueue, _, _ := newTestTranscriptionService()
	record := seedRecord(records, store, "r1", testDirectSize*2)
	record.Status = models.StatusPartial
	record.ProcessedBytes = testDirectSize

	tests := []struct {
		name string
		task models.TranscriptionTask
	}{
		{"missing record", models.TranscriptionTask{RecordID: "ghost", MediaKey: "media/ghost", Offset: 0, FileSize: 10}},
		{"checkpoint mismatch", models.TranscriptionTask{RecordID: "r1", MediaKey: record.MediaKey, Offset: 0, FileSize: testDirectSize * 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.ProcessTask(context.Background(), tt.task); err != nil {
				t.Fatalf("stale task must be dropped silently, got %v", err)
			}
		})
	}
	if taskQueue.size(queue.TranscriptionQueue) != 0 {
		t.Fatal("stale task produced follow-up work")
	}
}

func TestStartClaims(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantErr    error
		wantsClaim bool
	}{
		{"pending is claimable", models.StatusPending, nil, true},
		{"error is retryable", models.StatusError, nil, true},
		{"processing conflicts", models.StatusProcessing, ErrConflict, false},
		{"partial conflicts", models.StatusPartial, ErrConflict, false},
		{"completed conflicts", models.StatusCompleted, ErrConflict, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, records, store, _, _, _ := newTestTranscriptionService()
			record := seedRecord(records, store, "r1", 8)
			record.Status = tt.status

			_, err := svc.Start(context.Background(), "owner-1", "r1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("start: %v", err)
			}
		})
	}
}

func TestStartMissingMediaFailsRecord(t *testing.T) {
	svc, records, store, _, events, _ := newTestTranscriptionService()
	record := seedRecord(records, store, "r1", 0)
	_ = record

	_, err := svc.Start(context.Background(), "owner-1", "r1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	got, _ := records.GetByID(context.Background(), "r1")
	if got.Status != models.StatusError || got.TranscriptionError == "" {
		t.Fatalf("record not marked failed: %+v", got)
	}
	types := events.types()
	if types[len(types)-1] != models.EventTranscriptionFailed {
		t.Fatalf("last event %s, want failed", types[len(types)-1])
	}
}

func TestStartOwnership(t *testing.T) {
	svc, records, store, _, _, _ := newTestTranscriptionService()
	seedRecord(records, store, "r1", 8)

	if _, err := svc.Start(context.Background(), "intruder", "r1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "intruder", "r1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestMediaURL(t *testing.T) {
	svc, records, store, _, _, _ := newTestTranscriptionService()
	seedRecord(records, store, "r1", 8)

	url, err := svc.MediaURL(context.Background(), "owner-1", "r1")
	if err != nil {
		t.Fatalf("media url: %v", err)
	}
	if !strings.Contains(url, "media/r1") {
		t.Fatalf("url %q does not reference the media key", url)
	}
}
