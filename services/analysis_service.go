package services

import (
	"context"
	"encoding/json"
	"fmt"
	"insightai_backend/config"
	"insightai_backend/models"
	"insightai_backend/pkg/logging"
	"insightai_backend/platform/cache"
	"insightai_backend/repository"
	"insightai_backend/utils"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"
)

const analysisPrompt = `You are an expert interview analyst.
Analyze the following interview transcript and produce a JSON object with:
- "sentiment": one of "positive", "neutral", "negative".
- "sentiment_explanation": one or two sentences justifying the sentiment.
- "pain_points": array of problems or frustrations the interviewee raised.
- "feature_requests": array of features or changes the interviewee asked for.
- "topics": array of the main topics discussed.
Respond with JSON only.

Transcript:
`

// Character budget applied before the transcript is sent for analysis.
const analysisCharBudget = 24000

const truncationMarker = "\n[... transcript truncated ...]\n"

// AnalysisService extracts sentiment and structured findings from a
// transcript. The parsed result is always structurally valid: missing
// fields are back-filled with neutral defaults.
type AnalysisService struct {
	recordRepo   repository.TranscriptionRepository
	llm          LLMClient
	events       EventSink
	cacheService cache.CacheService
	timeout      time.Duration
	sf           singleflight.Group
}

func NewAnalysisService(
	recordRepo repository.TranscriptionRepository,
	llm LLMClient,
	events EventSink,
	cacheService cache.CacheService,
	cfg *config.Config) *AnalysisService {
	return &AnalysisService{
		recordRepo:   recordRepo,
		llm:          llm,
		events:       events,
		cacheService: cacheService,
		timeout:      cfg.InsightTimeout,
	}
}

func (s *AnalysisService) Analyze(ctx context.Context, ownerID, recordID string) (*models.AnalysisResult, error) {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("%w: record %s", ErrNotFound, recordID)
	}
	if record.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if record.TranscriptionText == "" {
		return nil, fmt.Errorf("%w: record %s has no transcript yet", ErrValidation, recordID)
	}

	res, err, _ := s.sf.Do(recordID, func() (interface{}, error) {
		return s.analyze(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.AnalysisResult), nil
}

func (s *AnalysisService) analyze(ctx context.Context, record *models.TranscriptionRecord) (*models.AnalysisResult, error) {
	if IsTrivialTranscript(record.TranscriptionText) {
		result := placeholderAnalysis()
		if err := s.persist(ctx, record.ID, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	won, err := s.claim(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("%w: analysis for %s", ErrConflict, record.ID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	transcript := TruncateTranscript(record.TranscriptionText, analysisCharBudget)

	var raw string
	err = utils.Retry(ctx, 3, 2*time.Second, func() error {
		var callErr error
		raw, callErr = s.llm.Complete(ctx, analysisPrompt+transcript)
		return callErr
	})
	if err != nil {
		if updErr := s.recordRepo.UpdateAnalysis(ctx, record.ID, models.StatusError, nil, err.Error()); updErr != nil {
			logging.Logger.Error("fail writing analysis error", "recordID", record.ID, "error", updErr)
		}
		s.publish(models.EventAnalysisFailed, record, models.StatusError, err.Error())
		return nil, err
	}

	var result models.AnalysisResult
	err = utils.DecodeLooseJSON(raw, &result)
	if err != nil || (result.Sentiment == "" && result.SentimentExplanation == "") {
		// nothing recognizable came back; keep the reply readable
		logging.Logger.Warn("analysis reply not parseable, using explanation fallback", "recordID", record.ID)
		result = models.AnalysisResult{SentimentExplanation: raw}
	}
	BackfillAnalysis(&result)

	if err := s.persist(ctx, record.ID, &result); err != nil {
		return nil, err
	}
	s.publish(models.EventAnalysisCompleted, record, models.StatusCompleted, "")
	return &result, nil
}

func (s *AnalysisService) persist(ctx context.Context, recordID string, result *models.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := s.recordRepo.UpdateAnalysis(ctx, recordID, models.StatusCompleted, data, ""); err != nil {
		return err
	}
	if err := s.cacheService.DelCache(chatContextCacheKey(recordID)); err != nil {
		logging.Logger.Error("fail invalidating chat context cache", "recordID", recordID, "error", err)
	}
	return nil
}

func (s *AnalysisService) claim(ctx context.Context, recordID string) (bool, error) {
	for _, from := range []string{models.StatusPending, models.StatusError, models.StatusCompleted} {
		won, err := s.recordRepo.ClaimStatus(ctx, recordID, "analysis_status", from, models.StatusProcessing)
		if err != nil || won {
			return won, err
		}
	}
	return false, nil
}

func (s *AnalysisService) publish(eventType models.TranscriptionEventType, record *models.TranscriptionRecord, status, message string) {
	event := &models.TranscriptionEvent{
		Type:     eventType,
		RecordID: record.ID,
		UserID:   record.OwnerID,
		Status:   status,
		Message:  message,
	}
	if err := s.events.PublishTranscriptionEvent(event); err != nil {
		logging.Logger.Error("fail publishing event", "recordID", record.ID, "type", eventType, "error", err)
	}
}

func placeholderAnalysis() *models.AnalysisResult {
	return &models.AnalysisResult{
		Sentiment:            placeholderSentiment,
		SentimentExplanation: placeholderSentimentExplanation,
		PainPoints:           []string{},
		FeatureRequests:      []string{},
		Topics:               []string{},
	}
}

// BackfillAnalysis fills any field the model omitted so the shape is
// always structurally valid, even when semantically empty.
func BackfillAnalysis(result *models.AnalysisResult) {
	if result.Sentiment == "" {
		result.Sentiment = placeholderSentiment
	}
	if result.PainPoints == nil {
		result.PainPoints = []string{}
	}
	if result.FeatureRequests == nil {
		result.FeatureRequests = []string{}
	}
	if result.Topics == nil {
		result.Topics = []string{}
	}
}

// TruncateTranscript cuts an oversized transcript down to budget
// characters, keeping the head, a middle slice and the tail, with markers
// where content was dropped. Slicing happens on runes so a multi-byte
// character is never split.
func TruncateTranscript(text string, budget int) string {
	if budget <= 0 || len(text) <= budget || utf8.RuneCountInString(text) <= budget {
		return text
	}
	runes := []rune(text)
	markers := 2 * len(truncationMarker)
	usable := budget - markers
	if usable < 3 {
		return string(runes[:budget])
	}

	headLen := usable / 2
	midLen := usable / 4
	tailLen := usable - headLen - midLen

	head := string(runes[:headLen])
	midStart := len(runes)/2 - midLen/2
	mid := string(runes[midStart : midStart+midLen])
	tail := string(runes[len(runes)-tailLen:])

	var b strings.Builder
	b.WriteString(head)
	b.WriteString(truncationMarker)
	b.WriteString(mid)
	b.WriteString(truncationMarker)
	b.WriteString(tail)
	return b.String()
}
