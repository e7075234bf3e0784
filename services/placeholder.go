package services

import "strings"

const minTranscriptLen = 50

// Phrases that indicate the transcript column still holds pipeline chatter
// rather than interview content.
var processingPhrases = []string{
	"transcription in progress",
	"still processing",
	"processing your file",
	"being processed",
	"transcription pending",
}

// IsTrivialTranscript reports whether the text is too short or is a known
// processing message. Trivial transcripts never reach the LLM.
func IsTrivialTranscript(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minTranscriptLen {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range processingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

const placeholderSummaryText = "This appears to be a processing message or the transcript is too short to summarize. Please wait for transcription to complete."

const (
	placeholderSentiment            = "neutral"
	placeholderSentimentExplanation = "Not enough transcript content to analyze."
)
