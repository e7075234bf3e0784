package utils

import (
	"strings"
	"testing"
)

func TestChunkKey(t *testing.T) {
	tests := []struct {
		sessionID string
		index     int
		want      string
	}{
		{"sess-1", 0, "chunks/sess-1/000000"},
		{"sess-1", 7, "chunks/sess-1/000007"},
		{"sess-1", 123456, "chunks/sess-1/123456"},
	}
	for _, tt := range tests {
		if got := ChunkKey(tt.sessionID, tt.index); got != tt.want {
			t.Errorf("ChunkKey(%q, %d) = %q, want %q", tt.sessionID, tt.index, got, tt.want)
		}
	}
}

func TestChunkKeyOrderMatchesIndexOrder(t *testing.T) {
	// lexicographic key order must equal numeric index order, so listing
	// the chunk prefix yields chunks in assembly order
	prev := ChunkKey("s", 0)
	for i := 1; i < 100; i++ {
		key := ChunkKey("s", i)
		if key <= prev {
			t.Fatalf("key %q not greater than %q", key, prev)
		}
		prev = key
	}
}

func TestCleanFilename(t *testing.T) {
	fkg := NewFileKeyGenerator(StrategyDateBased, "media")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces to underscores", "my interview.mp3", "my_interview.mp3"},
		{"dangerous chars stripped", `a<b>c:d".mp3`, "abcd.mp3"},
		{"empty base falls back", ".mp3", "recording.mp3"},
		{"extension lowercased", "TALK.MP3", "TALK.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fkg.cleanFilename(tt.in); got != tt.want {
				t.Fatalf("cleanFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("overlong base truncated", func(t *testing.T) {
		long := strings.Repeat("a", 80) + ".wav"
		got := fkg.cleanFilename(long)
		if len(got) > 50+len(".wav") {
			t.Fatalf("cleanFilename kept %d chars", len(got))
		}
		if !strings.HasSuffix(got, ".wav") {
			t.Fatalf("extension lost: %q", got)
		}
	})
}

func TestGenerateFileKeyUsesPrefixAndStrategy(t *testing.T) {
	fkg := NewFileKeyGenerator(StrategyDateBased, "media")
	key := fkg.GenerateFileKey("interview.mp3", "user-1")
	if !strings.HasPrefix(key, "media/") {
		t.Fatalf("key %q lacks prefix", key)
	}
	if !strings.HasSuffix(key, "_interview.mp3") {
		t.Fatalf("key %q lacks the cleaned filename", key)
	}

	userKey := NewFileKeyGenerator(StrategyUserBased, "media").GenerateFileKey("interview.mp3", "user-1")
	if !strings.Contains(userKey, "media/users/") {
		t.Fatalf("user-based key %q lacks users segment", userKey)
	}
	if strings.Contains(userKey, "user-1") {
		t.Fatalf("user-based key %q leaks the raw user id", userKey)
	}
}
