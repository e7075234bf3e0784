package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means another caller already claimed this step.
	ErrConflict   = errors.New("already in progress or done")
	ErrValidation = errors.New("validation failed")
)

// MissingChunksError reports every absent or empty chunk index so the
// client can re-upload exactly what is missing.
type MissingChunksError struct {
	SessionID string
	Indices   []int
}

func (e *MissingChunksError) Error() string {
	sorted := make([]int, len(e.Indices))
	copy(sorted, e.Indices)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, idx := range sorted {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return fmt.Sprintf("session %s is missing chunks: %s", e.SessionID, strings.Join(parts, ", "))
}
