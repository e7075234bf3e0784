package services

import (
	"context"
	"errors"
	"fmt"
	"insightai_backend/config"
	"insightai_backend/models"
	"insightai_backend/pkg/logging"
	"insightai_backend/repository"
	"insightai_backend/utils"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadService implements the chunk receiver and the finalizer. Chunks
// live in the object store under chunks/<session>/<index> until finalize
// assembles them into one durable media object.
type UploadService struct {
	sessionRepo repository.SessionRepository
	recordRepo  repository.TranscriptionRepository
	store       ObjectStore
	maxFileSize int64
	sessionTTL  time.Duration
}

func NewUploadService(
	sessionRepo repository.SessionRepository,
	recordRepo repository.TranscriptionRepository,
	store ObjectStore,
	cfg *config.Config) *UploadService {
	return &UploadService{
		sessionRepo: sessionRepo,
		recordRepo:  recordRepo,
		store:       store,
		maxFileSize: cfg.MaxFileSize,
		sessionTTL:  cfg.SessionTTL,
	}
}

type ChunkUpload struct {
	SessionID   string
	ChunkIndex  int
	TotalChunks int
	FileName    string
	MimeType    string
	Data        []byte
}

// ReceiveChunk stores one fragment. Any index may arrive at any time;
// duplicate indices overwrite. The first chunk to arrive creates the
// session row, index 0 carries the file metadata.
func (s *UploadService) ReceiveChunk(ctx context.Context, ownerID string, req ChunkUpload) (*models.UploadChunkResp, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: session_id required", ErrValidation)
	}
	if req.TotalChunks < 1 {
		return nil, fmt.Errorf("%w: total_chunks must be positive", ErrValidation)
	}
	if req.ChunkIndex < 0 || req.ChunkIndex >= req.TotalChunks {
		return nil, fmt.Errorf("%w: chunk_index %d out of range [0, %d)", ErrValidation, req.ChunkIndex, req.TotalChunks)
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: empty chunk body", ErrValidation)
	}

	session, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		session = &models.UploadSession{
			SessionID:   req.SessionID,
			OwnerID:     ownerID,
			FileName:    req.FileName,
			MimeType:    req.MimeType,
			TotalChunks: req.TotalChunks,
			Status:      models.SessionUploading,
			CreatedAt:   time.Now(),
			ExpiresAt:   time.Now().Add(s.sessionTTL),
		}
		if createErr := s.sessionRepo.Create(ctx, session); createErr != nil {
			// a concurrent chunk may have created it first
			session, err = s.sessionRepo.GetByID(ctx, req.SessionID)
			if err != nil {
				return nil, createErr
			}
		}
	} else if err != nil {
		return nil, err
	}

	if session.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if session.Status != models.SessionUploading {
		return nil, fmt.Errorf("%w: session %s is %s", ErrConflict, session.SessionID, session.Status)
	}
	if session.TotalChunks != req.TotalChunks {
		return nil, fmt.Errorf("%w: total_chunks mismatch (session has %d)", ErrValidation, session.TotalChunks)
	}

	// index 0 is the authoritative carrier of file metadata; a session
	// created by an out-of-order chunk gets back-filled here
	if req.ChunkIndex == 0 && req.FileName != "" && session.FileName != req.FileName {
		if err := s.sessionRepo.UpdateFileInfo(ctx, session.SessionID, req.FileName, req.MimeType); err != nil {
			logging.Logger.Error("fail UpdateFileInfo", "sessionID", session.SessionID, "error", err)
		}
	}

	key := utils.ChunkKey(session.SessionID, req.ChunkIndex)
	if err := s.store.PutObject(ctx, key, req.Data, "application/octet-stream"); err != nil {
		logging.Logger.Error("fail storing chunk", "sessionID", session.SessionID, "index", req.ChunkIndex, "error", err)
		return nil, fmt.Errorf("failed to store chunk %d: %w", req.ChunkIndex, err)
	}

	if err := s.sessionRepo.RecordChunk(ctx, session.SessionID, req.ChunkIndex); err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.GetByID(ctx, session.SessionID)
	if err != nil {
		return nil, err
	}
	return &models.UploadChunkResp{
		SessionID:      updated.SessionID,
		ChunkIndex:     req.ChunkIndex,
		ChunksReceived: updated.ChunksReceived,
		TotalChunks:    updated.TotalChunks,
	}, nil
}

// Finalize verifies every chunk is present and non-empty, concatenates
// them in strict ascending index order, uploads the assembled object and
// creates the pipeline record. Concatenation order is index order, never
// arrival order.
func (s *UploadService) Finalize(ctx context.Context, ownerID, sessionID string, totalChunks int) (*models.FinalizeUploadResp, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	} else if err != nil {
		return nil, err
	}
	if session.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if totalChunks > 0 && totalChunks != session.TotalChunks {
		return nil, fmt.Errorf("%w: total_chunks mismatch (session has %d)", ErrValidation, session.TotalChunks)
	}

	var missing []int
	var totalSize int64
	for i := 0; i < session.TotalChunks; i++ {
		size, found, err := s.store.StatObject(ctx, utils.ChunkKey(sessionID, i))
		if err != nil {
			return nil, fmt.Errorf("failed to check chunk %d: %w", i, err)
		}
		if !found || size == 0 {
			missing = append(missing, i)
		}
		totalSize += size
	}
	if len(missing) > 0 {
		return nil, &MissingChunksError{SessionID: sessionID, Indices: missing}
	}
	if totalSize > s.maxFileSize {
		return nil, fmt.Errorf("%w: assembled file would exceed %d bytes", ErrValidation, s.maxFileSize)
	}

	// only one caller gets to assemble; any failure from here on rolls the
	// session back to uploading so a retry can finalize again
	won, err := s.sessionRepo.ClaimStatus(ctx, sessionID, models.SessionUploading, models.SessionFinalizing)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("%w: finalize for session %s already in progress or done", ErrConflict, sessionID)
	}

	assembled := make([]byte, 0, totalSize)
	for i := 0; i < session.TotalChunks; i++ {
		data, err := s.store.GetObject(ctx, utils.ChunkKey(sessionID, i))
		if err != nil {
			s.unclaimFinalize(ctx, sessionID)
			return nil, fmt.Errorf("failed to read chunk %d: %w", i, err)
		}
		assembled = append(assembled, data...)
	}

	mediaKey := s.store.GenerateMediaKey(session.FileName)
	if err := s.store.PutObject(ctx, mediaKey, assembled, session.MimeType); err != nil {
		s.unclaimFinalize(ctx, sessionID)
		return nil, fmt.Errorf("failed to upload assembled media: %w", err)
	}

	record := &models.TranscriptionRecord{
		ID:       uuid.New().String(),
		OwnerID:  ownerID,
		FileName: session.FileName,
		MimeType: session.MimeType,
		MediaKey: mediaKey,
		FileSize: int64(len(assembled)),
		Status:   models.StatusPending,
	}
	if err := s.recordRepo.Create(ctx, record); err != nil {
		logging.Logger.Error("failed to create transcription record", "sessionID", sessionID, "error", err)
		s.unclaimFinalize(ctx, sessionID)
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	if _, err := s.sessionRepo.ClaimStatus(ctx, sessionID, models.SessionFinalizing, models.SessionCompleted); err != nil {
		// the record and media already exist; the janitor will reap the
		// leftover session once it expires
		logging.Logger.Error("fail marking session completed", "sessionID", sessionID, "error", err)
	}

	// best-effort cleanup of the transient chunk set
	s.deleteChunks(ctx, sessionID, session.TotalChunks)

	logging.Logger.Info("upload finalized",
		"sessionID", sessionID,
		"recordID", record.ID,
		"mediaKey", mediaKey,
		"size", record.FileSize,
	)
	return &models.FinalizeUploadResp{
		RecordID: record.ID,
		MediaKey: mediaKey,
		FileSize: record.FileSize,
		Status:   record.Status,
	}, nil
}

// unclaimFinalize returns a session to uploading after a failed finalize
// attempt, so the chunks stay retryable and the janitor keeps sweeping it.
func (s *UploadService) unclaimFinalize(ctx context.Context, sessionID string) {
	if _, err := s.sessionRepo.ClaimStatus(ctx, sessionID, models.SessionFinalizing, models.SessionUploading); err != nil {
		logging.Logger.Error("fail rolling back finalize claim", "sessionID", sessionID, "error", err)
	}
}

func (s *UploadService) deleteChunks(ctx context.Context, sessionID string, totalChunks int) {
	for i := 0; i < totalChunks; i++ {
		key := utils.ChunkKey(sessionID, i)
		if err := s.store.RemoveObject(ctx, key); err != nil {
			logging.Logger.Warn("failed to delete chunk after finalize", "key", key, "error", err)
		}
	}
}

// CleanupExpired removes abandoned sessions and their chunk objects.
// Called periodically by the janitor worker.
func (s *UploadService) CleanupExpired(ctx context.Context) (int, error) {
	sessions, err := s.sessionRepo.ListExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	for _, session := range sessions {
		s.deleteChunks(ctx, session.SessionID, session.TotalChunks)
		if err := s.sessionRepo.Delete(ctx, session.SessionID); err != nil {
			logging.Logger.Error("fail deleting expired session", "sessionID", session.SessionID, "error", err)
			continue
		}
		logging.Logger.Info("expired upload session removed", "sessionID", session.SessionID)
	}
	return len(sessions), nil
}
