package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Sentinel errors for store operations
var (
	// ErrNotFound indicates the requested session does not exist
	ErrNotFound = errors.New("session not found")
	// ErrAnalysisActive indicates a pipeline run is already in progress for the session
	ErrAnalysisActive = errors.New("analysis already in progress")
	// ErrMissingImages indicates a run was started before both images were uploaded
	ErrMissingImages = errors.New("both images must be uploaded")
	// ErrMissingCredential indicates a run was started without an API credential
	ErrMissingCredential = errors.New("api credential is required")
	// ErrStageOutOfOrder indicates a stage result was recorded before its predecessor
	ErrStageOutOfOrder = errors.New("stage result recorded out of order")
	// ErrNotProcessing indicates a run-side mutation on a session with no active run
	ErrNotProcessing = errors.New("session has no active run")
)

// Store defines session persistence. The upload and session handlers use the
// metadata operations; the pipeline runner uses the run operations. BeginRun
// is the only entry into the processing state and serializes run starts, so
// at most one run is ever active per session.
type Store interface {
	// Create adds a new session in the draft state
	Create(ctx context.Context, title, description string) (*Session, error)

	// Get retrieves a session by ID, or ErrNotFound
	Get(ctx context.Context, id uuid.UUID) (*Session, error)

	// List returns all sessions ordered by creation time, most recent first
	List(ctx context.Context) ([]*Session, error)

	// SetImage records the stored filename for one image slot.
	// Re-uploading a slot overwrites the previous reference.
	SetImage(ctx context.Context, id uuid.UUID, slot ImageSlot, filename string) error

	// BeginRun transitions the session into processing. It requires both
	// image references and a non-empty credential, rejects a session that is
	// already processing with ErrAnalysisActive, clears any prior error,
	// timestamps and results, attaches the performance data, and holds the
	// credential until CompleteRun or FailRun releases it.
	BeginRun(ctx context.Context, id uuid.UUID, credential string, perf *PerformanceData) error

	// SetStageResult records the output of one stage. Stages must be
	// recorded in order; each write is visible to readers before the
	// pipeline starts the next stage.
	SetStageResult(ctx context.Context, id uuid.UUID, stage Stage, text string) error

	// CompleteRun transitions processing -> completed, sets completed_at,
	// and discards the held credential
	CompleteRun(ctx context.Context, id uuid.UUID) error

	// FailRun transitions processing -> failed, records the cause and
	// failed_at, and discards the held credential
	FailRun(ctx context.Context, id uuid.UUID, cause error) error
}
