package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore provides a process-lifetime implementation of Store.
// Sessions are never deleted; the map lives as long as the process.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	// Transient run credentials, keyed by session. Kept out of the Session
	// record so no read path can ever return one.
	credentials map[uuid.UUID]string

	seq uint64
}

// NewInMemoryStore creates a new in-memory session store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:    make(map[uuid.UUID]*Session),
		credentials: make(map[uuid.UUID]string),
	}
}

// Create adds a new session in the draft state
func (s *InMemoryStore) Create(ctx context.Context, title, description string) (*Session, error) {
	if title == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	sess := &Session{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      StatusDraft,
		CreatedAt:   time.Now(),
		seq:         s.seq,
	}

	s.sessions[sess.ID] = sess
	return sess.clone(), nil
}

// Get retrieves a session by ID
func (s *InMemoryStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}

	return sess.clone(), nil
}

// List returns all sessions ordered by creation time, most recent first
func (s *InMemoryStore) List(ctx context.Context) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess.clone())
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].seq > sessions[j].seq
	})

	return sessions, nil
}

// SetImage records the stored filename for one image slot
func (s *InMemoryStore) SetImage(ctx context.Context, id uuid.UUID, slot ImageSlot, filename string) error {
	if !slot.Valid() {
		return fmt.Errorf("invalid image slot %q", slot)
	}
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return ErrNotFound
	}

	switch slot {
	case SlotImageA:
		sess.ImageAFilename = filename
	case SlotImageB:
		sess.ImageBFilename = filename
	}

	return nil
}

// BeginRun transitions the session into processing. Preconditions are checked
// under the store lock before any field changes, so a rejected start leaves
// the session untouched and two concurrent starts cannot both pass the gate.
func (s *InMemoryStore) BeginRun(ctx context.Context, id uuid.UUID, credential string, perf *PerformanceData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return ErrNotFound
	}

	if sess.Status == StatusProcessing {
		return ErrAnalysisActive
	}
	if sess.ImageAFilename == "" || sess.ImageBFilename == "" {
		return ErrMissingImages
	}
	if credential == "" {
		return ErrMissingCredential
	}

	sess.Status = StatusProcessing
	sess.Error = ""
	sess.CompletedAt = nil
	sess.FailedAt = nil
	sess.Results = &Results{}

	if perf != nil {
		p := *perf
		sess.PerformanceData = &p
	} else {
		sess.PerformanceData = nil
	}

	s.credentials[id] = credential
	return nil
}

// SetStageResult records the output of one stage
func (s *InMemoryStore) SetStageResult(ctx context.Context, id uuid.UUID, stage Stage, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return ErrNotFound
	}
	if sess.Status != StatusProcessing {
		return ErrNotProcessing
	}
	if sess.Results == nil {
		sess.Results = &Results{}
	}

	switch stage {
	case StageStructure:
		sess.Results.Stage1 = text
	case StageContent:
		if sess.Results.Stage1 == "" {
			return ErrStageOutOfOrder
		}
		sess.Results.Stage2 = text
	case StageSynthesis:
		if sess.Results.Stage2 == "" {
			return ErrStageOutOfOrder
		}
		sess.Results.Stage3 = text
	default:
		return fmt.Errorf("unknown stage %d", stage)
	}

	return nil
}

// CompleteRun transitions processing -> completed and discards the credential
func (s *InMemoryStore) CompleteRun(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The credential goes away no matter how the transition turns out
	delete(s.credentials, id)

	sess, exists := s.sessions[id]
	if !exists {
		return ErrNotFound
	}
	if sess.Status != StatusProcessing {
		return ErrNotProcessing
	}
	if sess.Results == nil || sess.Results.Stage1 == "" || sess.Results.Stage2 == "" || sess.Results.Stage3 == "" {
		return fmt.Errorf("cannot complete run: not all stages have results")
	}

	now := time.Now()
	sess.Status = StatusCompleted
	sess.CompletedAt = &now

	return nil
}

// FailRun transitions processing -> failed and discards the credential
func (s *InMemoryStore) FailRun(ctx context.Context, id uuid.UUID, cause error) error {
	if cause == nil {
		return fmt.Errorf("cause cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The credential goes away no matter how the transition turns out
	delete(s.credentials, id)

	sess, exists := s.sessions[id]
	if !exists {
		return ErrNotFound
	}
	if sess.Status != StatusProcessing {
		return ErrNotProcessing
	}

	now := time.Now()
	sess.Status = StatusFailed
	sess.Error = cause.Error()
	sess.FailedAt = &now

	return nil
}

// HasCredential reports whether a run credential is currently held for the
// session. It never exposes the credential itself.
func (s *InMemoryStore) HasCredential(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.credentials[id]
	return exists
}
