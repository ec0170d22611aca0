package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

// Backend persists session state. Load returns (nil, nil) when nothing is stored for id.
type Backend interface {
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, st *State) error
	Delete(ctx context.Context, id string) error
}

// Store is the session state store. Update holds a per-session lock for the whole
// load, mutate and save cycle so two turns for the same session never interleave.
type Store struct {
	backend Backend
	locks   *keyedMutex
	now     func() time.Time
	logger  *logging.Logger
}

// NewStore wraps backend with per-session serialization.
func NewStore(backend Backend, logger *logging.Logger) *Store {
	if backend == nil {
		panic("session: backend cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		backend: backend,
		locks:   newKeyedMutex(),
		now:     time.Now,
		logger:  logger,
	}
}

// Get returns a snapshot of the state for id, or a fresh state when none is stored.
func (s *Store) Get(ctx context.Context, id string) (*State, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrSessionIDRequired
	}
	st, err := s.backend.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}
	if st == nil {
		return New(id), nil
	}
	return st, nil
}

// Update runs fn against the session's state under the session lock and saves the result.
// State is not saved when fn returns an error.
func (s *Store) Update(ctx context.Context, id string, fn func(st *State) error) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrSessionIDRequired
	}
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("session: lock %s: %w", id, err)
	}
	defer unlock()

	st, err := s.backend.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("session: load %s: %w", id, err)
	}
	if st == nil {
		st = New(id)
	}
	if err := fn(st); err != nil {
		return err
	}
	st.SessionID = id
	st.UpdatedAt = s.now().UTC()
	if err := s.backend.Save(ctx, st); err != nil {
		return fmt.Errorf("session: save %s: %w", id, err)
	}
	return nil
}

// Reset discards everything stored for id.
func (s *Store) Reset(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrSessionIDRequired
	}
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("session: lock %s: %w", id, err)
	}
	defer unlock()
	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	s.logger.Debug("session reset", "session_id", id)
	return nil
}
