package redact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/blackout/internal/dom"
)

// ErrStoreFull is returned by Create when the session cap is reached.
var ErrStoreFull = errors.New("session limit reached")

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	maxSize  int
	opts     Options
	log      *slog.Logger
}

// NewStore creates a store. Sessions idle longer than ttl are evicted by
// Cleanup; a non-positive maxSize disables the cap.
func NewStore(ttl time.Duration, maxSize int, opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		maxSize:  maxSize,
		opts:     opts,
		log:      log,
	}
}

// Create registers a new session for doc.
func (s *Store) Create(doc *dom.Document, filename string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxSize > 0 && len(s.sessions) >= s.maxSize {
		return nil, fmt.Errorf("%d sessions: %w", s.maxSize, ErrStoreFull)
	}
	// A Source is not safe for concurrent use; each session seeds its own.
	opts := s.opts
	opts.Source = nil
	sess := NewSession(doc, opts)
	sess.Filename = filename
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Delete removes a session. It reports whether one existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes expired sessions and returns how many were evicted.
// Session timestamps are read without the store lock held.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	candidates := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.Unlock()

	now := time.Now()
	var expired []*Session
	for _, sess := range candidates {
		if now.Sub(sess.UpdatedAt()) > s.ttl {
			expired = append(expired, sess)
		}
	}
	if len(expired) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range expired {
		// Skip sessions deleted or replaced since the scan.
		if s.sessions[sess.ID] == sess {
			delete(s.sessions, sess.ID)
			n++
		}
	}
	if n > 0 {
		s.log.Info("evicted idle sessions", "count", n, "remaining", len(s.sessions))
	}
	return n
}

// Start runs Cleanup every interval until ctx is cancelled.
func (s *Store) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}
