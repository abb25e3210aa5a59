package sessionstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/shopfront/client/internal/domain/session"
)

// Store owns the persisted session record: the single piece of durable
// client-side state with a defined lifecycle. It keeps the in-memory session
// and the on-disk record consistent; writes go through a temp file + rename
// so a concurrent reader never observes a partial record.
//
// Dependents receive the store by injection and may subscribe to lifecycle
// changes via Watch. There is no ambient global session.
type Store struct {
	path string
	log  *zap.Logger

	mu       sync.RWMutex
	current  *session.Session
	restored bool
	watchers []func(*session.Session)
}

// New creates a session store persisting to the given file path.
func New(path string, log *zap.Logger) *Store {
	return &Store{path: path, log: log}
}

// Restore reconstructs the session from durable storage. It performs no
// network call and never fails: a missing, unreadable or expired record
// simply yields the anonymous state. Watchers are not notified; Restore runs
// before dependents mount.
func (s *Store) Restore() *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restored = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("session record unreadable, starting anonymous", zap.Error(err))
		}
		return nil
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.log.Warn("session record corrupt, starting anonymous", zap.Error(err))
		return nil
	}

	// Reject a record whose token has expired rather than restoring a
	// session the server will refuse anyway.
	if _, err := session.DecodeToken(sess.Token); err != nil {
		s.log.Info("stored session no longer valid", zap.Error(err))
		return nil
	}

	s.current = &sess
	s.log.Debug("session restored",
		zap.Int64("user_id", sess.UserID),
		zap.String("role", string(sess.Role)))
	return s.snapshotLocked()
}

// Restored reports whether Restore has completed. The route guard renders a
// neutral state and issues no redirects until this is true.
func (s *Store) Restored() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restored
}

// Current returns a copy of the active session, or nil when anonymous.
func (s *Store) Current() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Token returns the bearer credential of the active session, if any.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Establish persists the given session, replacing any previous one.
// Re-establishing is an overwrite; durable storage is written before the
// in-memory state becomes visible. Watchers are notified with the new session.
func (s *Store) Establish(sess *session.Session) error {
	if sess == nil {
		return fmt.Errorf("sessionstore: cannot establish a nil session")
	}

	s.mu.Lock()
	if err := s.writeLocked(sess); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = sess
	s.restored = true
	snapshot := s.snapshotLocked()
	watchers := append([]func(*session.Session){}, s.watchers...)
	s.mu.Unlock()

	s.log.Info("session established",
		zap.Int64("user_id", sess.UserID),
		zap.String("role", string(sess.Role)))
	for _, fn := range watchers {
		fn(snapshot)
	}
	return nil
}

// Clear removes the session from memory and durable storage unconditionally.
// Safe to call when no session exists. Watchers are notified with nil.
func (s *Store) Clear() {
	s.mu.Lock()
	hadSession := s.current != nil
	s.current = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("failed to remove session record", zap.Error(err))
	}
	watchers := append([]func(*session.Session){}, s.watchers...)
	s.mu.Unlock()

	if hadSession {
		s.log.Info("session cleared")
	}
	for _, fn := range watchers {
		fn(nil)
	}
}

// Watch registers fn to be called after every Establish and Clear with the
// new session (nil for anonymous). This is the session-scoped invalidation
// hook: domain stores subscribe so their contents never outlive the session
// that produced them.
func (s *Store) Watch(fn func(*session.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// writeLocked persists the session record atomically. Callers hold s.mu.
func (s *Store) writeLocked(sess *session.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("sessionstore: encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("sessionstore: create storage dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("sessionstore: create temp record: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sessionstore: write session record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("sessionstore: close session record: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("sessionstore: replace session record: %w", err)
	}
	return nil
}

func (s *Store) snapshotLocked() *session.Session {
	if s.current == nil {
		return nil
	}
	copy := *s.current
	return &copy
}
