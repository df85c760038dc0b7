// Package services – SessionService
//
// SessionService owns user resolution and session lifecycle. The store
// itself cannot express "at most one active session per user" as a
// portable constraint, so this service serializes the check-then-create
// window with a per-user keyed lock: two simultaneous first messages
// from the same identity resolve to one user row and one session.
// Different users never contend.
package services

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/eokafor/go-pharmacy-backend/internal/domain"
	"github.com/eokafor/go-pharmacy-backend/internal/repo"
)

// SessionService resolves users and their active sessions.
type SessionService struct {
	DB *gorm.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{DB: db, locks: make(map[string]*sync.Mutex)}
}

// userLock returns the mutex serializing operations for one user id.
// Locks are never evicted; the map is bounded by the distinct-user
// population of one process lifetime.
func (s *SessionService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// ResolveUser derives the fingerprint for name and returns the matching
// user, creating a bare record on first contact. The bool reports
// whether this call created the user.
func (s *SessionService) ResolveUser(ctx context.Context, name string) (*domain.User, bool, error) {
	userID := domain.UserFingerprint(name)

	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	return repo.FindOrCreateUser(ctx, s.DB, userID, name)
}

// ActiveSession returns the session this turn should use: the requested
// session when it exists, is active, and belongs to the user; otherwise
// the most recently started active session; otherwise a new one.
// Check-then-create runs under the user's keyed lock.
func (s *SessionService) ActiveSession(ctx context.Context, userID, requestedID string) (*domain.ChatSession, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	if requestedID != "" {
		sess, err := repo.GetSession(ctx, s.DB, requestedID, userID)
		if err == nil && sess.Status == domain.SessionActive {
			return sess, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// Unknown or completed: fall through to the latest-or-new path.
	}

	sess, err := repo.LatestActiveSession(ctx, s.DB, userID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return repo.CreateSession(ctx, s.DB, userID)
}

// End completes a session. Ending an already-completed or unknown
// session returns ErrSessionNotFound.
func (s *SessionService) End(ctx context.Context, sessionID string) error {
	if err := repo.EndSession(ctx, s.DB, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}
