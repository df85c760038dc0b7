// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for chat
// sessions. The single-active-session invariant is upheld one level up,
// in services.SessionService, which serializes check-then-create per
// user; these functions are the primitive operations it composes.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eokafor/go-pharmacy-backend/internal/domain"
)

// LatestActiveSession returns the most recently started active session
// for the user, or gorm.ErrRecordNotFound.
func LatestActiveSession(ctx context.Context, db *gorm.DB, userID string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.SessionActive).
		Order("started_at DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSession fetches a session by id, scoped to its owner.
func GetSession(ctx context.Context, db *gorm.DB, sessionID, userID string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	err := db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSession inserts a new active session for the user.
func CreateSession(ctx context.Context, db *gorm.DB, userID string) (*domain.ChatSession, error) {
	s := &domain.ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    domain.SessionActive,
		StartedAt: time.Now().UTC(),
	}
	return s, db.WithContext(ctx).Create(s).Error
}

// EndSession marks an active session completed and stamps ended_at. The
// status predicate makes the transition a compare-and-swap: a session
// that is already completed is not touched and the call reports
// gorm.ErrRecordNotFound.
func EndSession(ctx context.Context, db *gorm.DB, sessionID string) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.ChatSession{}).
		Where("session_id = ? AND status = ?", sessionID, domain.SessionActive).
		Updates(map[string]any{
			"status":   domain.SessionCompleted,
			"ended_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
