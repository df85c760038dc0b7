// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eokafor/go-pharmacy-backend/internal/domain"
)

// FindOrCreateUser returns the user with the given fingerprint, creating
// a bare record (id + name) on first contact. The second return value
// reports whether the row was created by this call. The insert ignores
// conflicts on the primary key so two racing first messages both resolve
// to one row.
func FindOrCreateUser(ctx context.Context, db *gorm.DB, userID, name string) (*domain.User, bool, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error
	if err == nil {
		return &u, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	u = domain.User{ID: userID, Name: name}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&u)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the insert race; re-read the winner's row.
		if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
			return nil, false, err
		}
		return &u, false, nil
	}
	return &u, true, nil
}

// GetUser fetches a user by fingerprint and name.
func GetUser(ctx context.Context, db *gorm.DB, userID, name string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser persists the mutable identity fields of an existing user.
// The fingerprint itself is immutable. Select lists the columns
// explicitly so zero values (e.g. clearing a field) still write.
func UpdateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	res := db.WithContext(ctx).Model(&domain.User{}).
		Where("user_id = ?", u.ID).
		Select("name", "age", "phone", "alt_phone", "email", "gender",
			"address", "landmark", "city", "state", "lga", "hmo_id").
		Updates(u)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
