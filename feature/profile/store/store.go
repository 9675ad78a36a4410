package store

import (
	"context"
	"errors"
	"time"

	"profile-sync/feature/profile/models"
)

var (
	// ErrUserNotFound is returned when no identity record exists for an id.
	ErrUserNotFound = errors.New("user not found")
	// ErrProfileNotFound is returned when no profile row exists for an id.
	ErrProfileNotFound = errors.New("profile not found")
)

// UserStore is the persistence interface for identity records.
type UserStore interface {
	// Find returns the identity record, or ErrUserNotFound.
	Find(ctx context.Context, id uint) (*models.User, error)
	// Save persists the identity record.
	Save(ctx context.Context, user *models.User) error
	// FindRecentlyUpdated returns up to limit identities mutated since the
	// given time, most recent first.
	FindRecentlyUpdated(ctx context.Context, since time.Time, limit int) ([]models.User, error)
	// ForEachBatch streams the whole identity population in batches.
	ForEachBatch(ctx context.Context, batchSize int, fn func(users []models.User) error) error
	// Count returns the identity population size.
	Count(ctx context.Context) (int64, error)
}

// ProfileStore is the persistence interface for profile rows.
type ProfileStore interface {
	// Exists reports whether a profile row exists for the id.
	Exists(ctx context.Context, userID uint) (bool, error)
	// Find returns the profile row, or ErrProfileNotFound.
	Find(ctx context.Context, userID uint) (*models.UserProfile, error)
	// Create inserts a new profile row. A concurrent creator surfaces as
	// gorm.ErrDuplicatedKey.
	Create(ctx context.Context, profile *models.UserProfile) error
	// Save persists an existing profile row.
	Save(ctx context.Context, profile *models.UserProfile) error
	// Delete removes the profile row. Deleting a missing row is not an error.
	Delete(ctx context.Context, userID uint) error
	// OrphanIDs returns the user ids of profile rows whose identity record
	// no longer exists.
	OrphanIDs(ctx context.Context) ([]uint, error)
}

// OAuthAccountStore is the read interface for auxiliary provider accounts.
type OAuthAccountStore interface {
	// FindPrimary returns the primary account for the identity, or nil when
	// none exists.
	FindPrimary(ctx context.Context, userID uint) (*models.OAuthAccount, error)
}
