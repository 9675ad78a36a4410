package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"profile-sync/feature/profile/models"

	"gorm.io/gorm"
)

type gormUserStore struct {
	db *gorm.DB
}

// NewUserStore returns the GORM-backed UserStore.
func NewUserStore(db *gorm.DB) UserStore {
	return &gormUserStore{db: db}
}

func (s *gormUserStore) Find(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &user, nil
}

func (s *gormUserStore) Save(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user %d: %w", user.ID, err)
	}
	return nil
}

func (s *gormUserStore) FindRecentlyUpdated(ctx context.Context, since time.Time, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("updated_at >= ?", since).
		Order("updated_at DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recently updated users: %w", err)
	}
	return users, nil
}

func (s *gormUserStore) ForEachBatch(ctx context.Context, batchSize int, fn func(users []models.User) error) error {
	var users []models.User
	result := s.db.WithContext(ctx).FindInBatches(&users, batchSize, func(tx *gorm.DB, batch int) error {
		return fn(users)
	})
	if result.Error != nil {
		return fmt.Errorf("failed to scan users: %w", result.Error)
	}
	return nil
}

func (s *gormUserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

type gormProfileStore struct {
	db *gorm.DB
}

// NewProfileStore returns the GORM-backed ProfileStore.
func NewProfileStore(db *gorm.DB) ProfileStore {
	return &gormProfileStore{db: db}
}

func (s *gormProfileStore) Exists(ctx context.Context, userID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check profile %d: %w", userID, err)
	}
	return n > 0, nil
}

func (s *gormProfileStore) Find(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("profile %d: %w", userID, ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %d: %w", userID, err)
	}
	return &profile, nil
}

func (s *gormProfileStore) Create(ctx context.Context, profile *models.UserProfile) error {
	// Duplicate-key errors pass through untranslated wrapping so callers can
	// match gorm.ErrDuplicatedKey and resolve the creation race.
	return s.db.WithContext(ctx).Create(profile).Error
}

func (s *gormProfileStore) Save(ctx context.Context, profile *models.UserProfile) error {
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("failed to save profile %d: %w", profile.UserID, err)
	}
	return nil
}

func (s *gormProfileStore) Delete(ctx context.Context, userID uint) error {
	if err := s.db.WithContext(ctx).Delete(&models.UserProfile{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to delete profile %d: %w", userID, err)
	}
	return nil
}

func (s *gormProfileStore) OrphanIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Table("user_profiles").
		Select("user_profiles.user_id").
		Joins("LEFT JOIN users ON users.id = user_profiles.user_id").
		Where("users.id IS NULL").
		Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find orphan profiles: %w", err)
	}
	return ids, nil
}

type gormOAuthAccountStore struct {
	db *gorm.DB
}

// NewOAuthAccountStore returns the GORM-backed OAuthAccountStore.
func NewOAuthAccountStore(db *gorm.DB) OAuthAccountStore {
	return &gormOAuthAccountStore{db: db}
}

func (s *gormOAuthAccountStore) FindPrimary(ctx context.Context, userID uint) (*models.OAuthAccount, error) {
	var account models.OAuthAccount
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_primary = ?", userID, true).
		Order("id").
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load primary oauth account for user %d: %w", userID, err)
	}
	return &account, nil
}
