package mocks

import (
	"context"
	"time"

	"profile-sync/feature/profile/models"

	"github.com/stretchr/testify/mock"
)

// UserStore is a mock implementation of store.UserStore
type UserStore struct {
	mock.Mock
}

func (m *UserStore) Find(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserStore) Save(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserStore) FindRecentlyUpdated(ctx context.Context, since time.Time, limit int) ([]models.User, error) {
	args := m.Called(ctx, since, limit)
	if users, ok := args.Get(0).([]models.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserStore) ForEachBatch(ctx context.Context, batchSize int, fn func(users []models.User) error) error {
	args := m.Called(ctx, batchSize, fn)
	return args.Error(0)
}

func (m *UserStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// ProfileStore is a mock implementation of store.ProfileStore
type ProfileStore struct {
	mock.Mock
}

func (m *ProfileStore) Exists(ctx context.Context, userID uint) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ProfileStore) Find(ctx context.Context, userID uint) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if p, ok := args.Get(0).(*models.UserProfile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProfileStore) Create(ctx context.Context, profile *models.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *ProfileStore) Save(ctx context.Context, profile *models.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *ProfileStore) Delete(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *ProfileStore) OrphanIDs(ctx context.Context) ([]uint, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]uint); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

// OAuthAccountStore is a mock implementation of store.OAuthAccountStore
type OAuthAccountStore struct {
	mock.Mock
}

func (m *OAuthAccountStore) FindPrimary(ctx context.Context, userID uint) (*models.OAuthAccount, error) {
	args := m.Called(ctx, userID)
	if a, ok := args.Get(0).(*models.OAuthAccount); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
