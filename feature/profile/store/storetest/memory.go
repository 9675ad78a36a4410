// Package storetest provides an in-memory store implementation for tests
// that need deterministic concurrency behavior and write counting, which a
// real database cannot offer.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"profile-sync/feature/profile/models"
	"profile-sync/feature/profile/store"

	"gorm.io/gorm"
)

// Memory is a mutex-guarded in-memory backing store. Views over it
// implement the store interfaces; all views share the same data so tests
// exercise the same rows through every interface.
type Memory struct {
	mu       sync.Mutex
	users    map[uint]models.User
	profiles map[uint]models.UserProfile
	accounts []models.OAuthAccount

	// Write counters, usable as save spies.
	UserSaves      int
	ProfileCreates int
	ProfileSaves   int

	// Injectable failures.
	FailProfileSave error
	FailUserFind    error
}

// NewMemory creates an empty backing store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uint]models.User),
		profiles: make(map[uint]models.UserProfile),
	}
}

// SeedUser inserts or replaces an identity record.
func (m *Memory) SeedUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now()
	}
	m.users[u.ID] = u
}

// SeedProfile inserts or replaces a profile row.
func (m *Memory) SeedProfile(p models.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
}

// SeedAccount inserts an auxiliary OAuth account.
func (m *Memory) SeedAccount(a models.OAuthAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = append(m.accounts, a)
}

// DeleteUser removes an identity record out of band, manufacturing orphans.
func (m *Memory) DeleteUser(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

// Profile returns a copy of the profile row, if present.
func (m *Memory) Profile(userID uint) (models.UserProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	return p, ok
}

// User returns a copy of the identity record, if present.
func (m *Memory) User(id uint) (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	return u, ok
}

// ProfileCount returns the number of profile rows.
func (m *Memory) ProfileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.profiles)
}

// Users returns a store.UserStore view.
func (m *Memory) Users() store.UserStore { return userView{m} }

// Profiles returns a store.ProfileStore view.
func (m *Memory) Profiles() store.ProfileStore { return profileView{m} }

// Accounts returns a store.OAuthAccountStore view.
func (m *Memory) Accounts() store.OAuthAccountStore { return accountView{m} }

type userView struct{ m *Memory }

func (v userView) Find(ctx context.Context, id uint) (*models.User, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if v.m.FailUserFind != nil {
		return nil, v.m.FailUserFind
	}
	u, ok := v.m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrUserNotFound)
	}
	return &u, nil
}

func (v userView) Save(ctx context.Context, user *models.User) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	user.UpdatedAt = time.Now()
	v.m.users[user.ID] = *user
	v.m.UserSaves++
	return nil
}

func (v userView) FindRecentlyUpdated(ctx context.Context, since time.Time, limit int) ([]models.User, error) {
	users, err := v.all()
	if err != nil {
		return nil, err
	}
	var out []models.User
	for _, u := range users {
		if !u.UpdatedAt.Before(since) {
			out = append(out, u)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (v userView) ForEachBatch(ctx context.Context, batchSize int, fn func(users []models.User) error) error {
	users, err := v.all()
	if err != nil {
		return err
	}
	for start := 0; start < len(users); start += batchSize {
		end := start + batchSize
		if end > len(users) {
			end = len(users)
		}
		if err := fn(users[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (v userView) Count(ctx context.Context) (int64, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return int64(len(v.m.users)), nil
}

func (v userView) all() ([]models.User, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	users := make([]models.User, 0, len(v.m.users))
	for _, u := range v.m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type profileView struct{ m *Memory }

func (v profileView) Exists(ctx context.Context, userID uint) (bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	_, ok := v.m.profiles[userID]
	return ok, nil
}

func (v profileView) Find(ctx context.Context, userID uint) (*models.UserProfile, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	p, ok := v.m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %d: %w", userID, store.ErrProfileNotFound)
	}
	return &p, nil
}

func (v profileView) Create(ctx context.Context, profile *models.UserProfile) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if _, ok := v.m.profiles[profile.UserID]; ok {
		return gorm.ErrDuplicatedKey
	}
	v.m.profiles[profile.UserID] = *profile
	v.m.ProfileCreates++
	return nil
}

func (v profileView) Save(ctx context.Context, profile *models.UserProfile) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if v.m.FailProfileSave != nil {
		return v.m.FailProfileSave
	}
	v.m.profiles[profile.UserID] = *profile
	v.m.ProfileSaves++
	return nil
}

func (v profileView) Delete(ctx context.Context, userID uint) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	delete(v.m.profiles, userID)
	return nil
}

func (v profileView) OrphanIDs(ctx context.Context) ([]uint, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	var ids []uint
	for id := range v.m.profiles {
		if _, ok := v.m.users[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type accountView struct{ m *Memory }

func (v accountView) FindPrimary(ctx context.Context, userID uint) (*models.OAuthAccount, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for _, a := range v.m.accounts {
		if a.UserID == userID && a.IsPrimary {
			account := a
			return &account, nil
		}
	}
	return nil, nil
}
