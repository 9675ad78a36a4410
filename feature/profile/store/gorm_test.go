package store_test

import (
	"context"
	"testing"
	"time"

	"profile-sync/core/database"
	"profile-sync/feature/profile/models"
	"profile-sync/feature/profile/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserProfile{}, &models.OAuthAccount{}))
	return db
}

func TestUserStore(t *testing.T) {
	db := setupDB(t)
	users := store.NewUserStore(db)
	ctx := context.Background()

	t.Run("FindMissing", func(t *testing.T) {
		_, err := users.Find(ctx, 42)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("SaveAndFind", func(t *testing.T) {
		u := &models.User{ID: 1, Email: "a@quizhub.io", Grade: "10"}
		require.NoError(t, users.Save(ctx, u))

		got, err := users.Find(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "a@quizhub.io", got.Email)
		assert.Equal(t, "10", got.Grade)
	})

	t.Run("Count", func(t *testing.T) {
		n, err := users.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("FindRecentlyUpdated", func(t *testing.T) {
		require.NoError(t, users.Save(ctx, &models.User{ID: 2, Email: "b@quizhub.io"}))

		recent, err := users.FindRecentlyUpdated(ctx, time.Now().Add(-time.Hour), 10)
		require.NoError(t, err)
		assert.Len(t, recent, 2)

		none, err := users.FindRecentlyUpdated(ctx, time.Now().Add(time.Hour), 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("ForEachBatch", func(t *testing.T) {
		var seen []uint
		err := users.ForEachBatch(ctx, 1, func(batch []models.User) error {
			for _, u := range batch {
				seen = append(seen, u.ID)
			}
			return nil
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{1, 2}, seen)
	})
}

func TestProfileStore(t *testing.T) {
	db := setupDB(t)
	profiles := store.NewProfileStore(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.User{ID: 1, Email: "a@quizhub.io"}).Error)

	t.Run("ExistsAndFindMissing", func(t *testing.T) {
		exists, err := profiles.Exists(ctx, 1)
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = profiles.Find(ctx, 1)
		assert.ErrorIs(t, err, store.ErrProfileNotFound)
	})

	t.Run("CreateAndDuplicate", func(t *testing.T) {
		require.NoError(t, profiles.Create(ctx, &models.UserProfile{UserID: 1, Email: "a@quizhub.io"}))

		err := profiles.Create(ctx, &models.UserProfile{UserID: 1, Email: "other@quizhub.io"})
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

		exists, err := profiles.Exists(ctx, 1)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Save", func(t *testing.T) {
		p, err := profiles.Find(ctx, 1)
		require.NoError(t, err)

		p.Grade = "12"
		require.NoError(t, profiles.Save(ctx, p))

		got, err := profiles.Find(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "12", got.Grade)
	})

	t.Run("OrphanIDs", func(t *testing.T) {
		// Profile whose identity record was deleted out of band.
		require.NoError(t, profiles.Create(ctx, &models.UserProfile{UserID: 99, Email: "ghost@quizhub.io"}))

		orphans, err := profiles.OrphanIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uint{99}, orphans)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, profiles.Delete(ctx, 99))

		_, err := profiles.Find(ctx, 99)
		assert.ErrorIs(t, err, store.ErrProfileNotFound)

		// Deleting a missing row is not an error.
		assert.NoError(t, profiles.Delete(ctx, 99))
	})
}

func TestOAuthAccountStore(t *testing.T) {
	db := setupDB(t)
	accounts := store.NewOAuthAccountStore(db)
	ctx := context.Background()

	t.Run("NoneIsNil", func(t *testing.T) {
		account, err := accounts.FindPrimary(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("PrimaryWins", func(t *testing.T) {
		require.NoError(t, db.Create(&models.OAuthAccount{UserID: 1, Provider: "google", DisplayName: "Secondary"}).Error)
		require.NoError(t, db.Create(&models.OAuthAccount{UserID: 1, Provider: "google", DisplayName: "Primary", IsPrimary: true}).Error)

		account, err := accounts.FindPrimary(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "Primary", account.DisplayName)
	})
}
