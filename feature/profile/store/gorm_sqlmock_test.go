package store_test

import (
	"context"
	"testing"
	"time"

	"profile-sync/feature/profile/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing against the MySQL dialect.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestUserStore_FindRecentlyUpdated_Query(t *testing.T) {
	db, mock := setupMockDB(t)
	users := store.NewUserStore(db)

	since := time.Now().Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "email"}).
		AddRow(1, "a@quizhub.io").
		AddRow(2, "b@quizhub.io")

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE updated_at >= \\? ORDER BY updated_at DESC LIMIT \\?").
		WithArgs(since, 50).
		WillReturnRows(rows)

	got, err := users.FindRecentlyUpdated(context.Background(), since, 50)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileStore_OrphanIDs_Query(t *testing.T) {
	db, mock := setupMockDB(t)
	profiles := store.NewProfileStore(db)

	rows := sqlmock.NewRows([]string{"user_id"}).AddRow(7).AddRow(9)
	mock.ExpectQuery("SELECT user_profiles.user_id FROM `user_profiles` LEFT JOIN users ON users.id = user_profiles.user_id WHERE users.id IS NULL").
		WillReturnRows(rows)

	ids, err := profiles.OrphanIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{7, 9}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
