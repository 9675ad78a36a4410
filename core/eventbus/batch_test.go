package eventbus_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"profile-sync/core/database"
	"profile-sync/core/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestRunInTransaction(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)").Error)

	bus := eventbus.New(eventbus.Config{Workers: 1, QueueSize: 8}, zap.NewNop())
	defer bus.Close()

	var delivered atomic.Int32
	bus.Subscribe("user.created", func(ctx context.Context, ev eventbus.Event) {
		// The committed row must be visible to the handler.
		var n int64
		if err := db.Table("users").Count(&n).Error; err == nil && n == 1 {
			delivered.Add(1)
		}
	})

	t.Run("FlushOnCommit", func(t *testing.T) {
		err := eventbus.RunInTransaction(context.Background(), db, bus, func(tx *gorm.DB, batch *eventbus.Batch) error {
			if err := tx.Exec("INSERT INTO users (id, email) VALUES (1, 'a@b.c')").Error; err != nil {
				return err
			}
			batch.Publish(commitEvent{eventbus.NewBase()})
			return nil
		})
		assert.NoError(t, err)
		assert.Eventually(t, func() bool { return delivered.Load() == 1 }, time.Second, 10*time.Millisecond)
	})

	t.Run("DiscardOnRollback", func(t *testing.T) {
		err := eventbus.RunInTransaction(context.Background(), db, bus, func(tx *gorm.DB, batch *eventbus.Batch) error {
			if err := tx.Exec("INSERT INTO users (id, email) VALUES (2, 'x@y.z')").Error; err != nil {
				return err
			}
			batch.Publish(commitEvent{eventbus.NewBase()})
			return errors.New("business failure")
		})
		assert.Error(t, err)

		var n int64
		assert.NoError(t, db.Table("users").Count(&n).Error)
		assert.Equal(t, int64(1), n)

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, int32(1), delivered.Load())
	})
}

type commitEvent struct {
	eventbus.BaseEvent
}

func (commitEvent) Topic() string { return "user.created" }
