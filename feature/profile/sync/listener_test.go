package sync_test

import (
	"context"
	"testing"
	"time"

	"profile-sync/core/eventbus"
	"profile-sync/core/telemetry"
	"profile-sync/feature/profile/mirror"
	"profile-sync/feature/profile/models"
	"profile-sync/feature/profile/store/storetest"
	"profile-sync/feature/profile/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func TestListener_CreatedEventMaterializesProfile(t *testing.T) {
	mem := storetest.NewMemory()
	mem.SeedUser(models.User{ID: 1, Email: "a@quizhub.io", Grade: "10"})

	bus := eventbus.New(eventbus.Config{Workers: 2, QueueSize: 16}, zap.NewNop())
	defer bus.Close()
	engine := sync.NewEngine(mem.Users(), mem.Profiles(), mem.Accounts(), bus, zap.NewNop(), telemetry.Nop())
	sync.NewListener(engine, zap.NewNop()).Register(bus)

	bus.Publish(context.Background(), sync.NewUserCreatedEvent(1))

	waitFor(t, func() bool { return mem.ProfileCount() == 1 })
	p, _ := mem.Profile(1)
	assert.Equal(t, "a@quizhub.io", p.Email)
}

func TestListener_UpdatedEventAppliesChangedFields(t *testing.T) {
	mem := storetest.NewMemory()
	mem.SeedUser(models.User{ID: 2, Email: "b@quizhub.io", Goal: "medicine"})
	mem.SeedProfile(models.UserProfile{UserID: 2, Email: "b@quizhub.io", Goal: "engineering"})

	bus := eventbus.New(eventbus.Config{Workers: 2, QueueSize: 16}, zap.NewNop())
	defer bus.Close()
	engine := sync.NewEngine(mem.Users(), mem.Profiles(), mem.Accounts(), bus, zap.NewNop(), telemetry.Nop())
	sync.NewListener(engine, zap.NewNop()).Register(bus)

	bus.Publish(context.Background(), sync.NewUserUpdatedEvent(2, []string{mirror.FieldGoal}))

	waitFor(t, func() bool {
		p, ok := mem.Profile(2)
		return ok && p.Goal == "medicine"
	})
}

func TestListener_SwallowsEngineFailures(t *testing.T) {
	mem := storetest.NewMemory()

	bus := eventbus.New(eventbus.Config{Workers: 1, QueueSize: 16}, zap.NewNop())
	engine := sync.NewEngine(mem.Users(), mem.Profiles(), mem.Accounts(), bus, zap.NewNop(), telemetry.Nop())
	sync.NewListener(engine, zap.NewNop()).Register(bus)

	// No such user: the failure is logged, the worker keeps going.
	bus.Publish(context.Background(), sync.NewUserCreatedEvent(404))

	mem.SeedUser(models.User{ID: 5, Email: "ok@quizhub.io"})
	bus.Publish(context.Background(), sync.NewUserCreatedEvent(5))

	waitFor(t, func() bool { return mem.ProfileCount() == 1 })
	bus.Close()
	require.Equal(t, 1, mem.ProfileCount())
}
