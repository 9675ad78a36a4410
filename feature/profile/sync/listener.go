package sync

import (
	"context"

	"profile-sync/core/eventbus"

	"go.uber.org/zap"
)

// Listener subscribes the engine to identity mutation events. It owns the
// failure boundary of the asynchronous path: errors are logged with full
// context and swallowed, never rethrown, so a sync failure stays invisible
// to the business operation that triggered it. The consistency auditor is
// the backstop that eventually observes and heals the resulting drift.
type Listener struct {
	engine *Engine
	logger *zap.Logger
}

// NewListener creates a listener for the engine.
func NewListener(engine *Engine, logger *zap.Logger) *Listener {
	return &Listener{engine: engine, logger: logger}
}

// Register subscribes the listener on the bus.
func (l *Listener) Register(bus *eventbus.Bus) {
	bus.Subscribe(TopicUserCreated, l.onUserCreated)
	bus.Subscribe(TopicUserUpdated, l.onUserUpdated)
}

func (l *Listener) onUserCreated(ctx context.Context, ev eventbus.Event) {
	e, ok := ev.(UserCreatedEvent)
	if !ok {
		l.logger.Warn("unexpected event payload on user.created",
			zap.String("event_id", ev.EventID()))
		return
	}

	if err := l.engine.HandleUserCreated(ctx, e.UserID); err != nil {
		l.logger.Error("profile creation sync failed",
			zap.Uint("user_id", e.UserID),
			zap.String("event_id", e.EventID()),
			zap.Error(err))
	}
}

func (l *Listener) onUserUpdated(ctx context.Context, ev eventbus.Event) {
	e, ok := ev.(UserUpdatedEvent)
	if !ok {
		l.logger.Warn("unexpected event payload on user.updated",
			zap.String("event_id", ev.EventID()))
		return
	}

	if err := l.engine.HandleUserUpdated(ctx, e.UserID, e.ChangedFields); err != nil {
		l.logger.Error("profile update sync failed",
			zap.Uint("user_id", e.UserID),
			zap.String("event_id", e.EventID()),
			zap.Strings("changed_fields", e.ChangedFields),
			zap.Error(err))
	}
}
