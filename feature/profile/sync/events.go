package sync

import "profile-sync/core/eventbus"

// Topics for identity mutation events.
const (
	TopicUserCreated = "user.created"
	TopicUserUpdated = "user.updated"
)

// UserCreatedEvent announces that an identity record was committed. It
// carries only the id: consumers must re-read the row rather than trust a
// snapshot that may already be stale by delivery time.
type UserCreatedEvent struct {
	eventbus.BaseEvent
	UserID uint
}

// Topic returns the event topic.
func (UserCreatedEvent) Topic() string { return TopicUserCreated }

// NewUserCreatedEvent creates a creation event for the identity.
func NewUserCreatedEvent(userID uint) UserCreatedEvent {
	return UserCreatedEvent{BaseEvent: eventbus.NewBase(), UserID: userID}
}

// UserUpdatedEvent announces that an identity record was mutated, naming the
// fields that changed. Like the creation event it carries no field values.
type UserUpdatedEvent struct {
	eventbus.BaseEvent
	UserID        uint
	ChangedFields []string
}

// Topic returns the event topic.
func (UserUpdatedEvent) Topic() string { return TopicUserUpdated }

// NewUserUpdatedEvent creates an update event for the identity.
func NewUserUpdatedEvent(userID uint, changedFields []string) UserUpdatedEvent {
	return UserUpdatedEvent{BaseEvent: eventbus.NewBase(), UserID: userID, ChangedFields: changedFields}
}
