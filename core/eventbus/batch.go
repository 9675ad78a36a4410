package eventbus

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Batch buffers events so they can be published only after the surrounding
// transaction commits. A subscriber therefore always observes committed rows
// when it re-reads the database.
type Batch struct {
	bus *Bus

	mu     sync.Mutex
	events []Event
}

// NewBatch creates an empty batch bound to the bus.
func (b *Bus) NewBatch() *Batch {
	return &Batch{bus: b}
}

// Publish buffers the event. Nothing is delivered until Flush.
func (ba *Batch) Publish(ev Event) {
	ba.mu.Lock()
	ba.events = append(ba.events, ev)
	ba.mu.Unlock()
}

// Flush publishes every buffered event and empties the batch.
func (ba *Batch) Flush(ctx context.Context) {
	ba.mu.Lock()
	events := ba.events
	ba.events = nil
	ba.mu.Unlock()

	for _, ev := range events {
		ba.bus.Publish(ctx, ev)
	}
}

// Discard drops the buffered events without publishing them.
func (ba *Batch) Discard() {
	ba.mu.Lock()
	ba.events = nil
	ba.mu.Unlock()
}

// RunInTransaction executes fn inside a database transaction. Events the
// callback publishes through the batch are delivered only if the transaction
// commits; on error they are discarded.
func RunInTransaction(ctx context.Context, db *gorm.DB, bus *Bus, fn func(tx *gorm.DB, batch *Batch) error) error {
	batch := bus.NewBatch()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, batch)
	})
	if err != nil {
		batch.Discard()
		return err
	}

	batch.Flush(ctx)
	return nil
}
