package eventbus

// Config holds configuration for the event dispatch pool.
type Config struct {
	// Workers is the number of goroutines draining the dispatch queue.
	Workers int `mapstructure:"workers" default:"4"`
	// QueueSize is the capacity of the dispatch queue. When the queue is
	// full the publishing goroutine runs the handler itself instead of
	// dropping the event.
	QueueSize int `mapstructure:"queue_size" default:"256"`
}
