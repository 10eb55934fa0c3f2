package queue

// Option applies a configuration option to the in-memory queue.
type Option func(*InMemoryQueue)

// WithCapacity sets how many results the queue buffers before Enqueue
// starts rejecting. Non-positive values keep the default.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}
