// Package messagequeue provides a minimal queue abstraction used to decouple
// best-effort work (push notification dispatch) from the request path.
package messagequeue

// MessageQueue defines the interface for queueing services.
type MessageQueue interface {
	// Publish enqueues one message on the named queue.
	Publish(queueName string, body []byte) error
	// Consume delivers queued messages to the handler until the connection
	// closes. It blocks the calling goroutine.
	Consume(queueName string, handler func(body []byte)) error
	Close() error
}
