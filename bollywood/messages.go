package bollywood

import "errors"

// --- System Messages ---

// Started is sent to an actor after its goroutine has started.
type Started struct{}

// Stopping is sent to an actor to signal it should prepare to stop.
// No more user messages will be delivered after Stopping.
type Stopping struct{}

// Stopped is sent to an actor just before its goroutine exits.
// This is the final message an actor will receive.
type Stopped struct{}

// ErrTimeout is returned by Ask when no reply arrives in time.
var ErrTimeout = errors.New("bollywood: ask timed out")

// ErrActorNotFound is returned by Ask when the target is not running.
var ErrActorNotFound = errors.New("bollywood: actor not found")

// ErrMailboxFull is returned by Ask when the request could not be enqueued.
var ErrMailboxFull = errors.New("bollywood: mailbox full")

// messageEnvelope wraps a user message with sender information and, for
// Ask requests, the reply channel.
type messageEnvelope struct {
	Sender    *PID
	Message   interface{}
	RequestID string
	replyCh   chan interface{}
}

func isSystemMessage(msg interface{}) bool {
	switch msg.(type) {
	case Started, Stopping, Stopped:
		return true
	}
	return false
}
