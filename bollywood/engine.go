package bollywood

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/slog"
)

// Engine manages the lifecycle and message dispatching for actors.
type Engine struct {
	pidCounter uint64
	reqCounter uint64
	actors     map[string]*process
	mu         sync.RWMutex // Protects the actors map
	stopping   atomic.Bool  // Indicates if the engine is shutting down
	log        slog.Logger
}

// NewEngine creates a new actor engine. A nil logger discards output.
func NewEngine(log slog.Logger) *Engine {
	if log == nil {
		log = slog.Disabled
	}
	return &Engine{
		actors: make(map[string]*process),
		log:    log,
	}
}

// nextPID generates a unique process ID.
func (e *Engine) nextPID() *PID {
	id := atomic.AddUint64(&e.pidCounter, 1)
	return &PID{ID: fmt.Sprintf("actor-%d", id)}
}

// Spawn creates and starts a new actor based on the provided Props.
// It returns nil when the engine is shutting down.
func (e *Engine) Spawn(props *Props) *PID {
	if e.stopping.Load() {
		e.log.Warnf("Engine is stopping, cannot spawn new actors")
		return nil
	}

	pid := e.nextPID()
	proc := newProcess(e, pid, props)

	e.mu.Lock()
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	go proc.run()

	return pid
}

func (e *Engine) lookup(pid *PID) (*process, bool) {
	if pid == nil {
		return nil, false
	}
	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()
	return proc, ok
}

// Send delivers a message to the actor identified by the PID.
// sender can be nil if the message originates from outside the actor system.
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	if e.stopping.Load() && !isSystemMessage(message) {
		return
	}
	if proc, ok := e.lookup(pid); ok {
		proc.sendMessage(&messageEnvelope{Sender: sender, Message: message})
	} else {
		e.log.Tracef("Actor %s not found, dropping %T", pid, message)
	}
}

// Ask sends a message and blocks until the actor replies through
// Context.Reply or the timeout elapses.
func (e *Engine) Ask(pid *PID, message interface{}, timeout time.Duration) (interface{}, error) {
	proc, ok := e.lookup(pid)
	if !ok {
		return nil, fmt.Errorf("ask %s: %w", pid, ErrActorNotFound)
	}
	reqID := fmt.Sprintf("req-%d", atomic.AddUint64(&e.reqCounter, 1))
	replyCh := make(chan interface{}, 1)
	if !proc.sendMessage(&messageEnvelope{Message: message, RequestID: reqID, replyCh: replyCh}) {
		return nil, fmt.Errorf("ask %s: %w", pid, ErrMailboxFull)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case reply := <-replyCh:
		if err, isErr := reply.(error); isErr {
			return nil, err
		}
		return reply, nil
	case <-timer.C:
		return nil, fmt.Errorf("ask %s (%T): %w", pid, message, ErrTimeout)
	}
}

// Stop requests an actor to stop processing messages and shut down.
// The actor receives Stopping, then Stopped once its loop exits.
func (e *Engine) Stop(pid *PID) {
	if proc, ok := e.lookup(pid); ok {
		proc.requestStop()
	}
}

// IsRunning reports whether the actor is still registered.
func (e *Engine) IsRunning(pid *PID) bool {
	_, ok := e.lookup(pid)
	return ok
}

// remove removes an actor process from the engine's tracking.
func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()
}

// Shutdown stops all actors and waits for them to terminate gracefully.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		e.log.Debugf("Engine already shutting down")
		return
	}

	e.mu.RLock()
	procs := make([]*process, 0, len(e.actors))
	for _, proc := range e.actors {
		procs = append(procs, proc)
	}
	e.mu.RUnlock()

	e.log.Infof("Engine shutdown: stopping %d actors", len(procs))
	for _, proc := range procs {
		proc.requestStop()
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		e.mu.RLock()
		remaining := len(e.actors)
		e.mu.RUnlock()
		if remaining == 0 {
			e.log.Infof("Engine shutdown complete")
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	e.mu.Lock()
	if n := len(e.actors); n > 0 {
		e.log.Warnf("Engine shutdown timeout: %d actors did not stop gracefully", n)
		e.actors = make(map[string]*process)
	}
	e.mu.Unlock()
}
