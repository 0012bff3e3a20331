// File: bollywood/process.go
package bollywood

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

const defaultMailboxSize = 1024

// process represents the running instance of an actor, including its state and mailbox.
type process struct {
	engine   *Engine
	pid      *PID
	actor    Actor
	mailbox  chan *messageEnvelope
	props    *Props
	stopCh   chan struct{} // Closed to stop the run loop
	stopOnce sync.Once
	stopped  atomic.Bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, props.mailboxSize),
		stopCh:  make(chan struct{}),
	}
}

// sendMessage enqueues without blocking. It reports false when the message
// was dropped because the actor is stopped or its mailbox is full.
func (p *process) sendMessage(envelope *messageEnvelope) bool {
	if p.stopped.Load() {
		return false
	}
	select {
	case p.mailbox <- envelope:
		return true
	default:
		p.engine.log.Warnf("Actor %s mailbox full, dropping message type %T", p.pid, envelope.Message)
		return false
	}
}

func (p *process) requestStop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// run is the main loop for the actor process.
func (p *process) run() {
	defer func() {
		if r := recover(); r != nil {
			p.engine.log.Errorf("Actor %s panicked: %v\n%s", p.pid, r, debug.Stack())
		}
		p.stopped.Store(true)
		if p.actor != nil {
			p.invokeReceive(&messageEnvelope{Message: Stopped{}})
		}
		p.engine.remove(p.pid)
	}()

	p.actor = p.props.Produce()
	if p.actor == nil {
		panic(fmt.Sprintf("Actor %s producer returned nil actor", p.pid))
	}
	p.invokeReceive(&messageEnvelope{Message: Started{}})

	for {
		select {
		case <-p.stopCh:
			p.stopped.Store(true)
			p.invokeReceive(&messageEnvelope{Message: Stopping{}})
			p.drainAsks()
			return
		case envelope := <-p.mailbox:
			// A stop request wins over queued user messages.
			select {
			case <-p.stopCh:
				p.stopped.Store(true)
				p.invokeReceive(&messageEnvelope{Message: Stopping{}})
				p.drainAsks()
				return
			default:
			}
			p.invokeReceive(envelope)
		}
	}
}

// drainAsks fails pending Ask requests so callers do not wait for the timeout.
func (p *process) drainAsks() {
	for {
		select {
		case envelope := <-p.mailbox:
			if envelope.replyCh != nil {
				envelope.replyCh <- fmt.Errorf("ask %s: %w", p.pid, ErrActorNotFound)
			}
		default:
			return
		}
	}
}

// invokeReceive calls the actor's Receive method, recovering from panics so
// one bad message does not kill the actor.
func (p *process) invokeReceive(envelope *messageEnvelope) {
	ctx := &context{
		engine:   p.engine,
		self:     p.pid,
		envelope: envelope,
	}
	defer func() {
		if r := recover(); r != nil {
			p.engine.log.Errorf("Actor %s panicked during Receive(%T): %v\n%s", p.pid, envelope.Message, r, debug.Stack())
			ctx.Reply(fmt.Errorf("actor %s panicked: %v", p.pid, r))
		}
	}()
	p.actor.Receive(ctx)
}
