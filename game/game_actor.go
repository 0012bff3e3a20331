// File: game/game_actor.go
package game

import (
	"time"

	"github.com/decred/slog"

	"github.com/lguibr/fujipong/bollywood"
	"github.com/lguibr/fujipong/utils"
)

// GameActorParams carries the per-room collaborators of a GameActor.
type GameActorParams struct {
	RoomID     string
	ManagerPID *bollywood.PID // Notified with RoomEmpty; may be nil
	NameStore  NameStore
	Submitter  Submitter
	Clock      utils.Clock
	Random     utils.Random
	Logger     slog.Logger
}

// GameActor owns one Session and confines it to the actor goroutine. It
// ticks the session at the configured frame rate, runs the countdown timer
// and hands every frame's snapshot to its BroadcasterActor.
type GameActor struct {
	cfg            utils.Config
	params         GameActorParams
	engine         *bollywood.Engine
	log            slog.Logger
	session        *Session
	selfPID        *bollywood.PID
	broadcasterPID *bollywood.PID

	stopFrameCh     chan struct{}
	stopCountdownCh chan struct{} // nil while no countdown timer runs
	countdownSeq    uint64
	subscribers     map[Subscriber]bool
	emptyReported   bool
}

// NewGameActorProducer creates a producer for the GameActor.
func NewGameActorProducer(engine *bollywood.Engine, cfg utils.Config, params GameActorParams) bollywood.Producer {
	return func() bollywood.Actor {
		log := utils.OrDisabled(params.Logger)
		opts := []SessionOption{
			WithLogger(log),
			WithNameStore(params.NameStore),
			WithSubmitter(params.Submitter),
		}
		if params.Clock != nil {
			opts = append(opts, WithClock(params.Clock))
		}
		if params.Random != nil {
			opts = append(opts, WithRandom(params.Random))
		}
		return &GameActor{
			cfg:         cfg,
			params:      params,
			engine:      engine,
			log:         log,
			session:     NewSession(cfg, opts...),
			subscribers: make(map[Subscriber]bool),
		}
	}
}

// Receive is the main message handler for the GameActor.
func (a *GameActor) Receive(ctx bollywood.Context) {
	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch m := ctx.Message().(type) {
	case bollywood.Started:
		a.handleStart()

	case GameTick:
		if err := a.session.Tick(); err != nil {
			a.log.Warnf("GameActor %s (room %s): %v", a.selfPID, a.params.RoomID, err)
		}
		a.syncCountdownTimer()
		a.broadcast()

	case CountdownTick:
		if m.Seq == a.session.CountdownSeq() && a.session.Phase() == PhaseCountdown {
			_ = a.session.AdvanceCountdown()
		}
		a.syncCountdownTimer()

	case ApplyCommand:
		err := a.session.Apply(m.Command)
		if err != nil {
			a.log.Debugf("GameActor %s: command %q rejected: %v", a.selfPID, m.Command.Type, err)
		}
		a.syncCountdownTimer()
		ctx.Reply(CommandResult{Err: err})

	case GetSnapshotRequest:
		ctx.Reply(a.snapshot())

	case AddClient:
		if m.Subscriber == nil || a.subscribers[m.Subscriber] {
			return
		}
		a.subscribers[m.Subscriber] = true
		a.emptyReported = false
		a.engine.Send(a.broadcasterPID, m, a.selfPID)

	case RemoveClient:
		a.dropSubscriber(m.Subscriber, true)

	case SubscriberGone:
		a.dropSubscriber(m.Subscriber, false)

	case bollywood.Stopping:
		a.log.Debugf("GameActor %s (room %s): stopping", a.selfPID, a.params.RoomID)
		a.stopFrameTicker()
		a.stopCountdownTimer()
		a.session.Close()
		if a.broadcasterPID != nil {
			a.engine.Stop(a.broadcasterPID)
		}

	case bollywood.Stopped:
		a.log.Debugf("GameActor %s (room %s): stopped", a.selfPID, a.params.RoomID)

	default:
		a.log.Warnf("GameActor %s: unknown message type %T", a.selfPID, m)
		ctx.Reply(CommandResult{Err: ErrInvalidCommand})
	}
}

func (a *GameActor) handleStart() {
	a.broadcasterPID = a.engine.Spawn(bollywood.NewProps(NewBroadcasterProducer(a.selfPID, a.log)))
	if a.broadcasterPID == nil {
		a.log.Errorf("GameActor %s failed to spawn BroadcasterActor, stopping", a.selfPID)
		a.engine.Stop(a.selfPID)
		return
	}
	a.stopFrameCh = make(chan struct{})
	go a.runTicker(a.cfg.FramePeriod(), a.stopFrameCh, func() interface{} { return GameTick{} })
	a.log.Infof("GameActor %s: room %s started", a.selfPID, a.params.RoomID)
}

// runTicker sends the produced message to the actor's own mailbox every
// period until stopCh closes.
func (a *GameActor) runTicker(period time.Duration, stopCh <-chan struct{}, msg func() interface{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			select {
			case <-stopCh:
				return
			default:
				a.engine.Send(a.selfPID, msg(), nil)
			}
		}
	}
}

func (a *GameActor) stopFrameTicker() {
	if a.stopFrameCh != nil {
		close(a.stopFrameCh)
		a.stopFrameCh = nil
	}
}

// syncCountdownTimer keeps exactly one countdown timer running while the
// session counts down, restarting it when a new countdown begins.
func (a *GameActor) syncCountdownTimer() {
	if a.session.Phase() != PhaseCountdown {
		a.stopCountdownTimer()
		return
	}
	seq := a.session.CountdownSeq()
	if a.stopCountdownCh != nil && a.countdownSeq == seq {
		return
	}
	a.stopCountdownTimer()
	a.countdownSeq = seq
	a.stopCountdownCh = make(chan struct{})
	go a.runTicker(a.cfg.CountdownPeriod, a.stopCountdownCh, func() interface{} { return CountdownTick{Seq: seq} })
}

func (a *GameActor) stopCountdownTimer() {
	if a.stopCountdownCh != nil {
		close(a.stopCountdownCh)
		a.stopCountdownCh = nil
	}
}

func (a *GameActor) snapshot() Snapshot {
	snap := a.session.Snapshot()
	snap.RoomID = a.params.RoomID
	return snap
}

func (a *GameActor) broadcast() {
	if a.broadcasterPID == nil || len(a.subscribers) == 0 {
		return
	}
	a.engine.Send(a.broadcasterPID, BroadcastSnapshot{Snapshot: a.snapshot()}, a.selfPID)
}

// dropSubscriber forgets a subscriber and reports the room empty once the
// last one is gone.
func (a *GameActor) dropSubscriber(sub Subscriber, forward bool) {
	if sub == nil || !a.subscribers[sub] {
		return
	}
	delete(a.subscribers, sub)
	if forward && a.broadcasterPID != nil {
		a.engine.Send(a.broadcasterPID, RemoveClient{Subscriber: sub}, a.selfPID)
	}
	if len(a.subscribers) == 0 && !a.emptyReported && a.params.ManagerPID != nil {
		a.emptyReported = true
		a.engine.Send(a.params.ManagerPID, RoomEmpty{RoomID: a.params.RoomID}, a.selfPID)
	}
}
