// File: game/broadcaster_actor.go
package game

import (
	"github.com/decred/slog"

	"github.com/lguibr/fujipong/bollywood"
	"github.com/lguibr/fujipong/utils"
)

// BroadcasterActor fans snapshots out to the subscribers of one room, so a
// slow connection never stalls the simulation.
type BroadcasterActor struct {
	clients      map[Subscriber]bool
	selfPID      *bollywood.PID
	gameActorPID *bollywood.PID // Notified when a subscriber fails
	log          slog.Logger
}

// NewBroadcasterProducer creates a producer for BroadcasterActor.
func NewBroadcasterProducer(gameActorPID *bollywood.PID, log slog.Logger) bollywood.Producer {
	return func() bollywood.Actor {
		return &BroadcasterActor{
			clients:      make(map[Subscriber]bool),
			gameActorPID: gameActorPID,
			log:          utils.OrDisabled(log),
		}
	}
}

// Receive handles messages for the BroadcasterActor.
func (a *BroadcasterActor) Receive(ctx bollywood.Context) {
	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		// nothing to do

	case AddClient:
		if msg.Subscriber != nil {
			a.clients[msg.Subscriber] = true
		}

	case RemoveClient:
		delete(a.clients, msg.Subscriber)

	case BroadcastSnapshot:
		a.broadcast(ctx, msg.Snapshot)

	case bollywood.Stopping:
		a.closeAll()

	case bollywood.Stopped:

	default:
		a.log.Warnf("BroadcasterActor %s: unknown message type %T", a.selfPID, msg)
	}
}

// broadcast sends the snapshot to every subscriber and drops the ones whose
// transport failed.
func (a *BroadcasterActor) broadcast(ctx bollywood.Context, snap Snapshot) {
	var failed []Subscriber
	for sub := range a.clients {
		if err := sub.Send(snap); err != nil {
			a.log.Debugf("BroadcasterActor %s: dropping subscriber: %v", a.selfPID, err)
			failed = append(failed, sub)
		}
	}
	for _, sub := range failed {
		delete(a.clients, sub)
		_ = sub.Close()
		if a.gameActorPID != nil {
			ctx.Engine().Send(a.gameActorPID, SubscriberGone{Subscriber: sub}, a.selfPID)
		}
	}
}

func (a *BroadcasterActor) closeAll() {
	if len(a.clients) > 0 {
		a.log.Debugf("BroadcasterActor %s: closing %d subscribers", a.selfPID, len(a.clients))
	}
	for sub := range a.clients {
		_ = sub.Close()
	}
	a.clients = make(map[Subscriber]bool)
}
