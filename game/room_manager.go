// File: game/room_manager.go
package game

import (
	"sort"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/lguibr/fujipong/bollywood"
	"github.com/lguibr/fujipong/utils"
)

// RoomManagerParams are the collaborators shared by every room.
type RoomManagerParams struct {
	Submitter Submitter
	Logger    slog.Logger
	Clock     utils.Clock  // Optional, for deterministic tests
	Random    utils.Random // Optional; each room seeds its own source otherwise
}

// RoomManagerActor manages the GameActor instances (rooms), one per client.
type RoomManagerActor struct {
	engine  *bollywood.Engine
	cfg     utils.Config
	params  RoomManagerParams
	log     slog.Logger
	rooms   map[string]*RoomInfo // Keyed by room ID
	selfPID *bollywood.PID
}

// NewRoomManagerProducer creates a producer for the RoomManagerActor.
func NewRoomManagerProducer(engine *bollywood.Engine, cfg utils.Config, params RoomManagerParams) bollywood.Producer {
	return func() bollywood.Actor {
		return &RoomManagerActor{
			engine: engine,
			cfg:    cfg,
			params: params,
			log:    utils.OrDisabled(params.Logger),
			rooms:  make(map[string]*RoomInfo),
		}
	}
}

// Receive Method
func (a *RoomManagerActor) Receive(ctx bollywood.Context) {
	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		a.log.Infof("RoomManagerActor %s: started (max %d rooms)", a.selfPID, a.cfg.MaxRooms)

	case CreateRoomRequest:
		ctx.Reply(a.handleCreateRoom(msg))

	case CloseRoom:
		a.closeRoom(msg.RoomID, "closed")

	case RoomEmpty:
		a.closeRoom(msg.RoomID, "empty")

	case GetRoomListRequest:
		ctx.Reply(a.roomList())

	case bollywood.Stopping:
		a.log.Infof("RoomManagerActor %s: stopping %d rooms", a.selfPID, len(a.rooms))
		for id, room := range a.rooms {
			a.engine.Stop(room.PID)
			delete(a.rooms, id)
		}

	case bollywood.Stopped:

	default:
		a.log.Warnf("RoomManagerActor %s: unknown message type %T", a.selfPID, msg)
		ctx.Reply(CreateRoomResponse{Err: ErrInvalidCommand})
	}
}

// Handler Methods

func (a *RoomManagerActor) handleCreateRoom(req CreateRoomRequest) CreateRoomResponse {
	if a.cfg.MaxRooms > 0 && len(a.rooms) >= a.cfg.MaxRooms {
		a.log.Warnf("RoomManagerActor %s: max rooms (%d) reached", a.selfPID, a.cfg.MaxRooms)
		return CreateRoomResponse{Err: ErrMaxRooms}
	}

	roomID := uuid.NewString()
	props := bollywood.NewProps(NewGameActorProducer(a.engine, a.cfg, GameActorParams{
		RoomID:     roomID,
		ManagerPID: a.selfPID,
		NameStore:  req.NameStore,
		Submitter:  a.params.Submitter,
		Clock:      a.params.Clock,
		Random:     a.params.Random,
		Logger:     a.log,
	}))
	pid := a.engine.Spawn(props)
	if pid == nil {
		return CreateRoomResponse{Err: ErrSessionClosed}
	}
	a.rooms[roomID] = &RoomInfo{ID: roomID, PID: pid, CreatedAt: time.Now()}
	if req.Subscriber != nil {
		a.engine.Send(pid, AddClient{Subscriber: req.Subscriber}, a.selfPID)
	}
	a.log.Debugf("RoomManagerActor %s: room %s created as %s", a.selfPID, roomID, pid)
	return CreateRoomResponse{RoomID: roomID, PID: pid}
}

func (a *RoomManagerActor) closeRoom(roomID, reason string) {
	room, ok := a.rooms[roomID]
	if !ok {
		return
	}
	delete(a.rooms, roomID)
	a.log.Debugf("RoomManagerActor %s: room %s %s, stopping %s", a.selfPID, roomID, reason, room.PID)
	a.engine.Stop(room.PID)
}

func (a *RoomManagerActor) roomList() RoomListResponse {
	rooms := make([]RoomInfo, 0, len(a.rooms))
	for _, room := range a.rooms {
		rooms = append(rooms, *room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return RoomListResponse{Rooms: rooms}
}
