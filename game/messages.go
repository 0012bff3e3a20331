// File: game/messages.go
package game

import (
	"time"

	"github.com/lguibr/fujipong/bollywood"
)

// --- WebSocket Messages (Client -> Server) ---

// Command types accepted from clients.
const (
	CommandPlay      = "play"
	CommandMode      = "mode"
	CommandBack      = "back"
	CommandName      = "name"
	CommandStart     = "start"
	CommandPlayAgain = "playAgain"
	CommandKeyDown   = "keyDown"
	CommandKeyUp     = "keyUp"
)

// Command is one user action: a button press, a name edit or a key edge.
type Command struct {
	Type  string `json:"type" msgpack:"type"`
	Mode  string `json:"mode,omitempty" msgpack:"mode,omitempty"`   // "mode"
	Slot  int    `json:"slot,omitempty" msgpack:"slot,omitempty"`   // "name"
	Value string `json:"value,omitempty" msgpack:"value,omitempty"` // "name"
	Key   string `json:"key,omitempty" msgpack:"key,omitempty"`     // "keyDown", "keyUp"
}

// --- WebSocket Messages (Server -> Client) ---

// Snapshot is a read-only copy of a session, taken once per frame.
type Snapshot struct {
	MessageType     string        `json:"messageType" msgpack:"messageType"` // "snapshot"
	RoomID          string        `json:"roomId,omitempty" msgpack:"roomId,omitempty"`
	Frame           uint64        `json:"frame" msgpack:"frame"`
	Phase           GamePhase     `json:"phase" msgpack:"phase"`
	Mode            Mode          `json:"mode,omitempty" msgpack:"mode,omitempty"`
	Demo            bool          `json:"demo" msgpack:"demo"`
	Countdown       int           `json:"countdown" msgpack:"countdown"`
	Names           [2]string     `json:"names" msgpack:"names"`
	NameErrors      NameErrors    `json:"nameErrors" msgpack:"nameErrors"`
	Ball            Ball          `json:"ball" msgpack:"ball"`
	Paddles         [2]Paddle     `json:"paddles" msgpack:"paddles"`
	Score           [2]int        `json:"score" msgpack:"score"`
	SpeedMultiplier float64       `json:"speedMultiplier" msgpack:"speedMultiplier"`
	Winner          string        `json:"winner,omitempty" msgpack:"winner,omitempty"`
	Notification    *Notification `json:"notification,omitempty" msgpack:"notification,omitempty"`
}

// ErrorMessage reports a rejected command back to its sender.
type ErrorMessage struct {
	MessageType string `json:"messageType" msgpack:"messageType"` // "error"
	Error       string `json:"error" msgpack:"error"`
}

// --- Internal Actor Messages ---

// GameTick drives one simulation frame.
type GameTick struct{}

// CountdownTick decrements the countdown that was started as Seq.
type CountdownTick struct {
	Seq uint64
}

// ApplyCommand forwards a client command to a GameActor.
type ApplyCommand struct {
	Command Command
}

// CommandResult is the reply to an ApplyCommand sent through Ask.
type CommandResult struct {
	Err error
}

// GetSnapshotRequest asks a GameActor for its current Snapshot (via Ask).
type GetSnapshotRequest struct{}

// Subscriber receives snapshots. Implementations own their transport.
type Subscriber interface {
	Send(snapshot Snapshot) error
	Close() error
}

// AddClient registers a subscriber with a BroadcasterActor.
type AddClient struct {
	Subscriber Subscriber
}

// RemoveClient unregisters a subscriber.
type RemoveClient struct {
	Subscriber Subscriber
}

// BroadcastSnapshot fans a snapshot out to every subscriber.
type BroadcastSnapshot struct {
	Snapshot Snapshot
}

// SubscriberGone tells the GameActor a subscriber failed and was dropped.
type SubscriberGone struct {
	Subscriber Subscriber
}

// --- Room Manager Messages ---

// CreateRoomRequest asks the RoomManager for a new room (via Ask).
type CreateRoomRequest struct {
	Subscriber Subscriber // Optional first subscriber
	NameStore  NameStore  // Optional per-client name persistence
}

// CreateRoomResponse answers CreateRoomRequest.
type CreateRoomResponse struct {
	RoomID string
	PID    *bollywood.PID
	Err    error
}

// CloseRoom stops a room and forgets it.
type CloseRoom struct {
	RoomID string
}

// RoomEmpty is sent by a GameActor once its last subscriber is gone.
type RoomEmpty struct {
	RoomID string
}

// GetRoomListRequest asks the RoomManager for the list of active rooms (via Ask).
type GetRoomListRequest struct{}

// RoomInfo describes one active room.
type RoomInfo struct {
	ID        string         `json:"id"`
	PID       *bollywood.PID `json:"-"`
	CreatedAt time.Time      `json:"createdAt"`
}

// RoomListResponse answers GetRoomListRequest, oldest room first.
type RoomListResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}
