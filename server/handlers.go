// File: server/handlers.go
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/lguibr/fujipong/game"
)

// HandleSubscribe creates a room for the connection, streams its snapshots
// and forwards the client's commands to it.
//
// Query parameters: codec=json|msgpack selects the wire format; client=<id>
// keys the persisted player names (a random id is used when absent).
func (s *Server) HandleSubscribe() func(ws *websocket.Conn) {
	return func(ws *websocket.Conn) {
		addr := ws.Request().RemoteAddr
		defer func() {
			if r := recover(); r != nil {
				s.log.Errorf("Panic in HandleSubscribe for %s: %v\n%s", addr, r, debug.Stack())
			}
			_ = ws.Close()
		}()

		query := ws.Request().URL.Query()
		codec, codecName := codecFor(query.Get("codec"))
		clientID := query.Get("client")
		if clientID == "" {
			clientID = uuid.NewString()
		}

		sub := newWSSubscriber(ws, codec)
		req := game.CreateRoomRequest{Subscriber: sub}
		if s.names != nil {
			req.NameStore = s.names(clientID)
		}

		resp, err := s.createRoom(req)
		if err != nil {
			s.log.Warnf("No room for %s: %v", addr, err)
			_ = sub.sendError(err)
			_ = sub.Close()
			return
		}
		s.log.Infof("Connection %s (%s, client %s) joined room %s", addr, codecName, clientID, resp.RoomID)

		c := &connection{
			conn:    ws,
			codec:   codec,
			sub:     sub,
			engine:  s.engine,
			roomID:  resp.RoomID,
			roomPID: resp.PID,
			addr:    addr,
			log:     s.log,
			timeout: s.askTimeout,
		}
		c.readLoop()
		c.cleanup()
	}
}

func (s *Server) createRoom(req game.CreateRoomRequest) (game.CreateRoomResponse, error) {
	reply, err := s.engine.Ask(s.roomManagerPID, req, s.askTimeout)
	if err != nil {
		return game.CreateRoomResponse{}, err
	}
	resp, ok := reply.(game.CreateRoomResponse)
	if !ok {
		return game.CreateRoomResponse{}, fmt.Errorf("unexpected reply %T", reply)
	}
	return resp, resp.Err
}

// HandleRooms lists the active rooms.
func (s *Server) HandleRooms() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		reply, err := s.engine.Ask(s.roomManagerPID, game.GetRoomListRequest{}, s.askTimeout)
		if err != nil {
			s.log.Errorf("Room list query failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "room manager unavailable"})
			return
		}
		list, ok := reply.(game.RoomListResponse)
		if !ok {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "unexpected reply"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"rooms": list.Rooms,
			"count": len(list.Rooms),
		})
	}
}

// HandleStatus serves the last polled ledger status.
func (s *Server) HandleStatus() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.status == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "status polling disabled"})
			return
		}
		writeJSON(w, http.StatusOK, s.status.Status())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
