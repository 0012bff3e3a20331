package server

import (
	"net/http"
	"time"

	"github.com/decred/slog"
	"golang.org/x/net/websocket"

	"github.com/lguibr/fujipong/bollywood"
	"github.com/lguibr/fujipong/game"
	"github.com/lguibr/fujipong/utils"
)

const defaultAskTimeout = 2 * time.Second

// NameStoreFactory returns the name store of one client.
type NameStoreFactory func(clientID string) game.NameStore

// Server is the HTTP and websocket front end. Every websocket connection
// gets its own room from the RoomManagerActor.
type Server struct {
	engine         *bollywood.Engine
	roomManagerPID *bollywood.PID
	names          NameStoreFactory
	status         *StatusPoller
	log            slog.Logger
	askTimeout     time.Duration
}

// Option customizes a Server.
type Option func(*Server)

func WithLogger(l slog.Logger) Option { return func(s *Server) { s.log = utils.OrDisabled(l) } }

// WithNameStores persists player names per client.
func WithNameStores(f NameStoreFactory) Option { return func(s *Server) { s.names = f } }

// WithStatus serves the poller's cached ledger status at /api/status.
func WithStatus(p *StatusPoller) Option { return func(s *Server) { s.status = p } }

func New(engine *bollywood.Engine, roomManagerPID *bollywood.PID, opts ...Option) *Server {
	s := &Server{
		engine:         engine,
		roomManagerPID: roomManagerPID,
		log:            slog.Disabled,
		askTimeout:     defaultAskTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleRooms())
	mux.HandleFunc("/api/status", s.HandleStatus())
	mux.Handle("/subscribe", websocket.Handler(s.HandleSubscribe()))
	return mux
}
