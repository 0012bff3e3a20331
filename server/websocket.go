package server

import (
	"errors"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/net/websocket"

	"github.com/lguibr/fujipong/game"
)

const writeTimeout = 2 * time.Second

var errSubscriberClosed = errors.New("subscriber closed")

// MsgpackCodec carries values as binary msgpack frames.
var MsgpackCodec = websocket.Codec{
	Marshal: func(v interface{}) ([]byte, byte, error) {
		data, err := msgpack.Marshal(v)
		return data, websocket.BinaryFrame, err
	},
	Unmarshal: func(data []byte, _ byte, v interface{}) error {
		return msgpack.Unmarshal(data, v)
	},
}

// codecFor picks the wire codec requested by the client; JSON is the default.
func codecFor(name string) (websocket.Codec, string) {
	if name == "msgpack" {
		return MsgpackCodec, "msgpack"
	}
	return websocket.JSON, "json"
}

// wsSubscriber writes snapshots to one websocket connection. Writes are
// serialized because the broadcaster and the read loop both write.
type wsSubscriber struct {
	conn  *websocket.Conn
	codec websocket.Codec

	mu     sync.Mutex
	closed bool
}

func newWSSubscriber(conn *websocket.Conn, codec websocket.Codec) *wsSubscriber {
	return &wsSubscriber{conn: conn, codec: codec}
}

func (s *wsSubscriber) Send(snapshot game.Snapshot) error {
	return s.write(snapshot)
}

func (s *wsSubscriber) sendError(err error) error {
	return s.write(game.ErrorMessage{MessageType: "error", Error: err.Error()})
}

func (s *wsSubscriber) write(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSubscriberClosed
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.codec.Send(s.conn, v)
}

func (s *wsSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
