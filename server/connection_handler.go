package server

import (
	"errors"
	"io"
	"net"
	"runtime/debug"
	"time"

	"github.com/decred/slog"
	"golang.org/x/net/websocket"

	"github.com/lguibr/fujipong/bollywood"
	"github.com/lguibr/fujipong/game"
)

// readTimeout closes connections that stay silent; clients send key edges
// and menu commands, so a live one speaks well within it.
const readTimeout = 10 * time.Minute

// connection is one websocket client bound to its room.
type connection struct {
	conn     *websocket.Conn
	codec    websocket.Codec
	sub      *wsSubscriber
	engine   *bollywood.Engine
	roomID   string
	roomPID  *bollywood.PID
	addr     string
	log      slog.Logger
	timeout  time.Duration
	commands int
}

// readLoop decodes commands until the client goes away and forwards each
// one to the room. Rejected commands are answered with an error message.
func (c *connection) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorf("Panic in read loop for %s: %v\n%s", c.addr, r, debug.Stack())
		}
	}()

	for {
		var cmd game.Command
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		err := c.codec.Receive(c.conn, &cmd)
		if err != nil {
			if isClosedErr(err) {
				c.log.Debugf("Connection %s closed: %v", c.addr, err)
			} else {
				c.log.Infof("Read error from %s: %v", c.addr, err)
			}
			return
		}
		c.commands++

		if err := c.apply(cmd); err != nil {
			if sendErr := c.sub.sendError(err); sendErr != nil {
				c.log.Debugf("Failed to report error to %s: %v", c.addr, sendErr)
				return
			}
		}
	}
}

func (c *connection) apply(cmd game.Command) error {
	reply, err := c.engine.Ask(c.roomPID, game.ApplyCommand{Command: cmd}, c.timeout)
	if err != nil {
		return err
	}
	if res, ok := reply.(game.CommandResult); ok {
		return res.Err
	}
	return nil
}

// cleanup detaches the subscriber from its room; the room manager stops the
// room once it has no subscribers left.
func (c *connection) cleanup() {
	c.engine.Send(c.roomPID, game.RemoveClient{Subscriber: c.sub}, nil)
	_ = c.sub.Close()
	c.log.Infof("Connection %s left room %s after %d commands", c.addr, c.roomID, c.commands)
}

func isClosedErr(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
