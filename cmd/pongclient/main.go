// Command pongclient plays in a room of a remote pong server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/net/websocket"

	"github.com/lguibr/fujipong/game"
	"github.com/lguibr/fujipong/tui"
	"github.com/lguibr/fujipong/utils"
)

var styleError = tcell.StyleDefault.Foreground(tcell.ColorRed)

func main() {
	addr := flag.String("server", "ws://localhost:3001/subscribe", "websocket endpoint of the pong server")
	clientID := flag.String("client", "", "key under which the server saves player names")
	codecName := flag.String("codec", "msgpack", "wire format: json or msgpack")
	releaseDelay := flag.Duration("release", tui.DefaultReleaseDelay, "how long a key stays held without repeats")
	flag.Parse()

	if err := run(*addr, *clientID, *codecName, *releaseDelay); err != nil {
		fmt.Fprintf(os.Stderr, "pongclient: %v\n", err)
		os.Exit(1)
	}
}

// envelope holds any server message; MessageType tells which fields are set.
type envelope struct {
	game.Snapshot
	Error string `json:"error" msgpack:"error"`
}

type codec struct {
	decode func([]byte, interface{}) error
	encode func(interface{}) ([]byte, error)
}

func codecFor(name string) (codec, error) {
	switch name {
	case "json":
		return codec{decode: json.Unmarshal, encode: json.Marshal}, nil
	case "msgpack":
		return codec{decode: msgpack.Unmarshal, encode: msgpack.Marshal}, nil
	}
	return codec{}, fmt.Errorf("unknown codec %q", name)
}

func run(addr, clientID, codecName string, releaseDelay time.Duration) error {
	c, err := codecFor(codecName)
	if err != nil {
		return err
	}
	endpoint, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}
	q := endpoint.Query()
	q.Set("codec", codecName)
	if clientID != "" {
		q.Set("client", clientID)
	}
	endpoint.RawQuery = q.Encode()

	ws, err := websocket.Dial(endpoint.String(), "", "http://localhost/")
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer ws.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	defer screen.Fini()

	done := make(chan struct{})
	defer close(done)

	messages := make(chan envelope, 16)
	readErr := make(chan error, 1)
	go func() {
		for {
			var frame []byte
			if err := websocket.Message.Receive(ws, &frame); err != nil {
				readErr <- err
				return
			}
			var msg envelope
			if err := c.decode(frame, &msg); err != nil {
				readErr <- fmt.Errorf("bad message from server: %w", err)
				return
			}
			select {
			case messages <- msg:
			case <-done:
				return
			}
		}
	}()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	send := func(cmds []game.Command) error {
		for _, cmd := range cmds {
			data, err := c.encode(cmd)
			if err != nil {
				return err
			}
			if codecName == "json" {
				err = websocket.Message.Send(ws, string(data))
			} else {
				err = websocket.Message.Send(ws, data)
			}
			if err != nil {
				return fmt.Errorf("failed to send command: %w", err)
			}
		}
		return nil
	}

	if releaseDelay <= 0 {
		releaseDelay = tui.DefaultReleaseDelay
	}
	cfg := utils.DefaultConfig()
	keys := tui.NewKeymap(releaseDelay)
	release := time.NewTicker(releaseDelay / 4)
	defer release.Stop()

	var last game.Snapshot
	var lastErr string
	for {
		select {
		case msg := <-messages:
			if msg.MessageType == "error" {
				lastErr = msg.Error
			} else {
				last = msg.Snapshot
			}
			tui.Draw(screen, last, cfg)
			if lastErr != "" {
				_, h := screen.Size()
				tui.DrawText(screen, 0, h-1, lastErr, styleError)
				screen.Show()
			}

		case err := <-readErr:
			return err

		case now := <-release.C:
			if err := send(keys.Expired(now)); err != nil {
				return err
			}

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				lastErr = ""
				cmds, quit := keys.Handle(ev, last, time.Now())
				if err := send(cmds); err != nil {
					return err
				}
				if quit {
					return nil
				}
			}
		}
	}
}
