// Command pongterm plays pong in the terminal against a local session.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/decred/slog"
	"github.com/gdamore/tcell/v2"

	"github.com/lguibr/fujipong/chain"
	"github.com/lguibr/fujipong/game"
	"github.com/lguibr/fujipong/store"
	"github.com/lguibr/fujipong/tui"
	"github.com/lguibr/fujipong/utils"
)

func main() {
	logPath := flag.String("log", "pongterm.log", "log file (the terminal is taken by the game)")
	clientID := flag.String("client", "terminal", "key under which player names are saved")
	releaseDelay := flag.Duration("release", tui.DefaultReleaseDelay, "how long a key stays held without repeats")
	offline := flag.Bool("offline", false, "do not submit scores to the relay")
	flag.Parse()

	if err := run(*logPath, *clientID, *releaseDelay, *offline); err != nil {
		fmt.Fprintf(os.Stderr, "pongterm: %v\n", err)
		os.Exit(1)
	}
}

func run(logPath, clientID string, releaseDelay time.Duration, offline bool) error {
	cfg, err := utils.LoadConfig()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logs := utils.NewLogBackend(logFile, cfg.LogLevel)

	db, err := store.Open(cfg.DBPath, logs.Logger(utils.SubsystemStore))
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []game.SessionOption{
		game.WithLogger(logs.Logger(utils.SubsystemGame)),
		game.WithNameStore(db.Names(clientID)),
	}
	if !offline {
		opts = append(opts, game.WithSubmitter(chain.NewClient(cfg.RelayURL, nil, logs.Logger(utils.SubsystemChain))))
	}
	session := game.NewSession(cfg, opts...)
	defer session.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	defer screen.Fini()

	loop := &gameLoop{
		cfg:     cfg,
		session: session,
		screen:  screen,
		keys:    tui.NewKeymap(releaseDelay),
		log:     logs.Logger(utils.SubsystemGame),
	}
	return loop.run()
}

type gameLoop struct {
	cfg     utils.Config
	session *game.Session
	screen  tcell.Screen
	keys    *tui.Keymap
	log     slog.Logger

	countdown    *time.Ticker
	countdownSeq uint64
}

func (l *gameLoop) run() error {
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go pumpEvents(l.screen, events, done)

	frames := time.NewTicker(time.Second / time.Duration(l.cfg.FrameRate))
	defer frames.Stop()
	defer l.stopCountdown()

	for {
		select {
		case now := <-frames.C:
			l.apply(l.keys.Expired(now))
			if err := l.session.Tick(); err != nil {
				l.log.Errorf("Frame failed: %v", err)
			}
			l.syncCountdown()
			tui.Draw(l.screen, l.session.Snapshot(), l.cfg)

		case <-l.countdownC():
			if err := l.session.AdvanceCountdown(); err != nil {
				l.log.Debugf("Countdown tick ignored: %v", err)
			}

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				l.screen.Sync()
			case *tcell.EventKey:
				cmds, quit := l.keys.Handle(ev, l.session.Snapshot(), time.Now())
				l.apply(cmds)
				if quit {
					return nil
				}
				l.syncCountdown()
			}
		}
	}
}

// pumpEvents forwards screen events until the screen is finalized or the
// loop has returned.
func pumpEvents(screen tcell.Screen, events chan<- tcell.Event, done <-chan struct{}) {
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
}

func (l *gameLoop) apply(cmds []game.Command) {
	for _, cmd := range cmds {
		if err := l.session.Apply(cmd); err != nil {
			l.log.Debugf("Command %s rejected: %v", cmd.Type, err)
		}
	}
}

// syncCountdown runs one countdown ticker per countdown started by the
// session, and none outside the countdown phase.
func (l *gameLoop) syncCountdown() {
	if l.session.Phase() != game.PhaseCountdown {
		l.stopCountdown()
		return
	}
	if seq := l.session.CountdownSeq(); l.countdown == nil || seq != l.countdownSeq {
		l.stopCountdown()
		l.countdown = time.NewTicker(l.cfg.CountdownPeriod)
		l.countdownSeq = seq
	}
}

func (l *gameLoop) stopCountdown() {
	if l.countdown != nil {
		l.countdown.Stop()
		l.countdown = nil
	}
}

// countdownC is nil, and so never ready, while no countdown runs.
func (l *gameLoop) countdownC() <-chan time.Time {
	if l.countdown == nil {
		return nil
	}
	return l.countdown.C
}
