// File: game/session.go
package game

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/lguibr/fujipong/utils"
)

// Session is one playable Pong table: the phase machine, the match it
// drives and the score submission it triggers. A Session is not safe for
// concurrent use; key presses go through its InputState, which is.
type Session struct {
	cfg       utils.Config
	clock     utils.Clock
	rng       utils.Random
	log       slog.Logger
	names     NameStore
	submitter Submitter

	phase      GamePhase
	mode       Mode
	playerName [utils.MaxPlayers]string
	nameErrors NameErrors
	countdown  int
	countSeq   uint64
	rematch    bool // Countdown started from GameOver

	match       *MatchState
	input       *InputState
	controllers [utils.MaxPlayers]Controller
	overrides   [utils.MaxPlayers]Controller

	matchID       string
	submittedID   string
	winner        string
	outcomes      chan submissionOutcome
	notification  *Notification
	pendingSubmit int

	frame  uint64
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

func WithClock(c utils.Clock) SessionOption { return func(s *Session) { s.clock = c } }

func WithRandom(r utils.Random) SessionOption { return func(s *Session) { s.rng = r } }

func WithLogger(l slog.Logger) SessionOption { return func(s *Session) { s.log = utils.OrDisabled(l) } }

func WithNameStore(n NameStore) SessionOption { return func(s *Session) { s.names = n } }

func WithSubmitter(sub Submitter) SessionOption { return func(s *Session) { s.submitter = sub } }

// WithController replaces the controller the mode would pick for a slot.
func WithController(slot int, c Controller) SessionOption {
	return func(s *Session) {
		if slot >= 0 && slot < utils.MaxPlayers {
			s.overrides[slot] = c
		}
	}
}

// NewSession creates a session in the Idle phase with the demo rally running.
func NewSession(cfg utils.Config, opts ...SessionOption) *Session {
	s := &Session{
		cfg:      cfg,
		clock:    utils.SystemClock{},
		log:      slog.Disabled,
		phase:    PhaseIdle,
		input:    NewInputState(),
		outcomes: make(chan submissionOutcome, 4),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = utils.NewTimeSeededRandom()
	}
	if s.names == nil {
		s.names = NewMemoryNameStore()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.match = NewMatchState(cfg, s.clock, s.rng)
	s.match.ServeDemo()
	return s
}

// --- Accessors ---

func (s *Session) Phase() GamePhase            { return s.phase }
func (s *Session) Mode() Mode                  { return s.mode }
func (s *Session) Input() *InputState          { return s.input }
func (s *Session) Match() *MatchState          { return s.match }
func (s *Session) NameErrors() NameErrors      { return s.nameErrors }
func (s *Session) Countdown() int              { return s.countdown }
func (s *Session) Winner() string              { return s.winner }
func (s *Session) MatchID() string             { return s.matchID }
func (s *Session) Notification() *Notification { return s.notification }

// CountdownSeq identifies the current countdown; it changes every time a
// countdown starts, so stale timers can be told apart.
func (s *Session) CountdownSeq() uint64 { return s.countSeq }

// Names returns the names as entered.
func (s *Session) Names() [utils.MaxPlayers]string { return s.playerName }

// DemoRunning reports whether Tick advances the cosmetic AI rally.
func (s *Session) DemoRunning() bool {
	switch s.phase {
	case PhasePlaying, PhaseGameOver:
		return false
	case PhaseCountdown:
		return !s.rematch
	}
	return true
}

func (s *Session) wrongPhase(action string) error {
	return fmt.Errorf("%s during %s: %w", action, s.phase, ErrWrongPhase)
}

// --- Transitions ---

// PressPlay opens mode selection from Idle.
func (s *Session) PressPlay() error {
	if s.phase != PhaseIdle {
		return s.wrongPhase("play")
	}
	s.setPhase(PhaseModeSelect)
	return nil
}

// SelectMode picks the mode and moves to name entry, loading the names
// stored for the slots that mode uses.
func (s *Session) SelectMode(mode Mode) error {
	if s.phase != PhaseModeSelect {
		return s.wrongPhase("select mode")
	}
	if mode != ModeTwoHuman && mode != ModeVersusAI {
		return fmt.Errorf("select mode %q: %w", mode, ErrInvalidCommand)
	}
	s.mode = mode
	s.playerName = [utils.MaxPlayers]string{}
	s.nameErrors = NameErrors{}
	for slot := 0; slot < mode.Slots(); slot++ {
		name, err := s.names.GetName(s.ctx, utils.NameKeys[slot])
		if err != nil {
			s.log.Warnf("Loading stored name for slot %d failed: %v", slot, err)
			continue
		}
		s.playerName[slot] = utils.StripWhitespace(name)
	}
	s.nameErrors = LiveNameErrors(s.mode, s.playerName)
	s.setPhase(PhaseNameEntry)
	return nil
}

// Back steps one screen back: mode selection to Idle, name entry to mode
// selection (clearing names) and game over to Idle (clearing everything).
// Other phases have no back action.
func (s *Session) Back() error {
	switch s.phase {
	case PhaseModeSelect:
		s.setPhase(PhaseIdle)
	case PhaseNameEntry:
		s.mode = ModeNone
		s.playerName = [utils.MaxPlayers]string{}
		s.nameErrors = NameErrors{}
		s.setPhase(PhaseModeSelect)
	case PhaseGameOver:
		s.resetToIdle()
	default:
		return s.wrongPhase("back")
	}
	return nil
}

// SetName edits a name field. Only the duplicate-name rule is checked live.
func (s *Session) SetName(slot int, value string) error {
	if s.phase != PhaseNameEntry {
		return s.wrongPhase("set name")
	}
	if slot < 0 || slot >= s.mode.Slots() {
		return fmt.Errorf("slot %d in mode %s: %w", slot, s.mode, ErrUnknownSlot)
	}
	s.playerName[slot] = value
	s.nameErrors = LiveNameErrors(s.mode, s.playerName)
	return nil
}

// PressStart runs the full name validation. On success the names are stored
// and the countdown begins; on failure the field errors are set and the
// session stays in name entry.
func (s *Session) PressStart() error {
	if s.phase != PhaseNameEntry {
		return s.wrongPhase("start")
	}
	s.nameErrors = ValidateNames(s.cfg, s.mode, s.playerName)
	if !s.nameErrors.Valid() {
		return ErrInvalidNames
	}
	for slot := 0; slot < s.mode.Slots(); slot++ {
		if err := s.names.SetName(s.ctx, utils.NameKeys[slot], s.playerName[slot]); err != nil {
			s.log.Warnf("Storing name for slot %d failed: %v", slot, err)
		}
	}
	s.startCountdown(false)
	return nil
}

// PlayAgain starts a rematch countdown with the same mode and names.
func (s *Session) PlayAgain() error {
	if s.phase != PhaseGameOver {
		return s.wrongPhase("play again")
	}
	s.startCountdown(true)
	return nil
}

// AdvanceCountdown is called once per countdown period. When the count
// reaches zero the match starts; later calls are no-ops.
func (s *Session) AdvanceCountdown() error {
	if s.phase != PhaseCountdown {
		return s.wrongPhase("countdown")
	}
	if s.countdown > 0 {
		s.countdown--
	}
	if s.countdown == 0 {
		s.beginMatch()
	}
	return nil
}

func (s *Session) PressKey(key string)   { s.input.Press(key) }
func (s *Session) ReleaseKey(key string) { s.input.Release(key) }

// Apply dispatches a client command.
func (s *Session) Apply(cmd Command) error {
	if s.closed {
		return ErrSessionClosed
	}
	switch cmd.Type {
	case CommandPlay:
		return s.PressPlay()
	case CommandMode:
		mode, err := ParseMode(cmd.Mode)
		if err != nil {
			return err
		}
		return s.SelectMode(mode)
	case CommandBack:
		return s.Back()
	case CommandName:
		return s.SetName(cmd.Slot, cmd.Value)
	case CommandStart:
		return s.PressStart()
	case CommandPlayAgain:
		return s.PlayAgain()
	case CommandKeyDown:
		if cmd.Key == "" {
			return fmt.Errorf("key down without key: %w", ErrInvalidCommand)
		}
		s.PressKey(cmd.Key)
		return nil
	case CommandKeyUp:
		if cmd.Key == "" {
			return fmt.Errorf("key up without key: %w", ErrInvalidCommand)
		}
		s.ReleaseKey(cmd.Key)
		return nil
	}
	return fmt.Errorf("command type %q: %w", cmd.Type, ErrInvalidCommand)
}

func (s *Session) setPhase(p GamePhase) {
	if p != s.phase {
		s.log.Debugf("Phase %s -> %s", s.phase, p)
	}
	s.phase = p
}

func (s *Session) startCountdown(rematch bool) {
	s.rematch = rematch
	s.countdown = s.cfg.CountdownSeconds
	s.countSeq++
	s.setPhase(PhaseCountdown)
	if s.countdown <= 0 {
		s.beginMatch()
	}
}

// beginMatch is the only way into Playing.
func (s *Session) beginMatch() {
	s.controllers[utils.LeftIndex] = HumanController{Input: s.input, Binding: LeftKeys}
	if s.mode == ModeTwoHuman {
		s.controllers[utils.RightIndex] = HumanController{Input: s.input, Binding: RightKeys}
	} else {
		s.controllers[utils.RightIndex] = AIController{}
	}
	for i, c := range s.overrides {
		if c != nil {
			s.controllers[i] = c
		}
	}
	s.matchID = uuid.NewString()
	s.winner = ""
	s.rematch = false
	s.match.Start()
	s.setPhase(PhasePlaying)
	s.log.Infof("Match %s started (%s): %s vs %s", s.matchID, s.mode,
		displayName(s.mode, s.playerName, utils.LeftIndex), displayName(s.mode, s.playerName, utils.RightIndex))
}

func (s *Session) resetToIdle() {
	s.mode = ModeNone
	s.playerName = [utils.MaxPlayers]string{}
	s.nameErrors = NameErrors{}
	s.winner = ""
	s.rematch = false
	s.countdown = 0
	s.match.Reset()
	s.match.ServeDemo()
	s.setPhase(PhaseIdle)
}

// --- Frame ---

// Tick advances one frame. A panic inside the frame is recovered and
// returned so the caller can log it and keep ticking.
func (s *Session) Tick() (err error) {
	if s.closed {
		return ErrSessionClosed
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame %d: %v", s.frame, r)
			s.log.Errorf("Frame %d update failed: %v\n%s", s.frame, r, debug.Stack())
		}
	}()
	s.frame++
	s.collectSubmissions()

	switch {
	case s.phase == PhasePlaying:
		res := s.match.Step(s.controllers[utils.LeftIndex], s.controllers[utils.RightIndex])
		if res.Scorer >= 0 {
			s.log.Debugf("Match %s: side %d scored, %s", s.matchID, res.Scorer, s.match.ScoreString())
		}
		if res.MatchOver {
			s.finishMatch(res.Scorer)
		}
	case s.DemoRunning():
		s.match.StepDemo()
	}
	return nil
}

// finishMatch freezes the match and fires the submission for it.
func (s *Session) finishMatch(winner int) {
	s.setPhase(PhaseGameOver)
	s.winner = displayName(s.mode, s.playerName, winner)
	result := buildMatchResult(s.mode, s.playerName, s.match, winner, s.clock.Now())
	s.log.Infof("Match %s over: %s beat %s %s in %ds", s.matchID, result.Winner, result.Loser, result.Score, result.Duration)
	s.submit(result)
}

// submit starts the one recording attempt for the current match. The call
// runs on its own goroutine and reports back through s.outcomes.
func (s *Session) submit(result MatchResult) {
	if s.submittedID == s.matchID {
		return
	}
	s.submittedID = s.matchID
	if s.submitter == nil {
		s.log.Debugf("Match %s: no submitter configured", s.matchID)
		return
	}
	s.pendingSubmit++
	ctx, submitter, timeout, out := s.ctx, s.submitter, s.cfg.SubmitTimeout, s.outcomes
	go func(matchID string) {
		outcome := submissionOutcome{matchID: matchID, result: result}
		defer func() {
			if r := recover(); r != nil {
				outcome.err = fmt.Errorf("submitter panicked: %v", r)
			}
			select {
			case out <- outcome:
			case <-ctx.Done():
			}
		}()
		// The call outlives Close; only the delivery is tied to the session.
		callCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		outcome.response, outcome.err = submitter.SubmitScore(callCtx, result)
	}(s.matchID)
}

// collectSubmissions applies finished submissions without blocking.
func (s *Session) collectSubmissions() {
	now := s.clock.Now()
	for {
		select {
		case o := <-s.outcomes:
			s.pendingSubmit--
			n := &Notification{Success: o.succeeded(), ExpiresAt: now.Add(s.cfg.NotificationDuration)}
			if n.Success {
				n.TxHash = o.response.TxHash
				n.ExplorerURL = ExplorerURL(o.response.TxHash)
				s.log.Infof("Match %s recorded: %s", o.matchID, o.response.TxHash)
			} else {
				reason := o.response.Error
				if o.err != nil {
					reason = o.err.Error()
				}
				s.log.Errorf("Match %s: failed to submit score: %s", o.matchID, reason)
			}
			s.notification = n
		default:
			if s.notification != nil && !now.Before(s.notification.ExpiresAt) {
				s.notification = nil
			}
			return
		}
	}
}

// PendingSubmissions counts submissions whose outcome has not been applied.
func (s *Session) PendingSubmissions() int { return s.pendingSubmit }

// Snapshot copies everything a renderer needs.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		MessageType:     "snapshot",
		Frame:           s.frame,
		Phase:           s.phase,
		Mode:            s.mode,
		Demo:            s.DemoRunning(),
		Countdown:       s.countdown,
		Names:           s.playerName,
		NameErrors:      s.nameErrors,
		Ball:            *s.match.Ball,
		Score:           s.match.Score,
		SpeedMultiplier: s.match.SpeedMultiplier,
		Winner:          s.winner,
	}
	for i, p := range s.match.Paddles {
		snap.Paddles[i] = *p
	}
	if s.notification != nil {
		n := *s.notification
		snap.Notification = &n
	}
	return snap
}

// Close stops the session. In-flight submissions still run to completion,
// bounded by SubmitTimeout, but their outcome is discarded.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.input.ReleaseAll()
}
