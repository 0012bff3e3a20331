package game

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/fujipong/utils"
)

const frame = 16 * time.Millisecond

func newTestSession(t *testing.T, opts ...SessionOption) (*Session, *utils.ManualClock) {
	t.Helper()
	clock := utils.NewManualClock(epoch)
	base := []SessionOption{WithClock(clock), WithRandom(utils.NewRandom(7))}
	s := NewSession(utils.DefaultConfig(), append(base, opts...)...)
	t.Cleanup(s.Close)
	return s, clock
}

// enterNames walks from Idle to NameEntry and fills the names in.
func enterNames(t *testing.T, s *Session, mode Mode, names ...string) {
	t.Helper()
	require.NoError(t, s.PressPlay())
	require.NoError(t, s.SelectMode(mode))
	for slot, name := range names {
		require.NoError(t, s.SetName(slot, name))
	}
}

// startMatch walks from Idle to Playing.
func startMatch(t *testing.T, s *Session, mode Mode, names ...string) {
	t.Helper()
	enterNames(t, s, mode, names...)
	require.NoError(t, s.PressStart())
	finishCountdown(t, s)
}

func finishCountdown(t *testing.T, s *Session) {
	t.Helper()
	require.Equal(t, PhaseCountdown, s.Phase())
	for s.Phase() == PhaseCountdown {
		require.NoError(t, s.AdvanceCountdown())
	}
	require.Equal(t, PhasePlaying, s.Phase())
}

// playUntilOver ticks frames until the match ends and returns how many ran.
func playUntilOver(t *testing.T, s *Session, clock *utils.ManualClock) int {
	t.Helper()
	frames := 0
	for s.Phase() == PhasePlaying {
		require.Less(t, frames, 20000, "match did not finish")
		clock.Advance(frame)
		require.NoError(t, s.Tick())
		frames++
	}
	return frames
}

// waitForNotification keeps ticking until the submission outcome is applied.
func waitForNotification(t *testing.T, s *Session) *Notification {
	t.Helper()
	for i := 0; i < 400 && s.Notification() == nil; i++ {
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, s.Tick())
	}
	require.NotNil(t, s.Notification(), "submission outcome never arrived")
	return s.Notification()
}

func TestSession_BackFromIdleHasNoEffect(t *testing.T) {
	s, _ := newTestSession(t)
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, s.Back(), ErrWrongPhase)
		assert.Equal(t, PhaseIdle, s.Phase())
	}
}

func TestSession_NavigationAndBack(t *testing.T) {
	s, _ := newTestSession(t)

	require.NoError(t, s.PressPlay())
	assert.Equal(t, PhaseModeSelect, s.Phase())
	assert.ErrorIs(t, s.PressPlay(), ErrWrongPhase)

	require.NoError(t, s.Back())
	assert.Equal(t, PhaseIdle, s.Phase())

	enterNames(t, s, ModeTwoHuman, "alice", "bob")
	assert.Equal(t, PhaseNameEntry, s.Phase())

	require.NoError(t, s.Back())
	assert.Equal(t, PhaseModeSelect, s.Phase())
	assert.Equal(t, [2]string{}, s.Names(), "names are cleared")
	assert.Equal(t, ModeNone, s.Mode())
}

func TestSession_SelectModeRejectsUnknownMode(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.PressPlay())
	assert.ErrorIs(t, s.SelectMode("3v3"), ErrInvalidCommand)
	assert.Equal(t, PhaseModeSelect, s.Phase())
}

func TestSession_SelectModeLoadsStoredNames(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryNameStore()
	require.NoError(t, store.SetName(ctx, utils.Player1NameKey, " al ice "))
	require.NoError(t, store.SetName(ctx, utils.Player2NameKey, "bob"))

	s, _ := newTestSession(t, WithNameStore(store))
	require.NoError(t, s.PressPlay())
	require.NoError(t, s.SelectMode(ModeVersusAI))
	assert.Equal(t, [2]string{"alice", ""}, s.Names(), "only player one in 1vAI")

	require.NoError(t, s.Back())
	require.NoError(t, s.SelectMode(ModeTwoHuman))
	assert.Equal(t, [2]string{"alice", "bob"}, s.Names())
}

func TestSession_SetNameSlots(t *testing.T) {
	s, _ := newTestSession(t)
	assert.ErrorIs(t, s.SetName(0, "alice"), ErrWrongPhase)

	enterNames(t, s, ModeVersusAI)
	assert.ErrorIs(t, s.SetName(1, "bob"), ErrUnknownSlot)
	assert.ErrorIs(t, s.SetName(-1, "bob"), ErrUnknownSlot)
	require.NoError(t, s.SetName(0, "a b"))
	assert.Equal(t, NameErrors{}, s.NameErrors(), "only duplicates are flagged live")
}

func TestSession_LiveDuplicateCheck(t *testing.T) {
	s, _ := newTestSession(t)
	enterNames(t, s, ModeTwoHuman, "Alice")
	assert.True(t, s.NameErrors().Valid())

	require.NoError(t, s.SetName(1, "ALICE"))
	assert.Equal(t, NameErrors{ErrMsgNamesDuplicate, ErrMsgNamesDuplicate}, s.NameErrors())

	require.NoError(t, s.SetName(1, "bob"))
	assert.True(t, s.NameErrors().Valid())
}

func TestSession_PressStartRejectsInvalidNames(t *testing.T) {
	store := NewMemoryNameStore()
	s, _ := newTestSession(t, WithNameStore(store))
	enterNames(t, s, ModeTwoHuman, "ab", "abcdefghij")

	assert.ErrorIs(t, s.PressStart(), ErrInvalidNames)
	assert.Equal(t, PhaseNameEntry, s.Phase())
	assert.Equal(t, NameErrors{ErrMsgNameTooShort, ErrMsgNameTooLong}, s.NameErrors())

	stored, err := store.GetName(context.Background(), utils.Player1NameKey)
	require.NoError(t, err)
	assert.Equal(t, "", stored, "nothing is persisted on failure")

	require.NoError(t, s.SetName(0, "a b"))
	require.NoError(t, s.SetName(1, "bob"))
	assert.ErrorIs(t, s.PressStart(), ErrInvalidNames)
	assert.Equal(t, NameErrors{ErrMsgNameHasSpaces, ""}, s.NameErrors())

	require.NoError(t, s.SetName(0, "BOB"))
	assert.ErrorIs(t, s.PressStart(), ErrInvalidNames)
	assert.Equal(t, NameErrors{ErrMsgNamesDuplicate, ErrMsgNamesDuplicate}, s.NameErrors())
}

func TestSession_PressStartPersistsNames(t *testing.T) {
	ctx := context.Background()

	store := NewMemoryNameStore()
	s, _ := newTestSession(t, WithNameStore(store))
	enterNames(t, s, ModeTwoHuman, "alice", "bob")
	require.NoError(t, s.PressStart())
	assert.Equal(t, PhaseCountdown, s.Phase())
	assert.Equal(t, 3, s.Countdown())
	p1, _ := store.GetName(ctx, utils.Player1NameKey)
	p2, _ := store.GetName(ctx, utils.Player2NameKey)
	assert.Equal(t, "alice", p1)
	assert.Equal(t, "bob", p2)

	store = NewMemoryNameStore()
	s, _ = newTestSession(t, WithNameStore(store))
	enterNames(t, s, ModeVersusAI, "carol")
	require.NoError(t, s.PressStart())
	p1, _ = store.GetName(ctx, utils.Player1NameKey)
	p2, _ = store.GetName(ctx, utils.Player2NameKey)
	assert.Equal(t, "carol", p1)
	assert.Equal(t, "", p2, "1vAI only stores player one")
}

func TestSession_CountdownStartsMatchExactlyOnce(t *testing.T) {
	s, clock := newTestSession(t)
	enterNames(t, s, ModeVersusAI, "alice")
	require.NoError(t, s.PressStart())

	require.NoError(t, s.AdvanceCountdown())
	assert.Equal(t, 2, s.Countdown())
	require.NoError(t, s.AdvanceCountdown())
	assert.Equal(t, 1, s.Countdown())
	assert.Equal(t, PhaseCountdown, s.Phase())
	assert.Empty(t, s.MatchID())

	require.NoError(t, s.AdvanceCountdown())
	assert.Equal(t, PhasePlaying, s.Phase())
	matchID := s.MatchID()
	require.NotEmpty(t, matchID)

	m := s.Match()
	assert.Equal(t, [2]int{0, 0}, m.Score)
	assert.Equal(t, 1.0, m.SpeedMultiplier)
	assert.Equal(t, clock.Now(), m.StartedAt)

	for i := 0; i < 10; i++ {
		clock.Advance(frame)
		require.NoError(t, s.Tick())
	}
	x, y := m.Ball.X, m.Ball.Y

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, s.AdvanceCountdown(), ErrWrongPhase)
	}
	assert.Equal(t, matchID, s.MatchID(), "no second match start")
	assert.Equal(t, x, m.Ball.X)
	assert.Equal(t, y, m.Ball.Y)
}

func TestSession_DemoRunsUntilMatch(t *testing.T) {
	s, _ := newTestSession(t)
	assert.True(t, s.DemoRunning())

	x := s.Match().Ball.X
	require.NoError(t, s.Tick())
	assert.NotEqual(t, x, s.Match().Ball.X, "demo ball moves in Idle")

	enterNames(t, s, ModeVersusAI, "alice")
	require.NoError(t, s.PressStart())
	assert.True(t, s.DemoRunning(), "demo keeps running during the first countdown")
	assert.True(t, s.Snapshot().Demo)
}

func TestSession_EndToEndHumanVsAI(t *testing.T) {
	cfg := utils.DefaultConfig()
	sub := &RecordingSubmitter{Response: SubmitResponse{Success: true, TxHash: "0xabc"}}
	s, clock := newTestSession(t,
		WithSubmitter(sub),
		WithController(utils.LeftIndex, PerfectTracker()),
		WithController(utils.RightIndex, EvasiveController(cfg)),
	)
	startMatch(t, s, ModeVersusAI, "alice")
	frames := playUntilOver(t, s, clock)

	assert.Equal(t, PhaseGameOver, s.Phase())
	assert.Equal(t, "alice", s.Winner())
	assert.Equal(t, [2]int{3, 0}, s.Match().Score)

	n := waitForNotification(t, s)
	assert.True(t, n.Success)
	assert.Equal(t, "0xabc", n.TxHash)
	assert.Equal(t, utils.ExplorerTxURL+"0xabc", n.ExplorerURL)

	calls := sub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "alice", calls[0].Winner)
	assert.Equal(t, utils.AIName, calls[0].Loser)
	assert.Equal(t, "3-0", calls[0].Score)
	elapsed := time.Duration(frames) * frame
	assert.InDelta(t, elapsed.Seconds(), calls[0].Duration, 1)

	// Frozen: more frames change nothing and submit nothing.
	ball := *s.Match().Ball
	for i := 0; i < 30; i++ {
		require.NoError(t, s.Tick())
	}
	assert.Equal(t, ball, *s.Match().Ball)
	assert.Equal(t, [2]int{3, 0}, s.Match().Score)
	assert.Len(t, sub.Calls(), 1)
}

func TestSession_SubmissionFailureStillShowsGameOver(t *testing.T) {
	cfg := utils.DefaultConfig()
	sub := &RecordingSubmitter{Response: SubmitResponse{Success: false, Error: "x"}}
	s, clock := newTestSession(t,
		WithSubmitter(sub),
		WithController(utils.LeftIndex, EvasiveController(cfg)),
		WithController(utils.RightIndex, PerfectTracker()),
	)
	startMatch(t, s, ModeTwoHuman, "alice", "bob")
	playUntilOver(t, s, clock)

	assert.Equal(t, PhaseGameOver, s.Phase())
	assert.Equal(t, "bob", s.Winner())

	n := waitForNotification(t, s)
	assert.False(t, n.Success)
	assert.Empty(t, n.TxHash)
	assert.Equal(t, PhaseGameOver, s.Phase())

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Tick())
	}
	calls := sub.Calls()
	require.Len(t, calls, 1, "no retry")
	assert.Equal(t, "bob", calls[0].Winner)
	assert.Equal(t, "alice", calls[0].Loser)
	assert.Equal(t, "0-3", calls[0].Score)
}

func TestSession_SubmissionErrorIsNotRetried(t *testing.T) {
	cfg := utils.DefaultConfig()
	sub := &RecordingSubmitter{Err: errors.New("connection refused")}
	s, clock := newTestSession(t,
		WithSubmitter(sub),
		WithController(utils.LeftIndex, PerfectTracker()),
		WithController(utils.RightIndex, EvasiveController(cfg)),
	)
	startMatch(t, s, ModeTwoHuman, "alice", "bob")
	playUntilOver(t, s, clock)

	n := waitForNotification(t, s)
	assert.False(t, n.Success)
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Tick())
	}
	require.Len(t, sub.Calls(), 1)
	assert.Equal(t, "alice", sub.Calls()[0].Winner)
	assert.Equal(t, "bob", sub.Calls()[0].Loser)
	assert.Zero(t, s.PendingSubmissions())
}

func TestSession_CloseDoesNotCancelSubmission(t *testing.T) {
	cfg := utils.DefaultConfig()
	started := make(chan struct{})
	ended := make(chan error, 1)
	sub := SubmitterFunc(func(ctx context.Context, _ MatchResult) (SubmitResponse, error) {
		close(started)
		select {
		case <-ctx.Done():
			ended <- ctx.Err()
		case <-time.After(300 * time.Millisecond):
			ended <- nil
		}
		return SubmitResponse{Success: true, TxHash: "0x1"}, nil
	})
	s, clock := newTestSession(t,
		WithSubmitter(sub),
		WithController(utils.LeftIndex, PerfectTracker()),
		WithController(utils.RightIndex, EvasiveController(cfg)),
	)
	startMatch(t, s, ModeVersusAI, "alice")
	playUntilOver(t, s, clock)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("submission never started")
	}
	s.Close()

	select {
	case err := <-ended:
		assert.NoError(t, err, "closing the session must not abort the recording call")
	case <-time.After(2 * time.Second):
		t.Fatal("submission never finished")
	}
}

func TestSession_NotificationExpires(t *testing.T) {
	cfg := utils.DefaultConfig()
	sub := &RecordingSubmitter{Response: SubmitResponse{Success: true, TxHash: "0x1"}}
	s, clock := newTestSession(t,
		WithSubmitter(sub),
		WithController(utils.LeftIndex, PerfectTracker()),
		WithController(utils.RightIndex, EvasiveController(cfg)),
	)
	startMatch(t, s, ModeVersusAI, "alice")
	playUntilOver(t, s, clock)
	waitForNotification(t, s)

	clock.Advance(cfg.NotificationDuration - time.Millisecond)
	require.NoError(t, s.Tick())
	assert.NotNil(t, s.Notification())

	clock.Advance(time.Millisecond)
	require.NoError(t, s.Tick())
	assert.Nil(t, s.Notification())
}

func TestSession_PlayAgainKeepsNamesAndFreezesCountdown(t *testing.T) {
	cfg := utils.DefaultConfig()
	s, clock := newTestSession(t,
		WithController(utils.LeftIndex, PerfectTracker()),
		WithController(utils.RightIndex, EvasiveController(cfg)),
	)
	startMatch(t, s, ModeVersusAI, "alice")
	firstMatch := s.MatchID()
	playUntilOver(t, s, clock)

	require.NoError(t, s.PlayAgain())
	assert.Equal(t, PhaseCountdown, s.Phase())
	assert.False(t, s.DemoRunning())
	assert.ErrorIs(t, s.Back(), ErrWrongPhase)

	ball := *s.Match().Ball
	require.NoError(t, s.Tick())
	assert.Equal(t, ball, *s.Match().Ball, "rematch countdown is frozen")

	finishCountdown(t, s)
	assert.NotEqual(t, firstMatch, s.MatchID())
	assert.Equal(t, [2]int{0, 0}, s.Match().Score)
	assert.Equal(t, [2]string{"alice", ""}, s.Names())
	assert.Equal(t, ModeVersusAI, s.Mode())
}

func TestSession_BackFromGameOverResetsEverything(t *testing.T) {
	cfg := utils.DefaultConfig()
	s, clock := newTestSession(t,
		WithController(utils.LeftIndex, PerfectTracker()),
		WithController(utils.RightIndex, EvasiveController(cfg)),
	)
	startMatch(t, s, ModeVersusAI, "alice")
	playUntilOver(t, s, clock)

	require.NoError(t, s.Back())
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, ModeNone, s.Mode())
	assert.Equal(t, [2]string{}, s.Names())
	assert.Empty(t, s.Winner())
	assert.Equal(t, [2]int{0, 0}, s.Match().Score)
	assert.Equal(t, 1.0, s.Match().SpeedMultiplier)
	assert.True(t, s.DemoRunning())
}

func TestSession_TickRecoversFromPanic(t *testing.T) {
	panicked := false
	flaky := ControllerFunc(func(p *Paddle, b *Ball) {
		if !panicked {
			panicked = true
			panic("bad frame")
		}
	})
	s, clock := newTestSession(t, WithController(utils.LeftIndex, flaky))
	startMatch(t, s, ModeVersusAI, "alice")

	clock.Advance(frame)
	err := s.Tick()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad frame")

	x := s.Match().Ball.X
	clock.Advance(frame)
	require.NoError(t, s.Tick())
	assert.NotEqual(t, x, s.Match().Ball.X, "the loop keeps going")
}

func TestSession_Apply(t *testing.T) {
	s, _ := newTestSession(t)

	require.NoError(t, s.Apply(Command{Type: CommandPlay}))
	assert.ErrorIs(t, s.Apply(Command{Type: CommandMode, Mode: "solo"}), ErrInvalidCommand)
	require.NoError(t, s.Apply(Command{Type: CommandMode, Mode: "1v1"}))
	require.NoError(t, s.Apply(Command{Type: CommandName, Slot: 0, Value: "alice"}))
	require.NoError(t, s.Apply(Command{Type: CommandName, Slot: 1, Value: "bob"}))
	assert.ErrorIs(t, s.Apply(Command{Type: CommandName, Slot: 2, Value: "eve"}), ErrUnknownSlot)
	require.NoError(t, s.Apply(Command{Type: CommandStart}))
	assert.Equal(t, PhaseCountdown, s.Phase())

	require.NoError(t, s.Apply(Command{Type: CommandKeyDown, Key: "o"}))
	assert.True(t, s.Input().IsPressed("o"))
	require.NoError(t, s.Apply(Command{Type: CommandKeyUp, Key: "o"}))
	assert.False(t, s.Input().IsPressed("o"))
	assert.ErrorIs(t, s.Apply(Command{Type: CommandKeyDown}), ErrInvalidCommand)
	assert.ErrorIs(t, s.Apply(Command{Type: "dance"}), ErrInvalidCommand)

	s.Close()
	assert.ErrorIs(t, s.Apply(Command{Type: CommandBack}), ErrSessionClosed)
	assert.ErrorIs(t, s.Tick(), ErrSessionClosed)
}

func TestSession_SnapshotJSON(t *testing.T) {
	s, _ := newTestSession(t)
	enterNames(t, s, ModeTwoHuman, "alice", "ALICE")

	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "snapshot", decoded["messageType"])
	assert.Equal(t, "nameEntry", decoded["phase"])
	assert.Equal(t, "1v1", decoded["mode"])
	assert.Equal(t, []interface{}{ErrMsgNamesDuplicate, ErrMsgNamesDuplicate}, decoded["nameErrors"])
	assert.NotContains(t, decoded, "notification")
}
