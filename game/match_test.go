package game

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/fujipong/utils"
)

// seqRandom replays a fixed list of values, cycling when exhausted.
type seqRandom struct {
	vals []float64
	i    int
}

func (r *seqRandom) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

var idle = ControllerFunc(func(*Paddle, *Ball) {})

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestMatch(t *testing.T, vals ...float64) (*MatchState, *utils.ManualClock) {
	t.Helper()
	if len(vals) == 0 {
		vals = []float64{0.7, 0.5}
	}
	clock := utils.NewManualClock(epoch)
	return NewMatchState(utils.DefaultConfig(), clock, &seqRandom{vals: vals}), clock
}

func TestMatchState_LaunchFirst(t *testing.T) {
	m, clock := newTestMatch(t, 0.2, 1.0)
	m.SpeedMultiplier = 1.4
	clock.Advance(time.Minute)

	m.Launch(true)

	assert.Equal(t, 210.0, m.Ball.X)
	assert.Equal(t, 150.0, m.Ball.Y)
	assert.Equal(t, 1.0, m.SpeedMultiplier)
	assert.Equal(t, clock.Now(), m.LastSpeedRamp)
	assert.Equal(t, -3.0, m.Ball.VX, "draw below 0.5 serves left")
	assert.Equal(t, 2.25, m.Ball.VY, "vertical component is bounded by 0.75 of the speed")
}

func TestMatchState_LaunchKeepsMultiplier(t *testing.T) {
	m, _ := newTestMatch(t, 0.9, 0.5)
	m.SpeedMultiplier = 1.2
	m.Ball.X = 5

	m.Launch(false)

	assert.Equal(t, 1.2, m.SpeedMultiplier)
	assert.InDelta(t, 3.6, m.Ball.VX, 1e-9)
	assert.Equal(t, 0.0, m.Ball.VY)
	assert.Equal(t, 210.0, m.Ball.X)
}

func TestMatchState_LaunchAnglesStayBounded(t *testing.T) {
	m := NewMatchState(utils.DefaultConfig(), utils.NewManualClock(epoch), utils.NewRandom(42))
	for i := 0; i < 500; i++ {
		m.Launch(i == 0)
		assert.Equal(t, 3.0, math.Abs(m.Ball.VX))
		assert.LessOrEqual(t, math.Abs(m.Ball.VY), 2.25)
	}
}

func TestMatchState_RampSpeed(t *testing.T) {
	m, clock := newTestMatch(t)
	m.Start()
	m.Ball.VX, m.Ball.VY = -3, 1.5

	clock.Advance(999 * time.Millisecond)
	assert.False(t, m.RampSpeed(clock.Now()), "not yet a full interval")

	clock.Advance(time.Millisecond)
	require.True(t, m.RampSpeed(clock.Now()))
	assert.InDelta(t, 1.1, m.SpeedMultiplier, 1e-9)
	assert.InDelta(t, -3.3, m.Ball.VX, 1e-9)
	assert.InDelta(t, 1.65, m.Ball.VY, 1e-9, "vertical to horizontal ratio is kept")
}

func TestMatchState_RampSpeedMonotonicAndCapped(t *testing.T) {
	m, clock := newTestMatch(t)
	m.Start()

	prev := m.SpeedMultiplier
	for i := 0; i < 20; i++ {
		clock.Advance(time.Second)
		m.RampSpeed(clock.Now())
		assert.GreaterOrEqual(t, m.SpeedMultiplier, prev)
		assert.LessOrEqual(t, m.SpeedMultiplier, 1.5)
		prev = m.SpeedMultiplier
	}
	assert.Equal(t, 1.5, m.SpeedMultiplier)
	assert.Equal(t, 4.5, math.Abs(m.Ball.VX))

	clock.Advance(time.Second)
	assert.False(t, m.RampSpeed(clock.Now()), "no change at the cap")
}

func TestMatchState_RampSpeedCapsVerticalRatio(t *testing.T) {
	m, clock := newTestMatch(t)
	m.Start()
	m.Ball.VX, m.Ball.VY = 1, -3

	clock.Advance(time.Second)
	m.RampSpeed(clock.Now())
	assert.InDelta(t, 3.3, m.Ball.VX, 1e-9)
	assert.InDelta(t, -3.3*0.75, m.Ball.VY, 1e-9)
}

func TestMatchState_RampSpeedZeroHorizontal(t *testing.T) {
	m, clock := newTestMatch(t)
	m.Start()
	m.Ball.VX, m.Ball.VY = 0, 1

	clock.Advance(time.Second)
	m.RampSpeed(clock.Now())
	assert.False(t, math.IsNaN(m.Ball.VY))
	assert.InDelta(t, 3.3, math.Abs(m.Ball.VX), 1e-9)
	assert.InDelta(t, 3.3*0.75, m.Ball.VY, 1e-9)
}

func TestMatchState_StepIntegratesWithoutCollision(t *testing.T) {
	m, _ := newTestMatch(t)
	m.Start()
	m.Ball.X, m.Ball.Y, m.Ball.VX, m.Ball.VY = 200, 100, 3, -1.5

	for i := 0; i < 20; i++ {
		x, y, vx, vy := m.Ball.X, m.Ball.Y, m.Ball.VX, m.Ball.VY
		res := m.Step(idle, idle)
		require.Equal(t, -1, res.Scorer)
		assert.Equal(t, x+vx, m.Ball.X)
		assert.Equal(t, y+vy, m.Ball.Y)
		bounced := m.Ball.Y <= 0 || m.Ball.Y >= 292
		assert.Equal(t, bounced, m.Ball.VY == -vy, "vertical sign flips only at a wall")
	}
}

func TestMatchState_StepPaddleHit(t *testing.T) {
	m, _ := newTestMatch(t)
	m.Start()
	m.SpeedMultiplier = 1.2
	m.Ball.X, m.Ball.Y, m.Ball.VX, m.Ball.VY = 30, 161, -4, 0

	res := m.Step(idle, idle)

	assert.Equal(t, -1, res.Scorer)
	assert.InDelta(t, 3.6, m.Ball.VX, 1e-9, "outward at the current speed")
	assert.InDelta(t, 0.25*3.6*3.2, m.Ball.VY, 1e-9)
}

func TestMatchState_StepScoreRelaunchKeepsMultiplier(t *testing.T) {
	m, _ := newTestMatch(t, 0.9, 0.5)
	m.Start()
	m.SpeedMultiplier = 1.3
	m.Ball.X, m.Ball.Y, m.Ball.VX, m.Ball.VY = 1, 10, -3, 0

	res := m.Step(idle, idle)

	assert.Equal(t, StepResult{Scorer: utils.RightIndex}, res)
	assert.Equal(t, [2]int{0, 1}, m.Score)
	assert.Equal(t, 1.3, m.SpeedMultiplier)
	assert.Equal(t, 210.0, m.Ball.X)
	assert.Equal(t, 150.0, m.Ball.Y)
}

func TestMatchState_StepWinningPoint(t *testing.T) {
	m, _ := newTestMatch(t)
	m.Start()
	m.Score = [2]int{2, 1}
	m.Ball.X, m.Ball.Y, m.Ball.VX, m.Ball.VY = 419, 10, 3, 0

	res := m.Step(idle, idle)

	assert.Equal(t, StepResult{Scorer: utils.LeftIndex, MatchOver: true}, res)
	assert.Equal(t, [2]int{3, 1}, m.Score)
	assert.Equal(t, "3-1", m.ScoreString())
	assert.Equal(t, utils.LeftIndex, m.Winner())
	assert.Equal(t, 422.0, m.Ball.X, "no relaunch after the winning point")
}

func TestMatchState_StartResets(t *testing.T) {
	m, clock := newTestMatch(t)
	m.Score = [2]int{3, 2}
	m.SpeedMultiplier = 1.5
	m.Paddles[0].Y, m.Paddles[0].Velocity = 0, 6

	m.Start()

	assert.Equal(t, [2]int{0, 0}, m.Score)
	assert.Equal(t, 1.0, m.SpeedMultiplier)
	assert.Equal(t, 120.0, m.Paddles[0].Y)
	assert.Equal(t, 0.0, m.Paddles[0].Velocity)
	assert.Equal(t, clock.Now(), m.StartedAt)
	assert.Equal(t, -1, m.Winner())
}

func TestMatchState_StepDemo(t *testing.T) {
	m, _ := newTestMatch(t, 0.9, 0.5)
	m.Ball.X, m.Ball.Y, m.Ball.VX, m.Ball.VY = 1, 10, -3, 0

	m.StepDemo()

	assert.Equal(t, [2]int{0, 0}, m.Score, "demo never scores")
	assert.Equal(t, 210.0, m.Ball.X)
	assert.Equal(t, 3.0, m.Ball.VX)

	m.Ball.X, m.Ball.Y, m.Ball.VX, m.Ball.VY = 390, 131, 3, 0
	m.Paddles[1].Y = 120
	m.StepDemo()
	assert.Equal(t, -3.0, m.Ball.VX)
	assert.InDelta(t, HitPosition(m.Ball, m.Paddles[1])*8, m.Ball.VY, 1e-9)
}
