// File: game/match.go
package game

import (
	"math"
	"time"

	"github.com/lguibr/fujipong/utils"
)

// StepResult describes the scoring outcome of one frame.
type StepResult struct {
	Scorer    int  // Index of the side that scored, -1 for none
	MatchOver bool // Scorer reached the winning score
}

var noScore = StepResult{Scorer: -1}

// MatchState is the live simulation: ball, paddles, scores and the speed
// ramp. It is owned by a single Session and not safe for concurrent use.
type MatchState struct {
	Ball            *Ball
	Paddles         [utils.MaxPlayers]*Paddle
	Score           [utils.MaxPlayers]int
	SpeedMultiplier float64
	LastSpeedRamp   time.Time
	StartedAt       time.Time

	cfg   utils.Config
	clock utils.Clock
	rng   utils.Random
}

func NewMatchState(cfg utils.Config, clock utils.Clock, rng utils.Random) *MatchState {
	m := &MatchState{
		Ball:            NewBall(cfg),
		SpeedMultiplier: 1,
		cfg:             cfg,
		clock:           clock,
		rng:             rng,
	}
	for i := range m.Paddles {
		m.Paddles[i] = NewPaddle(cfg, i)
	}
	return m
}

// CurrentSpeed is the rally speed: base speed times the multiplier, capped.
func (m *MatchState) CurrentSpeed() float64 {
	return math.Min(m.cfg.BallSpeedBase*m.SpeedMultiplier, m.cfg.BallSpeedMax)
}

// Reset zeroes the scores, centers and stops the paddles, puts the ball in
// the middle and resets the multiplier.
func (m *MatchState) Reset() {
	m.Score = [utils.MaxPlayers]int{}
	for _, p := range m.Paddles {
		p.Reset()
	}
	m.Ball.Center(m.cfg)
	m.SpeedMultiplier = 1
}

// Start resets the match and launches the first ball, recording the start time.
func (m *MatchState) Start() {
	m.Reset()
	m.Launch(true)
	m.StartedAt = m.clock.Now()
}

// Launch serves the ball from the center in a random direction. A first
// launch also resets the multiplier and restarts the ramp timer; later
// launches keep the multiplier.
func (m *MatchState) Launch(first bool) {
	m.Ball.Center(m.cfg)
	if first {
		m.SpeedMultiplier = 1
		m.LastSpeedRamp = m.clock.Now()
	}
	m.Ball.launch(m.rng, m.CurrentSpeed(), m.cfg.BallSpeedYRatio)
}

// RampSpeed raises the multiplier once per ramp interval until the speed cap
// and rescales the ball velocity, keeping the direction on each axis and the
// vertical to horizontal ratio (capped at BallSpeedYRatio). It reports
// whether the multiplier changed.
func (m *MatchState) RampSpeed(now time.Time) bool {
	if now.Sub(m.LastSpeedRamp) < m.cfg.BallSpeedRampInterval {
		return false
	}
	m.LastSpeedRamp = now

	maxMultiplier := m.cfg.MaxSpeedMultiplier()
	if m.SpeedMultiplier >= maxMultiplier {
		return false
	}
	m.SpeedMultiplier = math.Min(m.SpeedMultiplier+m.cfg.BallSpeedIncreaseRate, maxMultiplier)

	speed := m.CurrentSpeed()
	b := m.Ball
	ratio := m.cfg.BallSpeedYRatio
	if b.VX != 0 {
		ratio = math.Min(math.Abs(b.VY)/math.Abs(b.VX), ratio)
	}
	b.VX = utils.Sign(b.VX) * speed
	b.VY = utils.Sign(b.VY) * speed * ratio
	return true
}

// Step advances one frame of a live match.
func (m *MatchState) Step(left, right Controller) StepResult {
	m.RampSpeed(m.clock.Now())

	left.Control(m.Paddles[utils.LeftIndex], m.Ball)
	right.Control(m.Paddles[utils.RightIndex], m.Ball)

	m.Ball.Move()
	m.Ball.BounceWalls(m.cfg.CanvasHeight)

	speed := m.CurrentSpeed()
	resolvePaddleHits(m.Ball, m.Paddles, func(p *Paddle) {
		m.Ball.Deflect(p, speed, speed*m.cfg.BallHitSpeedFactor)
	})

	exited := m.Ball.OutOfBounds(m.cfg.CanvasWidth)
	if exited < 0 {
		return noScore
	}
	scorer := 1 - exited
	m.Score[scorer]++
	if m.Score[scorer] >= m.cfg.WinningScore {
		return StepResult{Scorer: scorer, MatchOver: true}
	}
	m.Launch(false)
	return StepResult{Scorer: scorer}
}

// StepDemo advances one frame of the cosmetic AI-vs-AI rally. Speed never
// ramps and nobody scores; a ball that leaves the court is served again.
func (m *MatchState) StepDemo() {
	ai := AIController{}
	for _, p := range m.Paddles {
		ai.Control(p, m.Ball)
	}

	m.Ball.Move()
	m.Ball.BounceWalls(m.cfg.CanvasHeight)

	resolvePaddleHits(m.Ball, m.Paddles, func(p *Paddle) {
		m.Ball.Deflect(p, m.cfg.BallSpeedBase, m.cfg.DemoBallHitSpeedFactor)
	})

	if m.Ball.OutOfBounds(m.cfg.CanvasWidth) >= 0 {
		m.ServeDemo()
	}
}

// ServeDemo puts the ball in the middle at base speed.
func (m *MatchState) ServeDemo() {
	m.Ball.Center(m.cfg)
	m.Ball.launch(m.rng, m.cfg.BallSpeedBase, m.cfg.BallSpeedYRatio)
}

// ScoreString formats the score as "<left>-<right>".
func (m *MatchState) ScoreString() string {
	return formatScore(m.Score)
}

// Winner returns the index of the side at the winning score, or -1.
func (m *MatchState) Winner() int {
	for i, s := range m.Score {
		if s >= m.cfg.WinningScore {
			return i
		}
	}
	return -1
}
