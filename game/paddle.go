// File: game/paddle.go
package game

import (
	"github.com/lguibr/fujipong/utils"
)

// Direction is a paddle control intent.
type Direction int

const (
	DirectionNone Direction = 0
	DirectionUp   Direction = -1
	DirectionDown Direction = 1
)

// Paddle is one of the two vertical paddles. X is fixed by its side, Y is
// the top edge and always stays within [0, CanvasHeight-PaddleHeight].
type Paddle struct {
	Index    int     `json:"index" msgpack:"index"`
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	Width    float64 `json:"width" msgpack:"width"`
	Height   float64 `json:"height" msgpack:"height"`
	Velocity float64 `json:"velocity" msgpack:"velocity"`
	cfg      utils.Config
}

// NewPaddle creates a centered paddle for the given side.
func NewPaddle(cfg utils.Config, index int) *Paddle {
	x := cfg.PaddleOffset
	if index == utils.RightIndex {
		x = cfg.CanvasWidth - cfg.PaddleWidth - cfg.PaddleOffset
	}
	return &Paddle{
		Index:  index,
		X:      x,
		Y:      cfg.CenteredPaddleY(),
		Width:  cfg.PaddleWidth,
		Height: cfg.PaddleHeight,
		cfg:    cfg,
	}
}

// CenterY is the vertical midpoint of the paddle.
func (p *Paddle) CenterY() float64 { return p.Y + p.Height/2 }

// Reset centers the paddle and stops it.
func (p *Paddle) Reset() {
	p.Y = p.cfg.CenteredPaddleY()
	p.Velocity = 0
}

// Drive applies one frame of the human acceleration model. A held direction
// accelerates with a guaranteed minimum speed, a released one decays toward
// zero. Velocity is kept when the paddle hits a bound so a reversal responds
// immediately.
func (p *Paddle) Drive(dir Direction) {
	switch dir {
	case DirectionUp, DirectionDown:
		d := float64(dir)
		p.Velocity += d * p.cfg.PaddleAcceleration
		if d*p.Velocity < p.cfg.PaddleMinVelocity {
			p.Velocity = d * p.cfg.PaddleMinVelocity
		}
		p.Velocity = utils.Clamp(p.Velocity, -p.cfg.PaddleMaxSpeed, p.cfg.PaddleMaxSpeed)
	default:
		p.Velocity = utils.Approach(p.Velocity, p.cfg.PaddleDeceleration)
	}
	p.Y = utils.Clamp(p.Y+p.Velocity, 0, p.cfg.MaxPaddleY())
}

// Track applies one frame of the AI rule: step toward targetY at a fixed
// speed unless it is within the deadband of the paddle center.
func (p *Paddle) Track(targetY float64) {
	step := p.cfg.PaddleBaseSpeed * p.cfg.AISpeedFactor
	center := p.CenterY()
	switch {
	case targetY < center-p.cfg.AIDeadband:
		p.Y = utils.Clamp(p.Y-step, 0, p.cfg.MaxPaddleY())
	case targetY > center+p.cfg.AIDeadband:
		p.Y = utils.Clamp(p.Y+step, 0, p.cfg.MaxPaddleY())
	}
}

// Place moves the paddle's center to y, clamped to the court.
func (p *Paddle) Place(centerY float64) {
	p.Y = utils.Clamp(centerY-p.Height/2, 0, p.cfg.MaxPaddleY())
}
