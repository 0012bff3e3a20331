package game

import (
	"github.com/lguibr/fujipong/utils"
)

// Ball is the square ball. X and Y are its top-left corner in court pixels,
// VX and VY are in pixels per frame.
type Ball struct {
	X    float64 `json:"x" msgpack:"x"`
	Y    float64 `json:"y" msgpack:"y"`
	VX   float64 `json:"vx" msgpack:"vx"`
	VY   float64 `json:"vy" msgpack:"vy"`
	Size float64 `json:"size" msgpack:"size"`
}

func NewBall(cfg utils.Config) *Ball {
	b := &Ball{Size: cfg.BallSize}
	b.Center(cfg)
	return b
}

// Center puts the ball at the middle of the court without touching velocity.
func (b *Ball) Center(cfg utils.Config) {
	b.X = cfg.CanvasWidth / 2
	b.Y = cfg.CanvasHeight / 2
}

// CenterY is the vertical midpoint of the ball.
func (b *Ball) CenterY() float64 { return b.Y + b.Size/2 }

// Move advances the ball by one frame of velocity.
func (b *Ball) Move() {
	b.X += b.VX
	b.Y += b.VY
}

// BounceWalls reflects the vertical velocity when the ball reaches the top or
// bottom wall. The position is not corrected.
func (b *Ball) BounceWalls(courtHeight float64) bool {
	if b.Y <= 0 || b.Y >= courtHeight-b.Size {
		b.VY = -b.VY
		return true
	}
	return false
}

// OutOfBounds reports which side the ball has fully left the court through.
// It returns -1 while the ball is still in play.
func (b *Ball) OutOfBounds(courtWidth float64) int {
	switch {
	case b.X < 0:
		return utils.LeftIndex
	case b.X > courtWidth:
		return utils.RightIndex
	}
	return -1
}

// launch sets a fresh velocity: horizontal speed toward dir and a vertical
// component of up to yRatio of it.
func (b *Ball) launch(rng utils.Random, speed, yRatio float64) {
	dir := 1.0
	if rng.Float64() < 0.5 {
		dir = -1
	}
	b.VX = dir * speed
	b.VY = (rng.Float64()*2 - 1) * speed * yRatio
}
