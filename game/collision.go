// File: game/collision.go
package game

import (
	"github.com/lguibr/fujipong/utils"
)

// Collides reports whether the ball's box overlaps the paddle's box.
func (b *Ball) Collides(p *Paddle) bool {
	return utils.RectsOverlap(b.X, b.Y, b.Size, b.Size, p.X, p.Y, p.Width, p.Height)
}

// HitPosition is where the ball struck the paddle, from -0.5 (top edge) to
// 0.5 (bottom edge), measured at the ball center.
func HitPosition(b *Ball, p *Paddle) float64 {
	return utils.Clamp((b.CenterY()-p.Y)/p.Height-0.5, -0.5, 0.5)
}

// outward is the horizontal sign that points away from the paddle.
func outward(p *Paddle) float64 {
	if p.Index == utils.LeftIndex {
		return 1
	}
	return -1
}

// Deflect sends the ball away from the paddle at speed and aims it with
// vy = hitPosition * aim. The approach speed is discarded so nothing leaks
// into the rally.
func (b *Ball) Deflect(p *Paddle, speed, aim float64) {
	hit := HitPosition(b, p)
	b.VX = outward(p) * speed
	b.VY = hit * aim
}

// resolvePaddleHits deflects the ball off whichever paddle it touches.
// It returns the index of that paddle or -1.
func resolvePaddleHits(b *Ball, paddles [utils.MaxPlayers]*Paddle, deflect func(*Paddle)) int {
	for i, p := range paddles {
		if p != nil && b.Collides(p) {
			deflect(p)
			return i
		}
	}
	return -1
}
