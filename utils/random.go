package utils

import (
	"math/rand"
	"sync"
	"time"
)

// Random is the source of launch directions and angles.
type Random interface {
	Float64() float64
}

// lockedRandom guards a *rand.Rand, which is not safe for concurrent use.
type lockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *lockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// NewRandom returns a seeded Random. Equal seeds replay equal sequences.
func NewRandom(seed int64) Random {
	return &lockedRandom{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRandom seeds from the wall clock.
func NewTimeSeededRandom() Random {
	return NewRandom(time.Now().UnixNano())
}

// Clock abstracts wall-clock reads for the speed ramp, match duration and
// notification expiry.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
