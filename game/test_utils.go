// File: game/test_utils.go
package game

import (
	"context"
	"sync"

	"github.com/lguibr/fujipong/utils"
)

// --- Test Helpers (exported so other packages' tests can reuse them) ---

// RecordingSubmitter is a Submitter that records every call and answers
// with a fixed response.
type RecordingSubmitter struct {
	mu       sync.Mutex
	calls    []MatchResult
	Response SubmitResponse
	Err      error
}

func (r *RecordingSubmitter) SubmitScore(_ context.Context, result MatchResult) (SubmitResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, result)
	return r.Response, r.Err
}

// Calls returns a copy of the recorded results.
func (r *RecordingSubmitter) Calls() []MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MatchResult(nil), r.calls...)
}

// PerfectTracker keeps the paddle centered on the ball, so it returns every
// ball that reaches it.
func PerfectTracker() Controller {
	return ControllerFunc(func(p *Paddle, b *Ball) {
		p.Place(b.CenterY())
	})
}

// EvasiveController parks the paddle in the half of the court the ball is
// not in, so it never returns a ball.
func EvasiveController(cfg utils.Config) Controller {
	return ControllerFunc(func(p *Paddle, b *Ball) {
		if b.CenterY() >= cfg.CanvasHeight/2 {
			p.Y = 0
		} else {
			p.Y = cfg.MaxPaddleY()
		}
	})
}

// RecordingSubscriber is a Subscriber that keeps the snapshots it receives.
type RecordingSubscriber struct {
	mu        sync.Mutex
	snapshots []Snapshot
	closed    bool
	SendErr   error
}

func (r *RecordingSubscriber) Send(s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SendErr != nil {
		return r.SendErr
	}
	r.snapshots = append(r.snapshots, s)
	return nil
}

func (r *RecordingSubscriber) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Last returns the latest snapshot and whether there was one.
func (r *RecordingSubscriber) Last() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return Snapshot{}, false
	}
	return r.snapshots[len(r.snapshots)-1], true
}

func (r *RecordingSubscriber) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *RecordingSubscriber) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
