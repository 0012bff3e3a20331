// File: game/input.go
package game

import (
	"sync"

	"github.com/lguibr/fujipong/utils"
)

// KeyBinding is the pair of key sets that drive one paddle. Up wins when
// keys from both sets are held.
type KeyBinding struct {
	Up   []string
	Down []string
}

var (
	LeftKeys  = KeyBinding{Up: []string{"w", "W"}, Down: []string{"s", "S"}}
	RightKeys = KeyBinding{Up: []string{"o", "O"}, Down: []string{"k", "K"}}
)

// Bindings lists the key binding of each paddle by index.
var Bindings = [utils.MaxPlayers]KeyBinding{LeftKeys, RightKeys}

// InputState is the last known pressed/released state of every key. Key
// events may arrive from any goroutine; the simulation reads it once per
// frame.
type InputState struct {
	mu   sync.RWMutex
	keys map[string]bool
}

func NewInputState() *InputState {
	return &InputState{keys: make(map[string]bool)}
}

func (s *InputState) Press(key string) {
	s.mu.Lock()
	s.keys[key] = true
	s.mu.Unlock()
}

func (s *InputState) Release(key string) {
	s.mu.Lock()
	s.keys[key] = false
	s.mu.Unlock()
}

// ReleaseAll forgets every held key.
func (s *InputState) ReleaseAll() {
	s.mu.Lock()
	s.keys = make(map[string]bool)
	s.mu.Unlock()
}

func (s *InputState) IsPressed(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[key]
}

// Direction resolves a binding against the current key state.
func (s *InputState) Direction(b KeyBinding) Direction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range b.Up {
		if s.keys[k] {
			return DirectionUp
		}
	}
	for _, k := range b.Down {
		if s.keys[k] {
			return DirectionDown
		}
	}
	return DirectionNone
}

// Controller produces one frame of movement for a paddle.
type Controller interface {
	Control(p *Paddle, b *Ball)
}

// HumanController reads a key binding from shared input state.
type HumanController struct {
	Input   *InputState
	Binding KeyBinding
}

func (c HumanController) Control(p *Paddle, _ *Ball) {
	p.Drive(c.Input.Direction(c.Binding))
}

// AIController tracks the ball center. Demo autoplay uses it on both sides.
type AIController struct{}

func (AIController) Control(p *Paddle, b *Ball) {
	p.Track(b.CenterY())
}

// ControllerFunc adapts a plain function to Controller.
type ControllerFunc func(p *Paddle, b *Ball)

func (f ControllerFunc) Control(p *Paddle, b *Ball) { f(p, b) }
