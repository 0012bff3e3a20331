package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lguibr/fujipong/utils"
)

func TestInputState_Direction(t *testing.T) {
	in := NewInputState()
	assert.Equal(t, DirectionNone, in.Direction(LeftKeys))

	in.Press("s")
	assert.Equal(t, DirectionDown, in.Direction(LeftKeys))
	assert.Equal(t, DirectionNone, in.Direction(RightKeys))

	in.Press("W")
	assert.Equal(t, DirectionUp, in.Direction(LeftKeys), "up wins when both are held")

	in.Release("W")
	in.Release("s")
	assert.Equal(t, DirectionNone, in.Direction(LeftKeys))

	in.Press("K")
	assert.Equal(t, DirectionDown, in.Direction(RightKeys))
	in.Press("o")
	assert.Equal(t, DirectionUp, in.Direction(RightKeys))

	in.ReleaseAll()
	assert.False(t, in.IsPressed("o"))
}

func TestInputState_ConcurrentAccess(t *testing.T) {
	in := NewInputState()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				in.Press("w")
				_ = in.Direction(LeftKeys)
				in.Release("w")
			}
		}()
	}
	wg.Wait()
	assert.False(t, in.IsPressed("w"))
}

func TestHumanController_DrivesPaddle(t *testing.T) {
	cfg := utils.DefaultConfig()
	in := NewInputState()
	p := NewPaddle(cfg, utils.LeftIndex)
	c := HumanController{Input: in, Binding: LeftKeys}

	in.Press("w")
	c.Control(p, NewBall(cfg))
	assert.Equal(t, -1.5, p.Velocity)
	assert.Equal(t, 118.5, p.Y)
}

func TestAIController_TracksBall(t *testing.T) {
	cfg := utils.DefaultConfig()
	p := NewPaddle(cfg, utils.RightIndex)
	b := &Ball{Y: 250, Size: 8}

	AIController{}.Control(p, b)
	assert.Greater(t, p.Y, 120.0)
}
