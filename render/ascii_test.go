package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/fujipong/game"
	"github.com/lguibr/fujipong/utils"
)

func playingSnapshot(cfg utils.Config) game.Snapshot {
	left := game.NewPaddle(cfg, utils.LeftIndex)
	right := game.NewPaddle(cfg, utils.RightIndex)
	return game.Snapshot{
		Phase:           game.PhasePlaying,
		Mode:            game.ModeVersusAI,
		Names:           [2]string{"alice", ""},
		Ball:            *game.NewBall(cfg),
		Paddles:         [2]game.Paddle{*left, *right},
		Score:           [2]int{2, 1},
		SpeedMultiplier: 1,
	}
}

func countKind(g Grid, k Kind) int {
	n := 0
	for _, row := range g {
		for _, c := range row {
			if c.Kind == k {
				n++
			}
		}
	}
	return n
}

func TestCourt_PlacesEntities(t *testing.T) {
	cfg := utils.DefaultConfig()
	grid := Court(playingSnapshot(cfg), cfg, 42, 30)
	require.Len(t, grid, 30)
	require.Len(t, grid[0], 42)

	assert.Equal(t, 1, countKind(grid, KindBall))
	// 60px paddles on a 300px court are 6 rows tall.
	assert.Equal(t, 12, countKind(grid, KindPaddle))

	assert.Equal(t, KindPaddle, grid[12][2].Kind)
	assert.Equal(t, KindPaddle, grid[12][39].Kind)
	assert.Equal(t, KindBall, grid[15][21].Kind)
}

func TestCourt_ClampsOutOfBoundsBall(t *testing.T) {
	cfg := utils.DefaultConfig()
	snap := playingSnapshot(cfg)
	snap.Ball.X = cfg.CanvasWidth + 50
	snap.Ball.Y = -40

	grid := Court(snap, cfg, 42, 30)
	assert.Equal(t, KindBall, grid[0][41].Kind)
}

func TestCourt_EmptyDimensions(t *testing.T) {
	cfg := utils.DefaultConfig()
	assert.Nil(t, Court(playingSnapshot(cfg), cfg, 0, 10))
	assert.Equal(t, "", Grid(nil).String())
}

func TestGridString_Framed(t *testing.T) {
	cfg := utils.DefaultConfig()
	out := Court(playingSnapshot(cfg), cfg, 10, 4).String()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "+----------+", lines[0])
	assert.Equal(t, lines[0], lines[5])
	for _, l := range lines[1:5] {
		assert.True(t, strings.HasPrefix(l, "|") && strings.HasSuffix(l, "|"), l)
	}
}

func TestStatusLines(t *testing.T) {
	cfg := utils.DefaultConfig()

	playing := playingSnapshot(cfg)
	assert.Contains(t, StatusLines(playing)[0], "alice 2 - 1 "+utils.AIName)

	countdown := game.Snapshot{Phase: game.PhaseCountdown, Mode: game.ModeTwoHuman, Countdown: 2}
	lines := StatusLines(countdown)
	assert.Equal(t, utils.DefaultPlayer1Name+" vs "+utils.DefaultPlayer2Name, lines[0])
	assert.Equal(t, "Starting in 2", lines[1])

	entry := game.Snapshot{Phase: game.PhaseNameEntry, Mode: game.ModeVersusAI}
	entry.NameErrors[utils.LeftIndex] = "Name is required"
	lines = StatusLines(entry)
	assert.Contains(t, lines, "  Name is required")
	for _, l := range lines {
		assert.NotContains(t, l, "Player 2")
	}

	over := game.Snapshot{
		Phase:  game.PhaseGameOver,
		Winner: "alice",
		Score:  [2]int{3, 0},
		Notification: &game.Notification{
			Success:     true,
			ExplorerURL: game.ExplorerURL("0xabc"),
			ExpiresAt:   time.Now().Add(time.Second),
		},
	}
	lines = StatusLines(over)
	assert.Equal(t, "alice wins! 3 - 0", lines[0])
	assert.Equal(t, "Score recorded: "+game.ExplorerURL("0xabc"), lines[len(lines)-1])

	over.Notification = &game.Notification{Success: false}
	lines = StatusLines(over)
	assert.Equal(t, "Failed to record score", lines[len(lines)-1])
}

func TestFrame_CombinesStatusAndCourt(t *testing.T) {
	cfg := utils.DefaultConfig()
	out := Frame(game.Snapshot{Phase: game.PhaseIdle}, cfg, 20, 5)
	assert.True(t, strings.HasPrefix(out, "PONG\n"))
	assert.Contains(t, out, "+"+strings.Repeat("-", 20)+"+")
}
