package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/lguibr/fujipong/game"
	"github.com/lguibr/fujipong/utils"
)

// Kind tells a front end how to style a cell.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNet
	KindPaddle
	KindBall
)

// Glyphs used for each kind of cell.
var glyphs = map[Kind]rune{
	KindEmpty:  ' ',
	KindNet:    ':',
	KindPaddle: '#',
	KindBall:   'O',
}

type Cell struct {
	Rune rune
	Kind Kind
}

// Grid is the court rasterized to characters, row major.
type Grid [][]Cell

// Court maps the snapshot's court onto cols x rows cells.
func Court(snap game.Snapshot, cfg utils.Config, cols, rows int) Grid {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	grid := make(Grid, rows)
	for y := range grid {
		grid[y] = make([]Cell, cols)
		for x := range grid[y] {
			grid[y][x] = Cell{Rune: glyphs[KindEmpty], Kind: KindEmpty}
		}
	}

	toCol := func(x float64) int { return clampIndex(x/cfg.CanvasWidth*float64(cols), cols) }
	toRow := func(y float64) int { return clampIndex(y/cfg.CanvasHeight*float64(rows), rows) }
	set := func(x, y int, k Kind) { grid[y][x] = Cell{Rune: glyphs[k], Kind: k} }

	net := cols / 2
	for y := 0; y < rows; y += 2 {
		set(net, y, KindNet)
	}

	for _, p := range snap.Paddles {
		col := toCol(p.X + p.Width/2)
		for y := toRow(p.Y); y <= toRow(p.Y+p.Height-1); y++ {
			set(col, y, KindPaddle)
		}
	}

	b := snap.Ball
	if b.Size > 0 {
		set(toCol(b.X+b.Size/2), toRow(b.CenterY()), KindBall)
	}
	return grid
}

func clampIndex(v float64, n int) int {
	i := int(math.Floor(v))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// String draws the grid inside a frame.
func (g Grid) String() string {
	if len(g) == 0 {
		return ""
	}
	var sb strings.Builder
	border := "+" + strings.Repeat("-", len(g[0])) + "+\n"
	sb.WriteString(border)
	for _, row := range g {
		sb.WriteByte('|')
		for _, c := range row {
			sb.WriteRune(c.Rune)
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}

// StatusLines describes the phase-specific text shown around the court.
func StatusLines(snap game.Snapshot) []string {
	left, right := playerLabels(snap)
	var lines []string
	switch snap.Phase {
	case game.PhaseIdle:
		lines = append(lines, "PONG", "[p] play   [q] quit")
	case game.PhaseModeSelect:
		lines = append(lines, "Select mode", "[1] 1v1   [2] 1vAI   [esc] back")
	case game.PhaseNameEntry:
		lines = append(lines, fmt.Sprintf("Player 1: %s_", snap.Names[utils.LeftIndex]))
		if snap.NameErrors[utils.LeftIndex] != "" {
			lines = append(lines, "  "+snap.NameErrors[utils.LeftIndex])
		}
		if snap.Mode == game.ModeTwoHuman {
			lines = append(lines, fmt.Sprintf("Player 2: %s", snap.Names[utils.RightIndex]))
			if snap.NameErrors[utils.RightIndex] != "" {
				lines = append(lines, "  "+snap.NameErrors[utils.RightIndex])
			}
		}
		lines = append(lines, "[tab] switch field   [enter] start   [esc] back")
	case game.PhaseCountdown:
		lines = append(lines, fmt.Sprintf("%s vs %s", left, right), fmt.Sprintf("Starting in %d", snap.Countdown))
	case game.PhasePlaying:
		lines = append(lines, fmt.Sprintf("%s %d - %d %s", left, snap.Score[utils.LeftIndex], snap.Score[utils.RightIndex], right),
			fmt.Sprintf("speed x%.1f", snap.SpeedMultiplier))
	case game.PhaseGameOver:
		lines = append(lines, fmt.Sprintf("%s wins! %d - %d", snap.Winner, snap.Score[utils.LeftIndex], snap.Score[utils.RightIndex]),
			"[r] play again   [esc] menu")
	}

	if n := snap.Notification; n != nil {
		if n.Success {
			lines = append(lines, "Score recorded: "+n.ExplorerURL)
		} else {
			lines = append(lines, "Failed to record score")
		}
	}
	return lines
}

func playerLabels(snap game.Snapshot) (string, string) {
	left, right := snap.Names[utils.LeftIndex], snap.Names[utils.RightIndex]
	if left == "" {
		left = utils.DefaultPlayer1Name
	}
	switch {
	case snap.Mode == game.ModeVersusAI:
		right = utils.AIName
	case right == "":
		right = utils.DefaultPlayer2Name
	}
	return left, right
}

// Frame renders the status lines above the framed court.
func Frame(snap game.Snapshot, cfg utils.Config, cols, rows int) string {
	return strings.Join(StatusLines(snap), "\n") + "\n" + Court(snap, cfg, cols, rows).String()
}
