// Package tui draws snapshots on a tcell screen and turns key events into
// game commands. Both terminal front ends share it.
package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lguibr/fujipong/game"
	"github.com/lguibr/fujipong/render"
	"github.com/lguibr/fujipong/utils"
)

var (
	styleDefault = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleHeader  = styleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleBorder  = styleDefault.Foreground(tcell.ColorDarkGray)
	styleNet     = styleDefault.Foreground(tcell.ColorGray)
	stylePaddle  = styleDefault.Foreground(tcell.ColorLime)
	styleBall    = styleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleSuccess = styleDefault.Foreground(tcell.ColorSpringGreen)
	styleFailure = styleDefault.Foreground(tcell.ColorRed)
)

var kindStyles = map[render.Kind]tcell.Style{
	render.KindEmpty:  styleDefault,
	render.KindNet:    styleNet,
	render.KindPaddle: stylePaddle,
	render.KindBall:   styleBall,
}

// Draw clears the screen and paints the status lines followed by the court,
// scaled to whatever room is left.
func Draw(s tcell.Screen, snap game.Snapshot, cfg utils.Config) {
	s.Clear()
	w, h := s.Size()

	lines := render.StatusLines(snap)
	for i, line := range lines {
		style := styleHeader
		if snap.Notification != nil && i == len(lines)-1 {
			style = styleFailure
			if snap.Notification.Success {
				style = styleSuccess
			}
		}
		DrawText(s, 0, i, line, style)
	}

	top := len(lines)
	cols, rows := w-2, h-top-2
	grid := render.Court(snap, cfg, cols, rows)
	if grid == nil {
		s.Show()
		return
	}
	drawBorder(s, 0, top, cols+2, rows+2)
	for y, row := range grid {
		for x, c := range row {
			s.SetContent(x+1, top+1+y, c.Rune, nil, kindStyles[c.Kind])
		}
	}
	s.Show()
}

// DrawText writes text starting at x,y without wrapping.
func DrawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func drawBorder(s tcell.Screen, x, y, w, h int) {
	for i := x + 1; i < x+w-1; i++ {
		s.SetContent(i, y, tcell.RuneHLine, nil, styleBorder)
		s.SetContent(i, y+h-1, tcell.RuneHLine, nil, styleBorder)
	}
	for j := y + 1; j < y+h-1; j++ {
		s.SetContent(x, j, tcell.RuneVLine, nil, styleBorder)
		s.SetContent(x+w-1, j, tcell.RuneVLine, nil, styleBorder)
	}
	s.SetContent(x, y, tcell.RuneULCorner, nil, styleBorder)
	s.SetContent(x+w-1, y, tcell.RuneURCorner, nil, styleBorder)
	s.SetContent(x, y+h-1, tcell.RuneLLCorner, nil, styleBorder)
	s.SetContent(x+w-1, y+h-1, tcell.RuneLRCorner, nil, styleBorder)
}
