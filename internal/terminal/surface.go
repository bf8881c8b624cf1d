// Package terminal draws and drives the wheel in a text terminal.
package terminal

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"spinwheel/internal/render"
	"spinwheel/internal/wheel"
)

// A terminal cell is about twice as tall as it is wide. Surface units are
// scaled so the fixed pixel sizes used by render.Draw still fit.
const (
	unitsPerColumn = 8
	unitsPerRow    = 2 * unitsPerColumn
)

type cell struct {
	bg string
	fg string
	ch rune
}

// Surface is a render.Surface over a tcell screen. Rows reserved at the
// bottom are left for the status line.
type Surface struct {
	screen   tcell.Screen
	cols     int
	rows     int
	reserved int
	cells    map[[2]int]cell
}

var _ render.Surface = (*Surface)(nil)

// NewSurface wraps screen, keeping reserved rows free at the bottom.
func NewSurface(screen tcell.Screen, reserved int) *Surface {
	s := &Surface{screen: screen, reserved: reserved}
	s.Resize()
	return s
}

// Resize picks up the current screen size.
func (s *Surface) Resize() {
	cols, rows := s.screen.Size()
	rows -= s.reserved
	if rows < 0 {
		rows = 0
	}
	s.cols, s.rows = cols, rows
}

func (s *Surface) Bounds() (float64, float64) {
	return float64(s.cols * unitsPerColumn), float64(s.rows * unitsPerRow)
}

func (s *Surface) Clear() {
	s.cells = make(map[[2]int]cell)
	for row := 0; row < s.rows; row++ {
		for col := 0; col < s.cols; col++ {
			s.screen.SetContent(col, row, ' ', nil, tcell.StyleDefault)
		}
	}
}

// centre returns the surface point at the middle of a cell.
func (s *Surface) centre(col, row int) render.Point {
	return render.Point{
		X: (float64(col) + 0.5) * unitsPerColumn,
		Y: (float64(s.rows-row) - 0.5) * unitsPerRow,
	}
}

func (s *Surface) cellAt(p render.Point) (int, int) {
	col := int(math.Floor(p.X / unitsPerColumn))
	row := s.rows - 1 - int(math.Floor(p.Y/unitsPerRow))
	return col, row
}

func (s *Surface) inside(col, row int) bool {
	return col >= 0 && col < s.cols && row >= 0 && row < s.rows
}

func (s *Surface) set(col, row int, c cell) {
	if !s.inside(col, row) {
		return
	}
	if s.cells == nil {
		s.cells = make(map[[2]int]cell)
	}
	s.cells[[2]int{col, row}] = c
	style := tcell.StyleDefault
	if c.bg != "" {
		style = style.Background(tcell.GetColor(c.bg))
	}
	if c.fg != "" {
		style = style.Foreground(tcell.GetColor(c.fg))
	}
	ch := c.ch
	if ch == 0 {
		ch = ' '
	}
	s.screen.SetContent(col, row, ch, nil, style)
}

// fill paints the background of every cell whose centre satisfies in.
func (s *Surface) fill(color string, in func(render.Point) bool) {
	for row := 0; row < s.rows; row++ {
		for col := 0; col < s.cols; col++ {
			if in(s.centre(col, row)) {
				s.set(col, row, cell{bg: color})
			}
		}
	}
}

func inWedge(c render.Point, radius, start, end float64, p render.Point) bool {
	dx, dy := p.X-c.X, p.Y-c.Y
	if dx*dx+dy*dy > radius*radius {
		return false
	}
	span := end - start
	if span >= wheel.FullTurn {
		return true
	}
	return wheel.Normalize(math.Atan2(dy, dx)-start) < span
}

func (s *Surface) FillWedge(c render.Point, radius, start, end float64, fill string) {
	s.fill(fill, func(p render.Point) bool { return inWedge(c, radius, start, end, p) })
}

// StrokeWedge marks the wedge's leading edge; neighbouring wedges mark the
// rest. Width is at least one cell.
func (s *Surface) StrokeWedge(c render.Point, radius, start, _ float64, stroke string, width float64) {
	half := math.Max(width, unitsPerColumn) / 2
	dir := render.Point{X: math.Cos(start), Y: math.Sin(start)}
	for row := 0; row < s.rows; row++ {
		for col := 0; col < s.cols; col++ {
			p := s.centre(col, row)
			dx, dy := p.X-c.X, p.Y-c.Y
			along := dx*dir.X + dy*dir.Y
			if along < 0 || along > radius {
				continue
			}
			if math.Abs(dx*dir.Y-dy*dir.X) > half {
				continue
			}
			prev := s.cells[[2]int{col, row}]
			s.set(col, row, cell{bg: prev.bg, fg: stroke, ch: '·'})
		}
	}
}

// FillText writes text horizontally, centred on the anchor; cells cannot be
// rotated.
func (s *Surface) FillText(text string, anchor render.Point, _ float64, fill string) {
	runes := []rune(text)
	col, row := s.cellAt(anchor)
	col -= len(runes) / 2
	for i, r := range runes {
		prev := s.cells[[2]int{col + i, row}]
		s.set(col+i, row, cell{bg: prev.bg, fg: fill, ch: r})
	}
}

func (s *Surface) FillCircle(c render.Point, radius float64, fill string) {
	s.fill(fill, func(p render.Point) bool {
		dx, dy := p.X-c.X, p.Y-c.Y
		return dx*dx+dy*dy <= radius*radius
	})
	// A hub smaller than a cell still shows.
	col, row := s.cellAt(c)
	s.set(col, row, cell{bg: fill})
}

func (s *Surface) FillTriangle(a, b, c render.Point, fill string) {
	s.fill(fill, func(p render.Point) bool { return inTriangle(a, b, c, p) })
	col, row := s.cellAt(render.Point{X: (a.X + b.X + c.X) / 3, Y: (a.Y + b.Y + c.Y) / 3})
	s.set(col, row, cell{bg: fill})
}

func inTriangle(a, b, c, p render.Point) bool {
	sign := func(p1, p2, p3 render.Point) float64 {
		return (p1.X-p3.X)*(p2.Y-p3.Y) - (p2.X-p3.X)*(p1.Y-p3.Y)
	}
	d1, d2, d3 := sign(p, a, b), sign(p, b, c), sign(p, c, a)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

// Background returns the colour painted at a cell during the last draw.
func (s *Surface) Background(col, row int) (string, bool) {
	c, ok := s.cells[[2]int{col, row}]
	if !ok || c.bg == "" {
		return "", false
	}
	return c.bg, true
}

// Rune returns the character drawn at a cell, if any.
func (s *Surface) Rune(col, row int) rune {
	return s.cells[[2]int{col, row}].ch
}
