// Package render draws a wheel onto a Surface. Angles are in radians,
// counter-clockwise, with y pointing up; each Surface maps that frame onto its
// own device coordinates.
package render

import (
	"math"

	"spinwheel/internal/wheel"
)

// Point is a position in surface units, origin at the bottom-left, y up.
type Point struct {
	X, Y float64
}

// Polar returns the point at radius r and angle a around c.
func Polar(c Point, r, a float64) Point {
	return Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
}

// Surface is a 2D drawing target.
type Surface interface {
	// Bounds returns the drawable width and height.
	Bounds() (width, height float64)
	Clear()
	FillWedge(c Point, radius, start, end float64, fill string)
	StrokeWedge(c Point, radius, start, end float64, stroke string, width float64)
	// FillText draws text whose right edge sits at anchor, rotated by angle.
	FillText(text string, anchor Point, angle float64, fill string)
	FillCircle(c Point, radius float64, fill string)
	FillTriangle(a, b, c Point, fill string)
}

const (
	borderColor  = "#333"
	borderWidth  = 2
	labelColor   = "white"
	labelInset   = 20
	hubRadius    = 10
	pointerColor = "#222"
	pointerSize  = 14
	margin       = 12
)

// Draw clears s and draws the full wheel at rotation with a pointer marker at
// pointer. It keeps no state between calls.
func Draw(s Surface, sectors []wheel.Sector, rotation, pointer float64) {
	w, h := s.Bounds()
	c := Point{X: w / 2, Y: h / 2}
	radius := math.Min(w, h)/2 - margin

	s.Clear()
	if len(sectors) == 0 || radius <= 0 {
		return
	}
	arc := wheel.FullTurn / float64(len(sectors))
	for i, sector := range sectors {
		start := float64(i)*arc + rotation
		end := start + arc
		s.FillWedge(c, radius, start, end, sector.Color)
		s.StrokeWedge(c, radius, start, end, borderColor, borderWidth)

		mid := start + arc/2
		s.FillText(sector.Label, Polar(c, radius-labelInset, mid), mid, labelColor)
	}
	s.FillCircle(c, hubRadius, borderColor)

	// The pointer sits just outside the rim and points at the centre.
	tip := Polar(c, radius-pointerSize/2, pointer)
	half := pointerSize / 2 / (radius + pointerSize)
	left := Polar(c, radius+pointerSize/2, pointer-half)
	right := Polar(c, radius+pointerSize/2, pointer+half)
	s.FillTriangle(tip, left, right, pointerColor)
}
