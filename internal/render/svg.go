package render

import (
	"context"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"spinwheel/internal/wheel"
)

const (
	labelFont = "Arial, sans-serif"
	labelSize = 18
)

// SVG is a Surface that accumulates an SVG document. It also satisfies
// templ.Component so a drawn wheel can be embedded in a page.
type SVG struct {
	width, height float64
	body          strings.Builder
}

var _ templ.Component = (*SVG)(nil)

// NewSVG creates an empty SVG surface of the given size.
func NewSVG(width, height float64) *SVG {
	return &SVG{width: width, height: height}
}

func (s *SVG) Bounds() (float64, float64) { return s.width, s.height }

func (s *SVG) Clear() { s.body.Reset() }

func (s *SVG) FillWedge(c Point, radius, start, end float64, fill string) {
	if fullCircle(start, end) {
		s.FillCircle(c, radius, fill)
		return
	}
	s.body.WriteString(`<path d="`)
	s.body.WriteString(s.wedgePath(c, radius, start, end))
	s.body.WriteString(`" fill="`)
	s.body.WriteString(templ.EscapeString(fill))
	s.body.WriteString(`"/>`)
}

func (s *SVG) StrokeWedge(c Point, radius, start, end float64, stroke string, width float64) {
	s.body.WriteString(`<path d="`)
	if fullCircle(start, end) {
		s.body.WriteString(s.circlePath(c, radius))
	} else {
		s.body.WriteString(s.wedgePath(c, radius, start, end))
	}
	s.body.WriteString(`" fill="none" stroke="`)
	s.body.WriteString(templ.EscapeString(stroke))
	s.body.WriteString(`" stroke-width="`)
	s.body.WriteString(num(width))
	s.body.WriteString(`" stroke-linejoin="round"/>`)
}

func (s *SVG) FillText(text string, anchor Point, angle float64, fill string) {
	x, y := s.device(anchor)
	s.body.WriteString(`<text x="` + num(x) + `" y="` + num(y) + `"`)
	s.body.WriteString(` transform="rotate(` + num(-angle*180/math.Pi) + ` ` + num(x) + ` ` + num(y) + `)"`)
	s.body.WriteString(` text-anchor="end" dominant-baseline="middle" font-weight="bold"`)
	s.body.WriteString(` font-size="` + strconv.Itoa(labelSize) + `" font-family="` + labelFont + `"`)
	s.body.WriteString(` fill="` + templ.EscapeString(fill) + `">`)
	s.body.WriteString(templ.EscapeString(text))
	s.body.WriteString(`</text>`)
}

func (s *SVG) FillCircle(c Point, radius float64, fill string) {
	x, y := s.device(c)
	s.body.WriteString(`<circle cx="` + num(x) + `" cy="` + num(y) + `" r="` + num(radius) + `" fill="` + templ.EscapeString(fill) + `"/>`)
}

func (s *SVG) FillTriangle(a, b, c Point, fill string) {
	s.body.WriteString(`<polygon points="`)
	for i, p := range []Point{a, b, c} {
		if i > 0 {
			s.body.WriteByte(' ')
		}
		x, y := s.device(p)
		s.body.WriteString(num(x) + "," + num(y))
	}
	s.body.WriteString(`" fill="` + templ.EscapeString(fill) + `"/>`)
}

// String returns the complete SVG document.
func (s *SVG) String() string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)
	b.WriteString(num(s.width) + " " + num(s.height))
	b.WriteString(`" width="` + num(s.width) + `" height="` + num(s.height) + `" role="img">`)
	b.WriteString(s.body.String())
	b.WriteString(`</svg>`)
	return b.String()
}

// Render writes the document; it implements templ.Component.
func (s *SVG) Render(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, s.String())
	return err
}

// device converts a y-up point to SVG's y-down coordinates.
func (s *SVG) device(p Point) (float64, float64) {
	return p.X, s.height - p.Y
}

// wedgePath is the closed path from the centre along the rim from start to
// end. Counter-clockwise in a y-up frame stays counter-clockwise on screen,
// which is SVG's negative sweep.
func (s *SVG) wedgePath(c Point, radius, start, end float64) string {
	cx, cy := s.device(c)
	x1, y1 := s.device(Polar(c, radius, start))
	x2, y2 := s.device(Polar(c, radius, end))
	large := "0"
	if end-start > math.Pi {
		large = "1"
	}
	return "M" + num(cx) + " " + num(cy) +
		" L" + num(x1) + " " + num(y1) +
		" A" + num(radius) + " " + num(radius) + " 0 " + large + " 0 " + num(x2) + " " + num(y2) +
		" Z"
}

// circlePath is a full rim drawn as two half arcs.
func (s *SVG) circlePath(c Point, radius float64) string {
	cx, cy := s.device(c)
	r := num(radius)
	return "M" + num(cx-radius) + " " + num(cy) +
		" A" + r + " " + r + " 0 1 0 " + num(cx+radius) + " " + num(cy) +
		" A" + r + " " + r + " 0 1 0 " + num(cx-radius) + " " + num(cy) + " Z"
}

func fullCircle(start, end float64) bool {
	return end-start >= wheel.FullTurn-1e-9
}

func num(v float64) string {
	out := strconv.FormatFloat(v, 'f', 2, 64)
	if out == "-0.00" {
		return "0.00"
	}
	return out
}

// WheelSVG draws the wheel on a fresh size x size SVG surface.
func WheelSVG(size float64, sectors []wheel.Sector, rotation, pointer float64) *SVG {
	s := NewSVG(size, size)
	Draw(s, sectors, rotation, pointer)
	return s
}
