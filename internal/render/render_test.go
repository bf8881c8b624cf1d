package render

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"spinwheel/internal/wheel"
)

func sectors() []wheel.Sector {
	return []wheel.Sector{
		{Label: "10", Color: "#F44336", Weight: 30},
		{Label: "50", Payout: 500, Color: "#FFCE56", Weight: 7},
		{Label: "<b>&", Color: "#4BC0C0", Weight: 1},
	}
}

// recorder captures Surface calls.
type recorder struct {
	calls   []string
	wedges  [][2]float64
	texts   []string
	circles int
	tris    int
}

func (r *recorder) Bounds() (float64, float64) { return 400, 400 }
func (r *recorder) Clear() { r.calls = append(r.calls, "clear") }
func (r *recorder) FillWedge(_ Point, _ float64, start, end float64, _ string) {
	r.calls = append(r.calls, "fill")
	r.wedges = append(r.wedges, [2]float64{start, end})
}
func (r *recorder) StrokeWedge(Point, float64, float64, float64, string, float64) {
	r.calls = append(r.calls, "stroke")
}
func (r *recorder) FillText(text string, _ Point, _ float64, _ string) {
	r.calls = append(r.calls, "text")
	r.texts = append(r.texts, text)
}
func (r *recorder) FillCircle(Point, float64, string) {
	r.calls = append(r.calls, "circle")
	r.circles++
}
func (r *recorder) FillTriangle(Point, Point, Point, string) {
	r.calls = append(r.calls, "pointer")
	r.tris++
}

func TestDraw_Order(t *testing.T) {
	rec := &recorder{}
	Draw(rec, sectors(), 0.25, math.Pi/2)

	want := []string{
		"clear",
		"fill", "stroke", "text",
		"fill", "stroke", "text",
		"fill", "stroke", "text",
		"circle", "pointer",
	}
	if strings.Join(rec.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls %v, want %v", rec.calls, want)
	}
}

func TestDraw_WedgeGeometry(t *testing.T) {
	rec := &recorder{}
	rotation := 1.0
	Draw(rec, sectors(), rotation, math.Pi/2)

	arc := wheel.FullTurn / 3
	for i, w := range rec.wedges {
		wantStart := float64(i)*arc + rotation
		if math.Abs(w[0]-wantStart) > 1e-12 || math.Abs(w[1]-(wantStart+arc)) > 1e-12 {
			t.Errorf("wedge %d spans %v, want [%v, %v]", i, w, wantStart, wantStart+arc)
		}
	}
}

func TestDraw_EmptySectorsOnlyClears(t *testing.T) {
	rec := &recorder{}
	Draw(rec, nil, 0, 0)
	if len(rec.calls) != 1 || rec.calls[0] != "clear" {
		t.Errorf("calls %v, want [clear]", rec.calls)
	}
}

func TestWheelSVG_Idempotent(t *testing.T) {
	a := WheelSVG(400, sectors(), 2.5, math.Pi/2).String()
	b := WheelSVG(400, sectors(), 2.5, math.Pi/2).String()
	if a != b {
		t.Error("drawing the same wheel twice produced different SVG")
	}

	s := NewSVG(400, 400)
	Draw(s, sectors(), 2.5, math.Pi/2)
	first := s.String()
	Draw(s, sectors(), 2.5, math.Pi/2)
	if s.String() != first {
		t.Error("redrawing on the same surface should clear the previous frame")
	}
}

func TestWheelSVG_Content(t *testing.T) {
	out := WheelSVG(400, sectors(), 0, math.Pi/2).String()
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 400.00 400.00"`) {
		t.Errorf("unexpected prefix: %.80s", out)
	}
	if got := strings.Count(out, `fill="#F44336"`); got != 1 {
		t.Errorf("red wedge count %d, want 1", got)
	}
	if got := strings.Count(out, "<text"); got != 3 {
		t.Errorf("label count %d, want 3", got)
	}
	if strings.Contains(out, "<b>&") {
		t.Error("labels must be escaped")
	}
	if !strings.Contains(out, "&lt;b&gt;&amp;") {
		t.Error("escaped label missing")
	}
	if !strings.Contains(out, "<polygon") {
		t.Error("pointer missing")
	}
}

func TestWheelSVG_RotationChangesOutput(t *testing.T) {
	a := WheelSVG(400, sectors(), 0, math.Pi/2).String()
	b := WheelSVG(400, sectors(), 0.5, math.Pi/2).String()
	if a == b {
		t.Error("different rotations should render differently")
	}
}

func TestWheelSVG_SingleSectorIsFullDisc(t *testing.T) {
	out := WheelSVG(200, []wheel.Sector{{Label: "all", Color: "#123456", Weight: 1}}, 0, math.Pi/2).String()
	if !strings.Contains(out, `<circle cx="100.00" cy="100.00" r="88.00" fill="#123456"/>`) {
		t.Errorf("single sector should fill a disc: %s", out)
	}
}

func TestSVG_RenderComponent(t *testing.T) {
	s := WheelSVG(100, sectors(), 0, 0)
	var buf bytes.Buffer
	if err := s.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.String() != s.String() {
		t.Error("Render should write String()")
	}
}

func TestSVG_DeviceFlipsY(t *testing.T) {
	s := NewSVG(100, 100)
	s.FillCircle(Point{X: 10, Y: 90}, 1, "red")
	if !strings.Contains(s.String(), `cx="10.00" cy="10.00"`) {
		t.Errorf("y not flipped: %s", s.String())
	}
}
