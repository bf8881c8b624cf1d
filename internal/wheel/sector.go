// Package wheel models a weighted prize wheel: its sectors, the weighted
// selector, and the spin engine that animates rotation toward a chosen sector.
package wheel

import (
	"errors"
	"fmt"
	"math"
)

// FullTurn is one complete rotation in radians.
const FullTurn = 2 * math.Pi

var (
	ErrNoSectors     = errors.New("wheel has no sectors")
	ErrInvalidWeight = errors.New("sector weight must be positive")
	ErrInvalidPayout = errors.New("sector payout must not be negative")
)

// Sector is one wedge of the wheel.
type Sector struct {
	Label  string
	Payout float64
	Color  string
	Weight float64
}

// Wheel is an ordered, immutable list of sectors.
type Wheel struct {
	sectors []Sector
	total   float64
}

// New validates sectors and builds a wheel. The slice is copied.
func New(sectors []Sector) (*Wheel, error) {
	if len(sectors) == 0 {
		return nil, ErrNoSectors
	}
	own := make([]Sector, len(sectors))
	copy(own, sectors)
	total := 0.0
	for i, s := range own {
		if !(s.Weight > 0) || math.IsInf(s.Weight, 1) {
			return nil, fmt.Errorf("sector %d (%q): %w", i, s.Label, ErrInvalidWeight)
		}
		if s.Payout < 0 {
			return nil, fmt.Errorf("sector %d (%q): %w", i, s.Label, ErrInvalidPayout)
		}
		total += s.Weight
	}
	return &Wheel{sectors: own, total: total}, nil
}

// MustNew is New for statically defined wheels; it panics on invalid input.
func MustNew(sectors []Sector) *Wheel {
	w, err := New(sectors)
	if err != nil {
		panic(err)
	}
	return w
}

// Sectors returns a copy of the sector list in wheel order.
func (w *Wheel) Sectors() []Sector {
	out := make([]Sector, len(w.sectors))
	copy(out, w.sectors)
	return out
}

// Sector returns the sector at index i.
func (w *Wheel) Sector(i int) Sector {
	return w.sectors[i]
}

// Len returns the number of sectors.
func (w *Wheel) Len() int {
	return len(w.sectors)
}

// TotalWeight is the sum of all sector weights.
func (w *Wheel) TotalWeight() float64 {
	return w.total
}

// Arc is the angular width of one sector.
func (w *Wheel) Arc() float64 {
	return FullTurn / float64(len(w.sectors))
}

// Probability returns weight[i] / total.
func (w *Wheel) Probability(i int) float64 {
	return w.sectors[i].Weight / w.total
}

// Normalize reduces an angle into [0, 2π).
func Normalize(angle float64) float64 {
	a := math.Mod(angle, FullTurn)
	if a < 0 {
		a += FullTurn
	}
	if a >= FullTurn {
		a = 0
	}
	return a
}
