package wheel

// Source yields uniform draws in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Pick maps a uniform draw in [0, 1) to a sector index by walking the
// cumulative weights. Intervals are half-open, so a draw landing exactly on a
// boundary belongs to the next sector. If rounding exhausts the walk the last
// index is returned.
func (w *Wheel) Pick(draw float64) int {
	remainder := draw * w.total
	for i, s := range w.sectors {
		remainder -= s.Weight
		if remainder < 0 {
			return i
		}
	}
	return len(w.sectors) - 1
}

// Select draws from src and picks a sector index.
func (w *Wheel) Select(src Source) int {
	return w.Pick(src.Float64())
}
