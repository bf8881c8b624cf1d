package wheel

// EaseOutCubic is 1 - (1-p)^3 with p clamped to [0, 1].
func EaseOutCubic(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	q := 1 - p
	return 1 - q*q*q
}
