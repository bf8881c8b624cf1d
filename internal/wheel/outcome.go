package wheel

// Cue is an acknowledgement sound triggered by the engine.
type Cue int

const (
	CueSpin Cue = iota
	CueWin
	CueLose
)

func (c Cue) String() string {
	switch c {
	case CueSpin:
		return "spin"
	case CueWin:
		return "win"
	case CueLose:
		return "lose"
	default:
		return "unknown"
	}
}

// ParseCue is the inverse of Cue.String.
func ParseCue(name string) (Cue, bool) {
	switch name {
	case "spin":
		return CueSpin, true
	case "win":
		return CueWin, true
	case "lose":
		return CueLose, true
	}
	return 0, false
}

// CuePlayer receives cues. Implementations must not block.
type CuePlayer interface {
	Play(Cue)
}

type noCues struct{}

func (noCues) Play(Cue) {}

// Outcome is the settled result of a spin.
type Outcome struct {
	Index  int
	Sector Sector
	Win    bool
}

// Cue returns the win or lose cue for the outcome.
func (o Outcome) Cue() Cue {
	if o.Win {
		return CueWin
	}
	return CueLose
}

// Outcome classifies the sector at index: a positive payout wins.
func (w *Wheel) Outcome(index int) Outcome {
	s := w.sectors[index]
	return Outcome{
		Index:  index,
		Sector: s,
		Win:    s.Payout > 0,
	}
}
