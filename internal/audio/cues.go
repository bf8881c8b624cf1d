// Package audio synthesizes the spin, win and lose cues.
package audio

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"

	"spinwheel/internal/wheel"
)

// SampleRate is used for both the speaker and encoded WAV files.
const SampleRate = beep.SampleRate(44100)

type note struct {
	freq     float64
	duration time.Duration
}

// Cue scores. A zero frequency is a rest.
var (
	spinNotes = []note{
		{660, 40 * time.Millisecond}, {0, 30 * time.Millisecond},
		{740, 40 * time.Millisecond}, {0, 30 * time.Millisecond},
		{880, 60 * time.Millisecond},
	}
	winNotes = []note{
		{523.25, 110 * time.Millisecond},
		{659.25, 110 * time.Millisecond},
		{783.99, 110 * time.Millisecond},
		{1046.5, 260 * time.Millisecond},
	}
	loseNotes = []note{
		{392, 180 * time.Millisecond},
		{277.18, 320 * time.Millisecond},
	}
)

const cueGain = -0.6

func score(c wheel.Cue) []note {
	switch c {
	case wheel.CueWin:
		return winNotes
	case wheel.CueLose:
		return loseNotes
	default:
		return spinNotes
	}
}

// Duration is the playing time of the cue.
func Duration(c wheel.Cue) time.Duration {
	var d time.Duration
	for _, n := range score(c) {
		d += n.duration
	}
	return d
}

// Streamer returns a fresh, finite streamer for the cue.
func Streamer(c wheel.Cue) beep.Streamer {
	notes := score(c)
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		parts = append(parts, tone(n))
	}
	return &effects.Gain{Streamer: beep.Seq(parts...), Gain: cueGain}
}

func tone(n note) beep.Streamer {
	samples := SampleRate.N(n.duration)
	if n.freq <= 0 {
		return beep.Silence(samples)
	}
	sine, err := generators.SineTone(SampleRate, n.freq)
	if err != nil {
		return beep.Silence(samples)
	}
	return newDecay(beep.Take(samples, sine), samples)
}

// decay fades a note out linearly over its last quarter to avoid clicks.
type decay struct {
	streamer beep.Streamer
	position int
	total    int
	release  int
}

func newDecay(s beep.Streamer, total int) *decay {
	return &decay{streamer: s, total: total, release: total / 4}
}

func (d *decay) Stream(samples [][2]float64) (int, bool) {
	n, ok := d.streamer.Stream(samples)
	start := d.total - d.release
	for i := 0; i < n; i++ {
		if d.position >= start && d.release > 0 {
			vol := float64(d.total-d.position) / float64(d.release)
			if vol < 0 {
				vol = 0
			}
			samples[i][0] *= vol
			samples[i][1] *= vol
		}
		d.position++
	}
	return n, ok
}

func (d *decay) Err() error { return d.streamer.Err() }
