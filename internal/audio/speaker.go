package audio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/speaker"

	"spinwheel/internal/lib/logger/sl"
	"spinwheel/internal/wheel"
)

// Speaker plays cues on the local audio device. When the device cannot be
// opened it stays silent.
type Speaker struct {
	mu      sync.Mutex
	enabled bool
	log     *slog.Logger
}

var _ wheel.CuePlayer = (*Speaker)(nil)

// NewSpeaker opens the default output device. Failure is logged, not fatal.
func NewSpeaker(log *slog.Logger) *Speaker {
	s := &Speaker{log: log}
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		log.Warn("audio disabled", sl.Err(err))
		return s
	}
	s.enabled = true
	return s
}

// Enabled reports whether a device is open.
func (s *Speaker) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Play queues the cue without blocking.
func (s *Speaker) Play(c wheel.Cue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	speaker.Play(Streamer(c))
}

// Close stops playback and releases the device.
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	speaker.Clear()
	speaker.Close()
	s.enabled = false
}
