package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/patrickmn/go-cache"

	"spinwheel/internal/wheel"
)

// Format is the PCM layout of encoded cues.
var Format = beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2}

// Library encodes cues to WAV once and serves them from memory.
type Library struct {
	cache *cache.Cache
}

// NewLibrary returns an empty library. Entries never expire.
func NewLibrary() *Library {
	return &Library{cache: cache.New(cache.NoExpiration, 0)}
}

// WAV returns the encoded cue.
func (l *Library) WAV(c wheel.Cue) ([]byte, error) {
	key := c.String()
	if v, ok := l.cache.Get(key); ok {
		return v.([]byte), nil
	}
	data, err := EncodeWAV(c)
	if err != nil {
		return nil, err
	}
	l.cache.Set(key, data, cache.NoExpiration)
	return data, nil
}

// EncodeWAV renders the cue into a WAV file.
func EncodeWAV(c wheel.Cue) ([]byte, error) {
	var buf writeSeeker
	if err := wav.Encode(&buf, Streamer(c), Format); err != nil {
		return nil, fmt.Errorf("encode %s cue: %w", c, err)
	}
	return buf.data, nil
}

// writeSeeker is an in-memory io.WriteSeeker, which wav.Encode needs to
// patch the header sizes after streaming.
type writeSeeker struct {
	data []byte
	pos  int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	end := w.pos + len(p)
	if end > len(w.data) {
		if end > cap(w.data) {
			grown := make([]byte, end, 2*end)
			copy(grown, w.data)
			w.data = grown
		} else {
			w.data = w.data[:end]
		}
	}
	copy(w.data[w.pos:], p)
	w.pos = end
	return len(p), nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(w.pos) + offset
	case io.SeekEnd:
		abs = int64(len(w.data)) + offset
	default:
		return 0, errors.New("writeSeeker: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("writeSeeker: negative position")
	}
	w.pos = int(abs)
	return abs, nil
}
