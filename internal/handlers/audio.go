package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"spinwheel/internal/audio"
	"spinwheel/internal/lib/logger/sl"
	"spinwheel/internal/wheel"
)

type AudioHandler struct {
	lib *audio.Library
	log *slog.Logger
}

func NewAudioHandler(lib *audio.Library, log *slog.Logger) *AudioHandler {
	return &AudioHandler{lib: lib, log: log}
}

func (h *AudioHandler) RegisterRoutes(r chi.Router) {
	r.Get("/audio/{file}", h.cue)
}

func (h *AudioHandler) cue(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".wav")
	if !ok {
		http.NotFound(w, r)
		return
	}
	c, ok := wheel.ParseCue(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data, err := h.lib.WAV(c)
	if err != nil {
		h.log.Error("encode cue", sl.Err(err), sl.String("cue", name))
		http.Error(w, "failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}
