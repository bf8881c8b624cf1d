package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	chirender "github.com/go-chi/render"

	"spinwheel/internal/lib/api/response"
)

func render(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		http.Error(w, "failed to render", http.StatusInternalServerError)
	}
}

func renderToString(r *http.Request, component templ.Component) string {
	var buf bytes.Buffer
	_ = component.Render(r.Context(), &buf)
	return buf.String()
}

func writeSSE(w http.ResponseWriter, event string, data string) {
	_, _ = w.Write([]byte("event: " + event + "\n"))
	for _, line := range strings.Split(data, "\n") {
		_, _ = w.Write([]byte("data: " + line + "\n"))
	}
	_, _ = w.Write([]byte("\n"))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	chirender.Status(r, status)
	chirender.JSON(w, r, payload)
}

func writeError(w http.ResponseWriter, r *http.Request, msg string, status int) {
	writeJSON(w, r, status, response.Error(msg, status))
}

// wantsFragment reports whether the request came from the page script rather
// than a plain form post.
func wantsFragment(r *http.Request) bool {
	return r.Header.Get("Hx-Request") == "true"
}
