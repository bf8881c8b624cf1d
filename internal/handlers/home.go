package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language/display"

	"spinwheel/internal/game"
	"spinwheel/internal/i18n"
	"spinwheel/internal/lib/api/response"
	"spinwheel/internal/lib/logger/sl"
	"spinwheel/internal/viewmodel"
	"spinwheel/views/pages"
)

type HomeHandler struct {
	store       *game.Store
	defaultLang string
	log         *slog.Logger
}

func NewHomeHandler(store *game.Store, defaultLang string, log *slog.Logger) *HomeHandler {
	return &HomeHandler{store: store, defaultLang: defaultLang, log: log}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Post("/tables", h.createTable)
}

type createTableForm struct {
	Lang string `validate:"omitempty,oneof=en it"`
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	tag := i18n.ResolveTag(r, h.defaultLang)
	p := i18n.Printer(tag)
	current := i18n.Base(tag)
	var langs []viewmodel.LanguageOption
	for _, t := range i18n.Supported() {
		code := i18n.Base(t)
		langs = append(langs, viewmodel.LanguageOption{
			Code:     code,
			Label:    display.Self.Name(t),
			Selected: code == current,
		})
	}
	render(w, r, pages.HomePage(viewmodel.HomePage{
		Lang:          current,
		Title:         p.Sprintf("title.home"),
		CreateLabel:   p.Sprintf("home.create"),
		LanguageLabel: p.Sprintf("table.language"),
		Languages:     langs,
	}))
}

func (h *HomeHandler) createTable(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := createTableForm{Lang: r.FormValue("lang")}
	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, r, http.StatusBadRequest, response.ValidationError(verrs))
			return
		}
		h.log.Error("validate create form", sl.Err(err))
		writeError(w, r, "invalid form", http.StatusBadRequest)
		return
	}
	lang := form.Lang
	if lang == "" {
		lang = i18n.Base(i18n.ResolveTag(r, h.defaultLang))
	}
	t := h.store.CreateTable(lang)
	http.Redirect(w, r, "/table/"+t.ID, http.StatusSeeOther)
}
