package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/message"

	"spinwheel/internal/fair"
	"spinwheel/internal/game"
	"spinwheel/internal/i18n"
	"spinwheel/internal/lib/api/response"
	"spinwheel/internal/lib/logger/sl"
	wheelrender "spinwheel/internal/render"
	"spinwheel/internal/viewmodel"
	"spinwheel/views/components"
	"spinwheel/views/pages"
)

const (
	wheelSize    = 400
	historyLimit = 10
	keepAlive    = 25 * time.Second
)

var validate = validator.New()

type TableHandler struct {
	store       *game.Store
	baseURL     string
	defaultLang string
	log         *slog.Logger
}

func NewTableHandler(store *game.Store, baseURL, defaultLang string, log *slog.Logger) *TableHandler {
	return &TableHandler{store: store, baseURL: baseURL, defaultLang: defaultLang, log: log}
}

// RegisterRoutes mounts the request/response routes.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Route("/table/{id}", func(r chi.Router) {
		r.Get("/", h.tablePage)
		r.Post("/join", h.join)
		r.Post("/spin", h.spin)
		r.Post("/buy", h.buy)
		r.Post("/leave", h.leave)
		r.Post("/seed", h.rotateSeed)
		r.Get("/seeds", h.seeds)
		r.Get("/wheel.svg", h.wheelImage)
		r.Get("/history", h.history)
	})
}

// RegisterStream mounts the SSE route, which must not sit behind a request
// timeout.
func (h *TableHandler) RegisterStream(r chi.Router) {
	r.Get("/table/{id}/stream", h.stream)
}

type joinForm struct {
	Username string `validate:"required,max=20"`
}

type buyForm struct {
	Package string `validate:"required"`
}

func (h *TableHandler) tablePage(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	t, ok := h.store.GetTable(tableID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	p, lang := h.printer(r, t)
	playerID := playerIDFromCookie(r, tableID)
	player, hasPlayer := t.Player(playerID)
	snapshot := t.Snapshot()

	data := viewmodel.TablePage{
		Lang:          lang,
		Title:         p.Sprintf("title.home"),
		TableID:       tableID,
		InviteURL:     h.buildInviteURL(r, tableID),
		InviteLabel:   p.Sprintf("table.invite"),
		HasPlayer:     hasPlayer,
		PlayerName:    player.Username,
		JoinLabel:     p.Sprintf("table.join"),
		UsernameLabel: p.Sprintf("table.username"),
		Wheel:         buildWheel(snapshot),
		Controls:      buildControls(p, snapshot, playerID),
		Result:        buildResult(p, snapshot),
		Players:       buildPlayers(p, snapshot, playerID),
		Buy:           buildBuy(p, snapshot, playerID),
		History:       h.buildHistory(r, p, t),
		Fairness:      h.buildFairness(p, snapshot, playerID),
	}
	render(w, r, pages.TablePage(data))
}

func (h *TableHandler) join(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	t, ok := h.store.GetTable(tableID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := joinForm{Username: strings.TrimSpace(r.FormValue("username"))}
	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, r, http.StatusBadRequest, response.ValidationError(verrs))
			return
		}
		writeError(w, r, "invalid form", http.StatusBadRequest)
		return
	}

	player, err := h.store.Join(r.Context(), t, form.Username)
	if err != nil {
		writeError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	setPlayerCookie(w, tableID, player.ID)
	http.Redirect(w, r, "/table/"+tableID, http.StatusSeeOther)
}

func (h *TableHandler) spin(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	t, ok := h.store.GetTable(tableID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	playerID := playerIDFromCookie(r, tableID)
	accepted, err := h.store.Spin(r.Context(), t, playerID)
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, game.ErrPlayerNotFound) {
			status = http.StatusUnauthorized
		}
		if !wantsFragment(r) {
			http.Redirect(w, r, "/table/"+tableID, http.StatusSeeOther)
			return
		}
		writeJSON(w, r, status, response.SpinResponse{Response: response.Error(err.Error(), status)})
		return
	}
	if !wantsFragment(r) {
		http.Redirect(w, r, "/table/"+tableID, http.StatusSeeOther)
		return
	}
	writeJSON(w, r, http.StatusOK, response.SpinResponse{Response: response.OK(), Accepted: accepted})
}

func (h *TableHandler) buy(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	t, ok := h.store.GetTable(tableID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := buyForm{Package: r.FormValue("package")}
	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, r, http.StatusBadRequest, response.ValidationError(verrs))
			return
		}
		writeError(w, r, "invalid form", http.StatusBadRequest)
		return
	}
	playerID := playerIDFromCookie(r, tableID)
	_, err := h.store.Buy(r.Context(), t, playerID, form.Package)
	switch {
	case errors.Is(err, game.ErrPlayerNotFound):
		writeError(w, r, err.Error(), http.StatusUnauthorized)
		return
	case errors.Is(err, game.ErrUnknownPackage):
		writeError(w, r, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, game.ErrInsufficientBalance):
		writeError(w, r, err.Error(), http.StatusPaymentRequired)
		return
	case err != nil:
		h.log.Error("buy package", sl.Err(err))
		writeError(w, r, "internal error", http.StatusInternalServerError)
		return
	}
	if wantsFragment(r) {
		writeJSON(w, r, http.StatusOK, response.OK())
		return
	}
	http.Redirect(w, r, "/table/"+tableID, http.StatusSeeOther)
}

func (h *TableHandler) leave(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	t, ok := h.store.GetTable(tableID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, err := h.store.Leave(r.Context(), t, playerIDFromCookie(r, tableID))
	switch {
	case errors.Is(err, game.ErrPlayerNotFound):
		clearPlayerCookie(w, tableID)
		writeError(w, r, err.Error(), http.StatusUnauthorized)
		return
	case errors.Is(err, game.ErrSpinInProgress):
		writeError(w, r, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.log.Error("leave table", sl.Err(err))
		writeError(w, r, "internal error", http.StatusInternalServerError)
		return
	}
	clearPlayerCookie(w, tableID)
	if wantsFragment(r) {
		writeJSON(w, r, http.StatusOK, response.OK())
		return
	}
	http.Redirect(w, r, "/table/"+tableID, http.StatusSeeOther)
}

type seedReveal struct {
	ServerSeed     string    `json:"server_seed"`
	ServerSeedHash string    `json:"server_seed_hash"`
	ClientSeed     string    `json:"client_seed"`
	Draws          int       `json:"draws"`
	NextSeedHash   string    `json:"next_seed_hash"`
	RevealedAt     time.Time `json:"revealed_at"`
}

type seedsResponse struct {
	CurrentSeedHash string       `json:"current_seed_hash"`
	Revealed        []seedReveal `json:"revealed"`
}

type rotateResponse struct {
	response.Response
	seedReveal
	Verified int `json:"verified"`
}

func toSeedReveal(r fair.Reveal) seedReveal {
	return seedReveal{
		ServerSeed:     r.ServerSeed,
		ServerSeedHash: r.ServerSeedHash,
		ClientSeed:     r.ClientSeed,
		Draws:          r.Draws,
		NextSeedHash:   r.NextSeedHash,
		RevealedAt:     r.RevealedAt,
	}
}

func (h *TableHandler) rotateSeed(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	t, ok := h.store.GetTable(tableID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	reveal, err := h.store.RotateSeed(r.Context(), t, playerIDFromCookie(r, tableID))
	switch {
	case errors.Is(err, game.ErrNotOwner):
		writeError(w, r, err.Error(), http.StatusForbidden)
		return
	case errors.Is(err, game.ErrSpinInProgress):
		writeError(w, r, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.log.Error("rotate seed", sl.Err(err))
		writeError(w, r, "internal error", http.StatusInternalServerError)
		return
	}
	if !wantsFragment(r) && !strings.Contains(r.Header.Get("Accept"), "application/json") {
		http.Redirect(w, r, "/table/"+tableID+"/seeds", http.StatusSeeOther)
		return
	}
	writeJSON(w, r, http.StatusOK, rotateResponse{
		Response:   response.OK(),
		seedReveal: toSeedReveal(reveal.Reveal),
		Verified:   reveal.Verified,
	})
}

func (h *TableHandler) seeds(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	t, ok := h.store.GetTable(tableID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	out := seedsResponse{CurrentSeedHash: t.SeedHash(), Revealed: []seedReveal{}}
	for _, rev := range t.Reveals() {
		out.Revealed = append(out.Revealed, toSeedReveal(rev))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *TableHandler) wheelImage(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	t, ok := h.store.GetTable(tableID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	size := parseInt(r.URL.Query().Get("size"), wheelSize)
	if size < 100 {
		size = 100
	}
	if size > 1000 {
		size = 1000
	}
	snapshot := t.Snapshot()
	svg := wheelrender.WheelSVG(float64(size), snapshot.Sectors, snapshot.Rotation, snapshot.Pointer)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(svg.String()))
}

type historyEntry struct {
	Player  string    `json:"player"`
	Label   string    `json:"label"`
	Payout  float64   `json:"payout"`
	Win     bool      `json:"win"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func (h *TableHandler) history(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	t, ok := h.store.GetTable(tableID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	p, _ := h.printer(r, t)
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		results, err := h.store.History(r.Context(), t, historyLimit)
		if err != nil {
			h.log.Error("load history", sl.Err(err))
			writeError(w, r, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]historyEntry, 0, len(results))
		for _, res := range results {
			out = append(out, historyEntry{
				Player:  res.PlayerName,
				Label:   res.Outcome.Sector.Label,
				Payout:  res.Outcome.Sector.Payout,
				Win:     res.Outcome.Win,
				Message: i18n.ResultMessage(p, res.Outcome),
				At:      res.At,
			})
		}
		writeJSON(w, r, http.StatusOK, out)
		return
	}
	render(w, r, components.History(h.buildHistory(r, p, t)))
}

func (h *TableHandler) stream(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	t, ok := h.store.GetTable(tableID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	playerID := playerIDFromCookie(r, tableID)
	p, _ := h.printer(r, t)

	hub := h.store.Broadcaster(tableID)
	sub := hub.Subscribe()
	h.log.Debug("viewer connected", sl.String("table", tableID), sl.Any("viewers", hub.Subscribers()))
	defer func() {
		hub.Unsubscribe(sub)
		h.log.Debug("viewer disconnected", sl.String("table", tableID), sl.Any("viewers", hub.Subscribers()))
	}()

	type parts struct {
		wheel, controls, result, players bool
	}
	send := func(what parts) {
		snapshot := t.Snapshot()
		if what.wheel {
			writeSSE(w, game.EventWheel, renderToString(r, components.Wheel(buildWheel(snapshot))))
		}
		if what.controls {
			writeSSE(w, game.EventControls, renderToString(r, components.Controls(buildControls(p, snapshot, playerID))))
		}
		if what.result {
			writeSSE(w, game.EventResult, renderToString(r, components.Result(buildResult(p, snapshot))))
			writeSSE(w, "history", renderToString(r, components.History(h.buildHistory(r, p, t))))
			writeSSE(w, "fairness", renderToString(r, components.Fairness(h.buildFairness(p, snapshot, playerID))))
		}
		if what.players {
			writeSSE(w, game.EventPlayers, renderToString(r, components.Players(buildPlayers(p, snapshot, playerID))))
			writeSSE(w, "buy", renderToString(r, components.Buy(buildBuy(p, snapshot, playerID))))
		}
		flusher.Flush()
	}

	send(parts{wheel: true, controls: true, result: true, players: true})

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub:
			if !open {
				return
			}
			switch {
			case event == game.EventWheel:
				send(parts{wheel: true})
			case event == game.EventControls:
				send(parts{controls: true, result: true})
			case event == game.EventResult:
				send(parts{result: true})
			case event == game.EventPlayers:
				send(parts{players: true, controls: true})
			case strings.HasPrefix(event, game.EventCuePrefix):
				writeSSE(w, "cue", strings.TrimPrefix(event, game.EventCuePrefix))
				flusher.Flush()
			}
		case <-ticker.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func (h *TableHandler) printer(r *http.Request, t *game.Table) (*message.Printer, string) {
	fallback := t.Lang
	if fallback == "" {
		fallback = h.defaultLang
	}
	tag := i18n.ResolveTag(r, fallback)
	return i18n.Printer(tag), i18n.Base(tag)
}

func (h *TableHandler) buildInviteURL(r *http.Request, tableID string) string {
	if baseURL := strings.TrimSpace(h.baseURL); baseURL != "" {
		return strings.TrimRight(baseURL, "/") + "/table/" + tableID
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/table/" + tableID
}

func (h *TableHandler) buildHistory(r *http.Request, p *message.Printer, t *game.Table) viewmodel.HistoryFragment {
	data := viewmodel.HistoryFragment{Heading: p.Sprintf("table.history")}
	results, err := h.store.History(r.Context(), t, historyLimit)
	if err != nil {
		h.log.Error("load history", sl.Err(err), sl.String("table", t.ID))
		return data
	}
	for _, res := range results {
		text := i18n.ResultMessage(p, res.Outcome)
		if res.PlayerName != "" {
			text = p.Sprintf("result.spinner", res.PlayerName, res.Outcome.Sector.Label)
		}
		data.Entries = append(data.Entries, viewmodel.HistoryEntry{
			Text:  text,
			Win:   res.Outcome.Win,
			At:    res.At.Format("15:04:05"),
			Proof: proofText(res.Proof),
		})
	}
	return data
}

func buildWheel(s game.Snapshot) viewmodel.WheelFragment {
	return viewmodel.WheelFragment{
		TableID:  s.ID,
		Size:     wheelSize,
		Sectors:  s.Sectors,
		Rotation: s.Rotation,
		Pointer:  s.Pointer,
	}
}

func buildControls(p *message.Printer, s game.Snapshot, playerID string) viewmodel.ControlsFragment {
	data := viewmodel.ControlsFragment{TableID: s.ID, Spinning: s.Spinning()}
	player, ok := findPlayer(s, playerID)
	data.HasPlayer = ok
	switch {
	case s.Spinning():
		data.Label = p.Sprintf("table.spinning")
		data.Disabled = true
	case ok && player.Spins <= 0:
		data.Label = p.Sprintf("table.no_spins")
		data.Disabled = true
	default:
		data.Label = p.Sprintf("table.spin")
	}
	if ok {
		data.BalanceLabel = p.Sprintf("table.balance", player.Balance)
		data.SpinsLabel = p.Sprintf("table.spins_left", player.Spins)
		data.LeaveLabel = p.Sprintf("table.leave")
	}
	return data
}

func buildResult(p *message.Printer, s game.Snapshot) viewmodel.ResultFragment {
	if s.Last == nil || s.Spinning() {
		return viewmodel.ResultFragment{}
	}
	last := s.Last
	return viewmodel.ResultFragment{
		Visible: true,
		Message: i18n.ResultMessage(p, last.Outcome),
		Spinner: last.PlayerName,
		Win:     last.Outcome.Win,
		Proof:   proofText(last.Proof),
	}
}

func proofText(pr fair.Proof) string {
	return fmt.Sprintf("%s seed=%s client=%s nonce=%d", pr.Algorithm, pr.ServerSeedHash, pr.ClientSeed, pr.Nonce)
}

func (h *TableHandler) buildFairness(p *message.Printer, s game.Snapshot, playerID string) viewmodel.FairnessFragment {
	data := viewmodel.FairnessFragment{
		TableID:       s.ID,
		Heading:       p.Sprintf("table.fairness"),
		SeedHashLabel: p.Sprintf("table.seed_hash"),
		SeedHash:      s.SeedHash,
		CanRotate:     playerID != "" && playerID == s.OwnerID && !s.Spinning(),
		RotateLabel:   p.Sprintf("table.rotate_seed"),
		RevealedLabel: p.Sprintf("table.revealed_seeds"),
	}
	w := h.store.Wheel()
	for i, sec := range s.Sectors {
		data.Odds = append(data.Odds, viewmodel.OddsEntry{
			Label:   sec.Label,
			Percent: p.Sprintf("%.1f%%", w.Probability(i)*100),
		})
	}
	return data
}

func buildPlayers(p *message.Printer, s game.Snapshot, playerID string) viewmodel.PlayersFragment {
	data := viewmodel.PlayersFragment{Heading: p.Sprintf("table.players")}
	for _, pl := range s.Players {
		data.Players = append(data.Players, viewmodel.PlayerEntry{
			Name:    pl.Username,
			Balance: pl.Balance,
			Spins:   pl.Spins,
			Self:    pl.ID == playerID,
		})
	}
	return data
}

func buildBuy(p *message.Printer, s game.Snapshot, playerID string) viewmodel.BuyFragment {
	player, ok := findPlayer(s, playerID)
	data := viewmodel.BuyFragment{TableID: s.ID, Heading: p.Sprintf("table.buy"), Visible: ok}
	for _, pkg := range s.Packages {
		data.Packages = append(data.Packages, viewmodel.PackageOption{
			Key:        pkg.Key,
			Label:      p.Sprintf("table.package", pkg.Label, pkg.Price),
			Affordable: ok && player.Balance >= pkg.Price,
		})
	}
	return data
}

func findPlayer(s game.Snapshot, id string) (game.Player, bool) {
	if id == "" {
		return game.Player{}, false
	}
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return game.Player{}, false
}

func playerIDFromCookie(r *http.Request, tableID string) string {
	cookie, err := r.Cookie(playerCookieName(tableID))
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setPlayerCookie(w http.ResponseWriter, tableID string, playerID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName(tableID),
		Value:    playerID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
}

func clearPlayerCookie(w http.ResponseWriter, tableID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName(tableID),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func playerCookieName(tableID string) string {
	return "spinwheel_player_" + tableID
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
