package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"spinwheel/internal/audio"
	"spinwheel/internal/config"
	"spinwheel/internal/game"
	"spinwheel/internal/lib/api/response"
	"spinwheel/internal/lib/logger/sl"
)

const testWheelYAML = `
spin:
  turns: 1
  duration: 2s
player:
  starting_balance: 100
  starting_spins: 2
sectors:
  - {label: "10", payout: 10, color: "#FF0000", weight: 30}
  - {label: "Nothing", payout: 0, color: "#000000", weight: 10}
packages:
  - {key: small, spins: 3, price: 30, label: "3 spins"}
`

func newTestServer(t *testing.T) (*chi.Mux, *game.Store) {
	t.Helper()
	wf, err := config.ParseWheel([]byte(testWheelYAML))
	if err != nil {
		t.Fatalf("ParseWheel: %v", err)
	}
	store, err := game.NewStore(wf)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(store.Close)
	log := sl.Discard()
	r := chi.NewRouter()
	NewHomeHandler(store, "en", log).RegisterRoutes(r)
	tables := NewTableHandler(store, "https://wheel.example", "en", log)
	tables.RegisterRoutes(r)
	tables.RegisterStream(r)
	NewAudioHandler(audio.NewLibrary(), log).RegisterRoutes(r)
	return r, store
}

func postForm(r http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func joinTable(t *testing.T, r http.Handler, tableID, name string) *http.Cookie {
	t.Helper()
	rec := postForm(r, "/table/"+tableID+"/join", url.Values{"username": {name}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("join status %d, body %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == playerCookieName(tableID) {
			return c
		}
	}
	t.Fatal("join did not set the player cookie")
	return nil
}

func TestHome_RendersLocalized(t *testing.T) {
	r, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/?lang=it", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Ruota della Fortuna") {
		t.Errorf("expected Italian title, got %s", rec.Body.String())
	}
}

func TestCreateTable_Redirects(t *testing.T) {
	r, store := newTestServer(t)
	rec := postForm(r, "/tables", url.Values{"lang": {"it"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	id := strings.TrimPrefix(loc, "/table/")
	tbl, ok := store.GetTable(id)
	if !ok {
		t.Fatalf("table %q not created", id)
	}
	if tbl.Lang != "it" {
		t.Errorf("Lang %q, want it", tbl.Lang)
	}
}

func TestCreateTable_RejectsUnknownLanguage(t *testing.T) {
	r, _ := newTestServer(t)
	rec := postForm(r, "/tables", url.Values{"lang": {"xx"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestTablePage_NotFound(t *testing.T) {
	r, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/table/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestTablePage_ShowsWheelAndInvite(t *testing.T) {
	r, store := newTestServer(t)
	tbl := store.CreateTable("en")
	req := httptest.NewRequest(http.MethodGet, "/table/"+tbl.ID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(body, "<svg") {
		t.Error("page should embed the wheel")
	}
	if !strings.Contains(body, "https://wheel.example/table/"+tbl.ID) {
		t.Error("page should show the invite link")
	}
}

func TestJoin_Validation(t *testing.T) {
	r, store := newTestServer(t)
	tbl := store.CreateTable("en")
	rec := postForm(r, "/table/"+tbl.ID+"/join", url.Values{"username": {"   "}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	var resp response.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.Error, "Username is required") {
		t.Errorf("error %q", resp.Error)
	}
}

func TestSpin_AcceptsOnceWhileSpinning(t *testing.T) {
	r, store := newTestServer(t)
	tbl := store.CreateTable("en")
	cookie := joinTable(t, r, tbl.ID, "alice")

	spin := func() response.SpinResponse {
		req := httptest.NewRequest(http.MethodPost, "/table/"+tbl.ID+"/spin", nil)
		req.Header.Set("Hx-Request", "true")
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("spin status %d body %s", rec.Code, rec.Body.String())
		}
		var resp response.SpinResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp
	}

	if first := spin(); !first.Accepted {
		t.Fatal("first spin should be accepted")
	}
	if second := spin(); second.Accepted {
		t.Fatal("spin during a spin should be ignored")
	}
	p, _ := tbl.Player(cookie.Value)
	if p.Spins != 1 {
		t.Errorf("Spins %d, want 1", p.Spins)
	}
}

func TestSpin_WithoutPlayer(t *testing.T) {
	r, store := newTestServer(t)
	tbl := store.CreateTable("en")
	req := httptest.NewRequest(http.MethodPost, "/table/"+tbl.ID+"/spin", nil)
	req.Header.Set("Hx-Request", "true")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestBuy_Errors(t *testing.T) {
	r, store := newTestServer(t)
	tbl := store.CreateTable("en")
	cookie := joinTable(t, r, tbl.ID, "alice")

	if rec := postForm(r, "/table/"+tbl.ID+"/buy", url.Values{"package": {"huge"}}, cookie); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown package status %d, want 400", rec.Code)
	}
	if rec := postForm(r, "/table/"+tbl.ID+"/buy", url.Values{}, cookie); rec.Code != http.StatusBadRequest {
		t.Errorf("missing package status %d, want 400", rec.Code)
	}
	if rec := postForm(r, "/table/"+tbl.ID+"/buy", url.Values{"package": {"small"}}, cookie); rec.Code != http.StatusSeeOther {
		t.Errorf("purchase status %d, want 303", rec.Code)
	}
	p, _ := tbl.Player(cookie.Value)
	if p.Balance != 70 || p.Spins != 5 {
		t.Errorf("credits %d/%d, want 70/5", p.Balance, p.Spins)
	}
}

func TestWheelImage(t *testing.T) {
	r, store := newTestServer(t)
	tbl := store.CreateTable("en")
	req := httptest.NewRequest(http.MethodGet, "/table/"+tbl.ID+"/wheel.svg?size=200", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `viewBox="0 0 200.00 200.00"`) {
		t.Errorf("unexpected svg %s", rec.Body.String())
	}
}

func TestHistory_JSONEmpty(t *testing.T) {
	r, store := newTestServer(t)
	tbl := store.CreateTable("en")
	req := httptest.NewRequest(http.MethodGet, "/table/"+tbl.ID+"/history", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body %q, want []", got)
	}
}

func TestAudioCue(t *testing.T) {
	r, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/audio/win.wav", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "RIFF") {
		t.Error("expected a WAV body")
	}

	for _, path := range []string{"/audio/boom.wav", "/audio/win.mp3"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s status %d, want 404", path, rec.Code)
		}
	}
}

func TestTablePage_ShowsOddsAndLeave(t *testing.T) {
	r, store := newTestServer(t)
	tbl := store.CreateTable("en")
	cookie := joinTable(t, r, tbl.ID, "alice")

	req := httptest.NewRequest(http.MethodGet, "/table/"+tbl.ID+"/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"75.0%", "25.0%",
		tbl.SeedHash(),
		"/table/" + tbl.ID + "/leave",
		"/table/" + tbl.ID + "/seed\"",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestLeave_ClearsPlayerAndAllowsRejoin(t *testing.T) {
	r, store := newTestServer(t)
	tbl := store.CreateTable("en")

	if rec := postForm(r, "/table/"+tbl.ID+"/leave", url.Values{}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("leave without player status %d, want 401", rec.Code)
	}

	cookie := joinTable(t, r, tbl.ID, "alice")
	rec := postForm(r, "/table/"+tbl.ID+"/leave", url.Values{}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("leave status %d, body %s", rec.Code, rec.Body.String())
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == playerCookieName(tbl.ID) && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("leave should clear the player cookie")
	}
	if _, ok := tbl.Player(cookie.Value); ok {
		t.Error("player still at the table")
	}

	again := joinTable(t, r, tbl.ID, "alice")
	if again.Value == cookie.Value {
		t.Error("re-registration should create a new player")
	}
	p, _ := tbl.Player(again.Value)
	if p.Spins != 2 || p.Balance != 100 {
		t.Errorf("re-registered credits %d/%d, want 100/2", p.Balance, p.Spins)
	}
}

func TestLeave_SpinnerMustWait(t *testing.T) {
	r, store := newTestServer(t)
	tbl := store.CreateTable("en")
	cookie := joinTable(t, r, tbl.ID, "alice")
	if ok, err := tbl.Spin(cookie.Value, time.Now()); err != nil || !ok {
		t.Fatalf("spin ok=%v err=%v", ok, err)
	}
	if rec := postForm(r, "/table/"+tbl.ID+"/leave", url.Values{}, cookie); rec.Code != http.StatusConflict {
		t.Fatalf("leave mid-spin status %d, want 409", rec.Code)
	}
}

func TestRotateSeed_OwnerOnly(t *testing.T) {
	r, store := newTestServer(t)
	tbl := store.CreateTable("en")
	owner := joinTable(t, r, tbl.ID, "alice")
	guest := joinTable(t, r, tbl.ID, "bob")
	committed := tbl.SeedHash()

	rotate := func(c *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/table/"+tbl.ID+"/seed", nil)
		req.Header.Set("Accept", "application/json")
		req.AddCookie(c)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := rotate(guest); rec.Code != http.StatusForbidden {
		t.Fatalf("guest rotate status %d, want 403", rec.Code)
	}
	rec := rotate(owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner rotate status %d, body %s", rec.Code, rec.Body.String())
	}
	var got struct {
		ServerSeed     string `json:"server_seed"`
		ServerSeedHash string `json:"server_seed_hash"`
		NextSeedHash   string `json:"next_seed_hash"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ServerSeed == "" || got.ServerSeedHash != committed || got.NextSeedHash != tbl.SeedHash() {
		t.Errorf("reveal %+v, committed %s", got, committed)
	}

	req := httptest.NewRequest(http.MethodGet, "/table/"+tbl.ID+"/seeds", nil)
	list := httptest.NewRecorder()
	r.ServeHTTP(list, req)
	var seeds struct {
		CurrentSeedHash string `json:"current_seed_hash"`
		Revealed        []struct {
			ServerSeed string `json:"server_seed"`
		} `json:"revealed"`
	}
	if err := json.NewDecoder(list.Body).Decode(&seeds); err != nil {
		t.Fatalf("decode seeds: %v", err)
	}
	if seeds.CurrentSeedHash != tbl.SeedHash() || len(seeds.Revealed) != 1 || seeds.Revealed[0].ServerSeed != got.ServerSeed {
		t.Errorf("seeds %+v", seeds)
	}
}
