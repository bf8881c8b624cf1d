package game

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"spinwheel/internal/config"
	"spinwheel/internal/fair"
	"spinwheel/internal/wheel"
)

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrNoSpinsLeft         = errors.New("no spins left")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownPackage      = errors.New("unknown package")
	ErrInvalidUsername     = errors.New("invalid username")
	ErrSpinInProgress      = errors.New("spin in progress")
)

const (
	MaxUsernameLength = 20
	historySize       = 20
)

// Rules are the economy settings shared by every table.
type Rules struct {
	StartingBalance int
	StartingSpins   int
	Packages        []config.PackageConfig
}

// RulesFrom extracts the economy from a wheel file.
func RulesFrom(wf *config.WheelFile) Rules {
	pkgs := make([]config.PackageConfig, len(wf.Packages))
	copy(pkgs, wf.Packages)
	return Rules{
		StartingBalance: wf.Player.StartingBalance,
		StartingSpins:   wf.Player.StartingSpins,
		Packages:        pkgs,
	}
}

func (r Rules) pkg(key string) (config.PackageConfig, bool) {
	for _, p := range r.Packages {
		if p.Key == key {
			return p, true
		}
	}
	return config.PackageConfig{}, false
}

// Player tracks a participant's credits.
type Player struct {
	ID       string
	Username string
	JoinedAt time.Time
	Balance  int
	Spins    int

	seq int
}

// Result is a settled spin as shown to every viewer.
type Result struct {
	Outcome    wheel.Outcome
	PlayerID   string
	PlayerName string
	Proof      fair.Proof
	At         time.Time
}

// Settlement is produced when a spin completes; it carries the spinner after
// the payout was credited.
type Settlement struct {
	ID      string
	TableID string
	Player  Player
	Result  Result
}

// Purchase is a completed package purchase.
type Purchase struct {
	ID      string
	Player  Player
	Package config.PackageConfig
}

// Step is the outcome of one Advance call.
type Step struct {
	Frame wheel.Frame
	// Ticked is false when the engine was idle.
	Ticked     bool
	Cues       []wheel.Cue
	Next       time.Time
	Spinning   bool
	Settlement *Settlement
}

// cueQueue collects engine cues until the next Advance drains them.
type cueQueue struct {
	pending []wheel.Cue
}

func (q *cueQueue) Play(c wheel.Cue) { q.pending = append(q.pending, c) }

func (q *cueQueue) drain() []wheel.Cue {
	out := q.pending
	q.pending = nil
	return out
}

// Table is one shared wheel and the players around it.
type Table struct {
	mu        sync.Mutex
	ID        string
	Lang      string
	CreatedAt time.Time
	OwnerID   string
	Players   map[string]*Player

	rules     Rules
	frame     time.Duration
	engine    *wheel.Engine
	source    *fair.Source
	cues      *cueQueue
	spinnerID string
	last      *Result
	history   []Result
	reveals   []fair.Reveal
	joins     int
}

// NewTable creates an idle table. A nil source gets a fresh fair source
// seeded with the table ID.
func NewTable(w *wheel.Wheel, cfg wheel.Config, rules Rules, lang string, frame time.Duration, src *fair.Source) *Table {
	if lang == "" {
		lang = "en"
	}
	id := newID()
	if src == nil {
		src = fair.NewSource(id)
	}
	cues := &cueQueue{}
	return &Table{
		ID:        id,
		Lang:      lang,
		CreatedAt: time.Now().UTC(),
		Players:   make(map[string]*Player),
		rules:     rules,
		frame:     frame,
		engine:    wheel.NewEngine(w, src, cfg, cues),
		source:    src,
		cues:      cues,
	}
}

// AddPlayer registers a player with the starting credits and assigns
// ownership if unset.
func (t *Table) AddPlayer(username string) (Player, error) {
	username = strings.TrimSpace(username)
	if username == "" || len([]rune(username)) > MaxUsernameLength {
		return Player{}, ErrInvalidUsername
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	p := &Player{
		ID:       newID(),
		Username: username,
		JoinedAt: time.Now().UTC(),
		Balance:  t.rules.StartingBalance,
		Spins:    t.rules.StartingSpins,
		seq:      t.joins,
	}
	t.joins++
	t.Players[p.ID] = p
	if t.OwnerID == "" {
		t.OwnerID = p.ID
	}
	return *p, nil
}

// Player returns a copy of the player's state.
func (t *Table) Player(id string) (Player, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.Players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// RemovePlayer takes a player off the table. The current spinner cannot
// leave until the spin settles. Ownership passes to the earliest remaining
// player.
func (t *Table) RemovePlayer(id string) (Player, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.Players[id]
	if !ok {
		return Player{}, ErrPlayerNotFound
	}
	if t.engine.Spinning() && t.spinnerID == id {
		return Player{}, ErrSpinInProgress
	}
	delete(t.Players, id)
	if t.OwnerID == id {
		t.OwnerID = ""
		var first *Player
		for _, other := range t.Players {
			if first == nil || other.seq < first.seq {
				first = other
			}
		}
		if first != nil {
			t.OwnerID = first.ID
		}
	}
	return *p, nil
}

// IsOwner reports whether the given player ID owns the table.
func (t *Table) IsOwner(playerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return playerID != "" && playerID == t.OwnerID
}

// Spin takes one credit and starts the wheel. A busy wheel is not an error:
// accepted is false and no credit is taken.
func (t *Table) Spin(playerID string, now time.Time) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.Players[playerID]
	if !ok {
		return false, ErrPlayerNotFound
	}
	if t.engine.Spinning() {
		return false, nil
	}
	if p.Spins <= 0 {
		return false, ErrNoSpinsLeft
	}
	if _, ok := t.engine.Spin(now); !ok {
		return false, nil
	}
	p.Spins--
	t.spinnerID = playerID
	return true, nil
}

// Advance moves the engine to now and settles a finished spin.
func (t *Table) Advance(now time.Time) Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	frame, ticked := t.engine.Tick(now)
	step := Step{Frame: frame, Ticked: ticked}
	if ticked && frame.Done {
		step.Settlement = t.settleLocked(frame.Outcome, now)
	}
	step.Cues = t.cues.drain()
	step.Next, step.Spinning = t.engine.NextFrame(now, t.frame)
	return step
}

func (t *Table) settleLocked(o wheel.Outcome, now time.Time) *Settlement {
	res := Result{Outcome: o, Proof: t.source.Last(), At: now}
	var spinner Player
	if p, ok := t.Players[t.spinnerID]; ok {
		p.Balance += credits(o)
		res.PlayerID = p.ID
		res.PlayerName = p.Username
		spinner = *p
	}
	t.spinnerID = ""
	t.last = &res
	t.history = append([]Result{res}, t.history...)
	if len(t.history) > historySize {
		t.history = t.history[:historySize]
	}
	return &Settlement{ID: uuid.NewString(), TableID: t.ID, Player: spinner, Result: res}
}

// BuyPackage exchanges balance for spins.
func (t *Table) BuyPackage(playerID, key string) (Purchase, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.Players[playerID]
	if !ok {
		return Purchase{}, ErrPlayerNotFound
	}
	pkg, ok := t.rules.pkg(key)
	if !ok {
		return Purchase{}, ErrUnknownPackage
	}
	if p.Balance < pkg.Price {
		return Purchase{}, ErrInsufficientBalance
	}
	p.Balance -= pkg.Price
	p.Spins += pkg.Spins
	return Purchase{ID: uuid.NewString(), Player: *p, Package: pkg}, nil
}

// RotateSeed reveals the current server seed and commits to a fresh one.
func (t *Table) RotateSeed(now time.Time) (fair.Reveal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.engine.Spinning() {
		return fair.Reveal{}, ErrSpinInProgress
	}
	r := t.source.Rotate(now)
	t.reveals = append([]fair.Reveal{r}, t.reveals...)
	return r, nil
}

// Reveals returns the retired seeds, newest first.
func (t *Table) Reveals() []fair.Reveal {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]fair.Reveal, len(t.reveals))
	copy(out, t.reveals)
	return out
}

// SeedHash is the commitment for the seed currently in use.
func (t *Table) SeedHash() string {
	return t.source.ServerSeedHash()
}

// History returns settled results, newest first.
func (t *Table) History() []Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Result, len(t.history))
	copy(out, t.history)
	return out
}

// Snapshot captures the state needed for rendering UI fragments.
type Snapshot struct {
	ID       string
	Lang     string
	State    wheel.State
	Rotation float64
	Pointer  float64
	Sectors  []wheel.Sector
	Spinner  string
	OwnerID  string
	SeedHash string
	Last     *Result
	Players  []Player
	Packages []config.PackageConfig
}

// Spinning reports whether the wheel is mid-spin.
func (s Snapshot) Spinning() bool { return s.State == wheel.StateSpinning }

// Snapshot returns a consistent view of the table.
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	players := make([]Player, 0, len(t.Players))
	for _, p := range t.Players {
		players = append(players, *p)
	}
	sortPlayers(players)
	spinner := ""
	if p, ok := t.Players[t.spinnerID]; ok {
		spinner = p.Username
	}
	var last *Result
	if t.last != nil {
		r := *t.last
		last = &r
	}
	pkgs := make([]config.PackageConfig, len(t.rules.Packages))
	copy(pkgs, t.rules.Packages)
	return Snapshot{
		ID:       t.ID,
		Lang:     t.Lang,
		State:    t.engine.State(),
		Rotation: t.engine.Rotation(),
		Pointer:  t.engine.Config().Pointer,
		Sectors:  t.engine.Wheel().Sectors(),
		Spinner:  spinner,
		OwnerID:  t.OwnerID,
		SeedHash: t.source.ServerSeedHash(),
		Last:     last,
		Players:  players,
		Packages: pkgs,
	}
}

// credits is the balance a payout is worth.
func credits(o wheel.Outcome) int {
	return int(math.Round(o.Sector.Payout))
}

func sortPlayers(players []Player) {
	sort.Slice(players, func(i, j int) bool {
		if players[i].Balance == players[j].Balance {
			return players[i].Username < players[j].Username
		}
		return players[i].Balance > players[j].Balance
	})
}

func newID() string {
	// 10 bytes -> 16 chars of base32, short and url-safe.
	buf := make([]byte, 10)
	_, _ = rand.Read(buf)
	encoder := base32.StdEncoding.WithPadding(base32.NoPadding)
	return strings.ToLower(encoder.EncodeToString(buf))
}
