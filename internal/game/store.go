package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spinwheel/internal/config"
	"spinwheel/internal/fair"
	"spinwheel/internal/lib/logger/sl"
	"spinwheel/internal/storage"
	"spinwheel/internal/wheel"
	"spinwheel/pkg/realtime"
)

// Events published to table subscribers.
const (
	EventWheel    = "wheel"
	EventControls = "controls"
	EventResult   = "result"
	EventPlayers  = "players"
	// EventCuePrefix is followed by the cue name, e.g. "cue:win".
	EventCuePrefix = "cue:"
)

const (
	ledgerTimeout = 5 * time.Second
	ledgerBacklog = 256
)

// ErrNotOwner is returned for owner-only actions.
var ErrNotOwner = errors.New("only the table owner can do that")

// Store holds tables and delegates to realtime.RoomStore for broadcast and
// the per-table spin loop. Ledger writes run in order on one background
// goroutine so a slow database never holds up a frame.
type Store struct {
	r      *realtime.RoomStore[*Table]
	wheel  *wheel.Wheel
	engine wheel.Config
	rules  Rules
	frame  time.Duration
	ledger storage.Ledger
	log    *slog.Logger

	qmu     sync.Mutex
	writes  chan func(context.Context)
	writer  sync.WaitGroup
	stopped bool
}

// Option configures a Store.
type Option func(*Store)

// WithLedger persists joins, purchases and settlements.
func WithLedger(l storage.Ledger) Option {
	return func(s *Store) { s.ledger = l }
}

// WithLogger sets the store logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithFrameInterval sets the spin loop period.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.frame = d
		}
	}
}

// NewStore builds the sector model from wf and creates an empty store.
func NewStore(wf *config.WheelFile, opts ...Option) (*Store, error) {
	w, err := wf.Wheel()
	if err != nil {
		return nil, fmt.Errorf("build wheel: %w", err)
	}
	s := &Store{
		r:      realtime.NewRoomStore[*Table](),
		wheel:  w,
		engine: wf.EngineConfig(),
		rules:  RulesFrom(wf),
		frame:  realtime.DefaultFrameInterval,
		log:    sl.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ledger != nil {
		s.writes = make(chan func(context.Context), ledgerBacklog)
		s.writer.Add(1)
		go s.runWrites()
	}
	return s, nil
}

// Close stops every spin loop and flushes pending ledger writes. The ledger
// itself stays open and readable.
func (s *Store) Close() {
	s.r.Close()
	s.qmu.Lock()
	if !s.stopped && s.writes != nil {
		close(s.writes)
	}
	s.stopped = true
	s.qmu.Unlock()
	s.writer.Wait()
}

func (s *Store) runWrites() {
	defer s.writer.Done()
	for write := range s.writes {
		ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
		write(ctx)
		cancel()
	}
}

// enqueue schedules a ledger write. Writes keep their submission order.
func (s *Store) enqueue(write func(ctx context.Context)) {
	if s.ledger == nil {
		return
	}
	s.qmu.Lock()
	defer s.qmu.Unlock()
	if s.stopped {
		s.log.Warn("ledger write dropped after close")
		return
	}
	s.writes <- write
}

// Wheel returns the sector model shared by all tables.
func (s *Store) Wheel() *wheel.Wheel { return s.wheel }

// CreateTable initializes a table and registers its broadcaster.
func (s *Store) CreateTable(lang string) *Table {
	t := NewTable(s.wheel, s.engine, s.rules, lang, s.frame, nil)
	s.r.Create(t.ID, t)
	s.log.Info("table created", sl.String("table", t.ID), sl.String("lang", t.Lang))
	return t
}

// GetTable returns a table by ID if it exists.
func (s *Store) GetTable(id string) (*Table, bool) {
	room, ok := s.r.Get(id)
	if !ok || room.State == nil {
		return nil, false
	}
	return room.State, true
}

// Broadcaster returns the SSE broadcaster for a table, creating it if missing.
func (s *Store) Broadcaster(id string) *realtime.Broadcaster {
	return s.r.Broadcaster(id)
}

// Publish notifies subscribers of a table update with a typed event.
func (s *Store) Publish(id string, event string) {
	s.r.Publish(id, event)
}

// Join adds a player to the table and announces it.
func (s *Store) Join(_ context.Context, t *Table, username string) (Player, error) {
	p, err := t.AddPlayer(username)
	if err != nil {
		return Player{}, err
	}
	s.savePlayer(t.ID, p)
	s.log.Info("player joined", sl.String("table", t.ID), sl.String("player", p.Username))
	s.Publish(t.ID, EventPlayers)
	return p, nil
}

// Leave removes a player from the table. The ledger keeps the player's spins
// and marks the player as departed, so the name can register again.
func (s *Store) Leave(_ context.Context, t *Table, playerID string) (Player, error) {
	p, err := t.RemovePlayer(playerID)
	if err != nil {
		return Player{}, err
	}
	s.savePlayerLeft(t.ID, p, time.Now().UTC())
	s.log.Info("player left", sl.String("table", t.ID), sl.String("player", p.Username))
	s.Publish(t.ID, EventPlayers)
	s.Publish(t.ID, EventControls)
	return p, nil
}

// Spin starts the table's wheel for playerID. accepted is false while the
// wheel is already spinning.
func (s *Store) Spin(_ context.Context, t *Table, playerID string) (bool, error) {
	accepted, err := t.Spin(playerID, time.Now().UTC())
	if err != nil || !accepted {
		return accepted, err
	}
	if p, ok := t.Player(playerID); ok {
		s.savePlayer(t.ID, p)
	}
	s.Publish(t.ID, EventControls)
	s.Publish(t.ID, EventPlayers)
	s.EnsureSpinLoop(t.ID)
	return true, nil
}

// Buy exchanges balance for a spin package.
func (s *Store) Buy(_ context.Context, t *Table, playerID, key string) (Purchase, error) {
	purchase, err := t.BuyPackage(playerID, key)
	if err != nil {
		return Purchase{}, err
	}
	s.savePlayer(t.ID, purchase.Player)
	s.recordTransaction(storage.Transaction{
		ID:       purchase.ID,
		PlayerID: purchase.Player.ID,
		Amount:   -purchase.Package.Price,
		Kind:     storage.KindPurchase,
	})
	s.Publish(t.ID, EventPlayers)
	s.Publish(t.ID, EventControls)
	return purchase, nil
}

// SeedReveal is a retired server seed with the count of this table's
// remembered results it reproduces.
type SeedReveal struct {
	fair.Reveal
	Verified int
}

// RotateSeed reveals the table's server seed and commits to a new one. Only
// the owner may rotate, and never mid-spin.
func (s *Store) RotateSeed(_ context.Context, t *Table, playerID string) (SeedReveal, error) {
	if !t.IsOwner(playerID) {
		return SeedReveal{}, ErrNotOwner
	}
	r, err := t.RotateSeed(time.Now().UTC())
	if err != nil {
		return SeedReveal{}, err
	}
	out := SeedReveal{Reveal: r}
	for _, res := range t.History() {
		if res.Proof.ServerSeedHash != r.ServerSeedHash {
			continue
		}
		if !fair.Verify(r.ServerSeed, res.Proof) {
			s.log.Error("revealed seed does not reproduce a draw",
				sl.String("table", t.ID), sl.Any("nonce", res.Proof.Nonce))
			continue
		}
		out.Verified++
	}
	s.log.Info("server seed rotated",
		sl.String("table", t.ID),
		sl.Any("draws", r.Draws),
		sl.Any("verified", out.Verified),
	)
	s.Publish(t.ID, EventResult)
	return out, nil
}

// History returns recent spins, newest first, from the ledger when one is
// configured. Names of players who left are looked up in the ledger.
func (s *Store) History(ctx context.Context, t *Table, limit int) ([]Result, error) {
	if s.ledger == nil {
		h := t.History()
		if limit > 0 && len(h) > limit {
			h = h[:limit]
		}
		return h, nil
	}
	spins, err := s.ledger.RecentSpins(ctx, t.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent spins: %w", err)
	}
	names := make(map[string]string)
	out := make([]Result, 0, len(spins))
	for _, sp := range spins {
		index := sp.SectorIndex
		if index < 0 || index >= s.wheel.Len() {
			s.log.Warn("stored spin outside the wheel", sl.String("spin", sp.ID), sl.Any("index", index))
			continue
		}
		out = append(out, Result{
			Outcome:    s.wheel.Outcome(index),
			PlayerID:   sp.PlayerID,
			PlayerName: s.playerName(ctx, t, sp.PlayerID, names),
			Proof: fair.Proof{
				Algorithm:      fair.Algorithm,
				ServerSeedHash: sp.ServerSeedHash,
				ClientSeed:     sp.ClientSeed,
				Nonce:          sp.Nonce,
				Draw:           sp.Draw,
			},
			At: sp.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) playerName(ctx context.Context, t *Table, id string, cache map[string]string) string {
	if p, ok := t.Player(id); ok {
		return p.Username
	}
	if name, ok := cache[id]; ok {
		return name
	}
	name := ""
	p, err := s.ledger.GetPlayer(ctx, id)
	switch {
	case err == nil:
		name = p.Username
	case !errors.Is(err, storage.ErrNotFound):
		s.log.Error("get player", sl.Err(err), sl.String("player", id))
	}
	cache[id] = name
	return name
}

// EnsureSpinLoop starts the frame loop for a table if not already running.
// Each frame publishes the wheel and any cues; the settling frame also
// publishes controls, result and players, then the loop stops.
func (s *Store) EnsureSpinLoop(id string) {
	getState := func() *Table {
		t, _ := s.GetTable(id)
		return t
	}
	tick := func(t *Table, now time.Time) (time.Time, []string, bool) {
		if t == nil {
			return time.Time{}, nil, true
		}
		step := t.Advance(now)
		var events []string
		if step.Ticked {
			events = append(events, EventWheel)
		}
		for _, c := range step.Cues {
			events = append(events, EventCuePrefix+c.String())
		}
		if step.Settlement != nil {
			s.settle(*step.Settlement)
			events = append(events, EventControls, EventResult, EventPlayers)
		}
		if !step.Spinning {
			return time.Time{}, events, true
		}
		return step.Next, events, false
	}
	s.r.RunLoop(id, getState, tick)
}

func (s *Store) settle(st Settlement) {
	res := st.Result
	s.log.Info("spin settled",
		sl.String("table", st.TableID),
		sl.String("player", res.PlayerName),
		sl.String("label", res.Outcome.Sector.Label),
		sl.Any("payout", res.Outcome.Sector.Payout),
	)
	if res.PlayerID == "" {
		return
	}
	s.savePlayer(st.TableID, st.Player)
	spin := storage.Spin{
		ID:             st.ID,
		TableID:        st.TableID,
		PlayerID:       res.PlayerID,
		SectorIndex:    res.Outcome.Index,
		Label:          res.Outcome.Sector.Label,
		Payout:         credits(res.Outcome),
		ServerSeedHash: res.Proof.ServerSeedHash,
		ClientSeed:     res.Proof.ClientSeed,
		Nonce:          res.Proof.Nonce,
		Draw:           res.Proof.Draw,
		CreatedAt:      res.At,
	}
	s.enqueue(func(ctx context.Context) {
		if err := s.ledger.RecordSpin(ctx, spin); err != nil {
			s.log.Error("record spin", sl.Err(err))
		}
	})
	if res.Outcome.Win {
		s.recordTransaction(storage.Transaction{
			ID:        st.ID,
			PlayerID:  res.PlayerID,
			Amount:    credits(res.Outcome),
			Kind:      storage.KindPayout,
			CreatedAt: res.At,
		})
	}
}

func (s *Store) savePlayer(tableID string, p Player) {
	s.savePlayerLeft(tableID, p, time.Time{})
}

func (s *Store) savePlayerLeft(tableID string, p Player, leftAt time.Time) {
	rec := storage.Player{
		ID:        p.ID,
		TableID:   tableID,
		Username:  p.Username,
		Balance:   p.Balance,
		Spins:     p.Spins,
		CreatedAt: p.JoinedAt,
		UpdatedAt: time.Now().UTC(),
		LeftAt:    leftAt,
	}
	s.enqueue(func(ctx context.Context) {
		if err := s.ledger.SavePlayer(ctx, rec); err != nil {
			s.log.Error("save player", sl.Err(err), sl.String("player", rec.ID))
		}
	})
}

func (s *Store) recordTransaction(tx storage.Transaction) {
	s.enqueue(func(ctx context.Context) {
		if err := s.ledger.RecordTransaction(ctx, tx); err != nil {
			s.log.Error("record transaction", sl.Err(err), sl.String("kind", tx.Kind))
		}
	})
}
