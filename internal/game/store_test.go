package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"spinwheel/internal/fair"
	"spinwheel/internal/storage"
)

type memLedger struct {
	mu      sync.Mutex
	players map[string]storage.Player
	txs     []storage.Transaction
	spins   []storage.Spin
}

func newMemLedger() *memLedger {
	return &memLedger{players: make(map[string]storage.Player)}
}

func (m *memLedger) SavePlayer(_ context.Context, p storage.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = p
	return nil
}

func (m *memLedger) GetPlayer(_ context.Context, id string) (storage.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return storage.Player{}, storage.ErrNotFound
	}
	return p, nil
}

func (m *memLedger) RecordTransaction(_ context.Context, tx storage.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, tx)
	return nil
}

func (m *memLedger) RecordSpin(_ context.Context, s storage.Spin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spins = append(m.spins, s)
	return nil
}

func (m *memLedger) RecentSpins(_ context.Context, tableID string, limit int) ([]storage.Spin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.Spin
	for i := len(m.spins) - 1; i >= 0 && len(out) < limit; i-- {
		if m.spins[i].TableID == tableID {
			out = append(out, m.spins[i])
		}
	}
	return out, nil
}

func (m *memLedger) Close() error { return nil }

func (m *memLedger) spinCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spins)
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithFrameInterval(5 * time.Millisecond)}, opts...)
	s, err := NewStore(testWheelFile(t), opts...)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStore_CreateTable_GetTable(t *testing.T) {
	s := newTestStore(t)
	tbl := s.CreateTable("it")
	if tbl.ID == "" {
		t.Error("table ID is empty")
	}
	if tbl.Lang != "it" {
		t.Errorf("Lang %q, want it", tbl.Lang)
	}
	got, ok := s.GetTable(tbl.ID)
	if !ok {
		t.Fatal("GetTable returned false for existing table")
	}
	if got != tbl {
		t.Error("GetTable returned different pointer")
	}
	if _, ok := s.GetTable("nonexistent"); ok {
		t.Error("GetTable should return false for missing ID")
	}
}

func TestStore_GetTable_IgnoresBroadcasterOnlyRoom(t *testing.T) {
	s := newTestStore(t)
	s.Broadcaster("orphan")
	if _, ok := s.GetTable("orphan"); ok {
		t.Error("room without a table should not resolve")
	}
}

func TestStore_Publish(t *testing.T) {
	s := newTestStore(t)
	tbl := s.CreateTable("en")
	hub := s.Broadcaster(tbl.ID)
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	s.Publish(tbl.ID, EventWheel)
	if got := <-ch; got != EventWheel {
		t.Errorf("got event %q, want wheel", got)
	}
}

func TestStore_SpinLoopPublishesFramesAndSettles(t *testing.T) {
	ledger := newMemLedger()
	s := newTestStore(t, WithLedger(ledger))
	tbl := s.CreateTable("en")
	hub := s.Broadcaster(tbl.ID)
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	ctx := context.Background()
	p, err := s.Join(ctx, tbl, "alice")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	accepted, err := s.Spin(ctx, tbl, p.ID)
	if err != nil || !accepted {
		t.Fatalf("Spin accepted=%v err=%v", accepted, err)
	}

	var events []string
	timeout := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case e := <-ch:
			events = append(events, e)
			done = e == EventResult
		case <-timeout:
			t.Fatalf("timed out, events so far: %v", events)
		}
	}
	joined := strings.Join(events, ",")
	for _, want := range []string{EventWheel, EventCuePrefix + "spin", EventControls, EventResult} {
		if !strings.Contains(joined, want) {
			t.Errorf("events %v missing %q", events, want)
		}
	}
	if !strings.Contains(joined, EventCuePrefix+"win") && !strings.Contains(joined, EventCuePrefix+"lose") {
		t.Errorf("events %v missing outcome cue", events)
	}

	deadline := time.Now().Add(time.Second)
	for ledger.spinCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ledger.spinCount() != 1 {
		t.Fatalf("recorded %d spins, want 1", ledger.spinCount())
	}
	history, err := s.History(ctx, tbl, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].PlayerName != "alice" {
		t.Fatalf("history %+v", history)
	}
	if tbl.Snapshot().Spinning() {
		t.Error("table should be idle after settling")
	}
}

func TestStore_SpinErrorsPassThrough(t *testing.T) {
	s := newTestStore(t)
	tbl := s.CreateTable("en")
	if _, err := s.Spin(context.Background(), tbl, "ghost"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("err %v, want ErrPlayerNotFound", err)
	}
}

func TestStore_BuyRecordsPurchase(t *testing.T) {
	ledger := newMemLedger()
	s := newTestStore(t, WithLedger(ledger))
	tbl := s.CreateTable("en")
	ctx := context.Background()
	p, _ := s.Join(ctx, tbl, "alice")

	if _, err := s.Buy(ctx, tbl, p.ID, "small"); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	s.Close()
	if len(ledger.txs) != 1 || ledger.txs[0].Amount != -30 || ledger.txs[0].Kind != storage.KindPurchase {
		t.Fatalf("transactions %+v", ledger.txs)
	}
	saved, err := ledger.GetPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if saved.Balance != 70 || saved.Spins != 4 {
		t.Errorf("saved credits %d/%d, want 70/4", saved.Balance, saved.Spins)
	}
}

func TestStore_HistoryWithoutLedger(t *testing.T) {
	s := newTestStore(t)
	tbl := s.CreateTable("en")
	h, err := s.History(context.Background(), tbl, 5)
	if err != nil || len(h) != 0 {
		t.Fatalf("history %v err %v", h, err)
	}
}

// waitForResult drains events until a spin settles.
func waitForResult(t *testing.T, ch <-chan string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-ch:
			if e == EventResult {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for the result event")
		}
	}
}

func TestStore_HistoryFromLedger(t *testing.T) {
	ledger := newMemLedger()
	s := newTestStore(t, WithLedger(ledger))
	tbl := s.CreateTable("en")
	hub := s.Broadcaster(tbl.ID)
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	ctx := context.Background()
	alice, _ := s.Join(ctx, tbl, "alice")
	bob, _ := s.Join(ctx, tbl, "bob")
	for _, id := range []string{alice.ID, bob.ID} {
		if ok, err := s.Spin(ctx, tbl, id); err != nil || !ok {
			t.Fatalf("Spin accepted=%v err=%v", ok, err)
		}
		waitForResult(t, ch)
	}
	settled := tbl.History()
	s.Close()

	history, err := s.History(ctx, tbl, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) %d, want 2", len(history))
	}
	if history[0].PlayerName != "bob" || history[1].PlayerName != "alice" {
		t.Errorf("order %q, %q; want bob then alice", history[0].PlayerName, history[1].PlayerName)
	}
	for i, res := range history {
		want := settled[i]
		if res.Outcome.Index != want.Outcome.Index || res.Outcome.Sector.Label != want.Outcome.Sector.Label {
			t.Errorf("entry %d outcome %+v, want %+v", i, res.Outcome, want.Outcome)
		}
		if res.Proof != want.Proof {
			t.Errorf("entry %d proof %+v, want %+v", i, res.Proof, want.Proof)
		}
	}
}

func TestStore_HistorySkipsSpinsOutsideWheel(t *testing.T) {
	ledger := newMemLedger()
	s := newTestStore(t, WithLedger(ledger))
	tbl := s.CreateTable("en")
	ctx := context.Background()
	_ = ledger.RecordSpin(ctx, storage.Spin{ID: "bad", TableID: tbl.ID, SectorIndex: 9})
	_ = ledger.RecordSpin(ctx, storage.Spin{ID: "ok", TableID: tbl.ID, SectorIndex: 1, PlayerID: "gone"})

	history, err := s.History(ctx, tbl, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Outcome.Sector.Label != "Nothing" {
		t.Fatalf("history %+v", history)
	}
	if history[0].PlayerName != "" {
		t.Errorf("unknown player named %q", history[0].PlayerName)
	}
}

func TestStore_LeaveKeepsNameInHistory(t *testing.T) {
	ledger := newMemLedger()
	s := newTestStore(t, WithLedger(ledger))
	tbl := s.CreateTable("en")
	hub := s.Broadcaster(tbl.ID)
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	ctx := context.Background()
	p, _ := s.Join(ctx, tbl, "alice")
	if ok, err := s.Spin(ctx, tbl, p.ID); err != nil || !ok {
		t.Fatalf("Spin accepted=%v err=%v", ok, err)
	}
	waitForResult(t, ch)
	if _, err := s.Leave(ctx, tbl, p.ID); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if _, err := s.Leave(ctx, tbl, p.ID); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("second Leave err %v, want ErrPlayerNotFound", err)
	}
	s.Close()

	saved, err := ledger.GetPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if saved.LeftAt.IsZero() {
		t.Error("ledger should mark the player as left")
	}
	history, err := s.History(ctx, tbl, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].PlayerName != "alice" {
		t.Fatalf("history %+v", history)
	}
}

func TestStore_RotateSeed(t *testing.T) {
	s := newTestStore(t)
	tbl := s.CreateTable("en")
	hub := s.Broadcaster(tbl.ID)
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	ctx := context.Background()
	owner, _ := s.Join(ctx, tbl, "alice")
	guest, _ := s.Join(ctx, tbl, "bob")
	for _, id := range []string{owner.ID, guest.ID} {
		if ok, err := s.Spin(ctx, tbl, id); err != nil || !ok {
			t.Fatalf("Spin accepted=%v err=%v", ok, err)
		}
		waitForResult(t, ch)
	}

	if _, err := s.RotateSeed(ctx, tbl, guest.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("guest rotate err %v, want ErrNotOwner", err)
	}
	r, err := s.RotateSeed(ctx, tbl, owner.ID)
	if err != nil {
		t.Fatalf("RotateSeed: %v", err)
	}
	if r.Draws != 2 || r.Verified != 2 {
		t.Errorf("reveal draws=%d verified=%d, want 2/2", r.Draws, r.Verified)
	}
	for _, res := range tbl.History() {
		if !fair.Verify(r.ServerSeed, res.Proof) {
			t.Errorf("result %+v does not verify", res.Proof)
		}
	}
}

// gatedLedger blocks spin writes until released.
type gatedLedger struct {
	*memLedger
	gate chan struct{}
}

func (g *gatedLedger) RecordSpin(ctx context.Context, sp storage.Spin) error {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.memLedger.RecordSpin(ctx, sp)
}

func TestStore_SlowLedgerDoesNotDelayResult(t *testing.T) {
	ledger := &gatedLedger{memLedger: newMemLedger(), gate: make(chan struct{})}
	s := newTestStore(t, WithLedger(ledger))
	tbl := s.CreateTable("en")
	hub := s.Broadcaster(tbl.ID)
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	ctx := context.Background()
	p, _ := s.Join(ctx, tbl, "alice")
	if ok, err := s.Spin(ctx, tbl, p.ID); err != nil || !ok {
		t.Fatalf("Spin accepted=%v err=%v", ok, err)
	}
	waitForResult(t, ch)
	if n := ledger.spinCount(); n != 0 {
		t.Fatalf("spin written before the gate opened: %d", n)
	}

	close(ledger.gate)
	s.Close()
	if n := ledger.spinCount(); n != 1 {
		t.Fatalf("recorded %d spins after flush, want 1", n)
	}
}
