package realtime

import (
	"sync"
	"testing"
	"time"
)

func TestNewRoomStore(t *testing.T) {
	s := NewRoomStore[string]()
	if s == nil {
		t.Fatal("NewRoomStore returned nil")
	}
}

func TestRoomStore_Create_Get(t *testing.T) {
	s := NewRoomStore[string]()
	s.Create("room1", "state1")
	room, ok := s.Get("room1")
	if !ok {
		t.Fatal("Get returned false for existing room")
	}
	if room.ID != "room1" {
		t.Errorf("room ID %q, want room1", room.ID)
	}
	if room.State != "state1" {
		t.Errorf("room State %q, want state1", room.State)
	}

	_, ok = s.Get("nonexistent")
	if ok {
		t.Error("Get should return false for missing ID")
	}
}

func TestRoomStore_Publish(t *testing.T) {
	s := NewRoomStore[string]()
	s.Create("r1", "x")
	hub := s.Broadcaster("r1")
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	s.Publish("r1", "event1")
	got := <-ch
	if got != "event1" {
		t.Errorf("got %q, want event1", got)
	}
}

func (s *RoomStore[T]) running(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.loops[id]
	return ok
}

func TestRoomStore_RunLoop_PublishesFinalEventsAndStops(t *testing.T) {
	s := NewRoomStore[string]()
	s.Create("r1", "x")
	hub := s.Broadcaster("r1")
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	ticks := 0
	s.RunLoop("r1", func() string { return "x" }, func(state string, now time.Time) (time.Time, []string, bool) {
		ticks++
		if ticks < 3 {
			return now, []string{"frame"}, false
		}
		return time.Time{}, []string{"done"}, true
	})

	want := []string{"frame", "frame", "done"}
	for _, w := range want {
		select {
		case got := <-ch:
			if got != w {
				t.Fatalf("got %q, want %q", got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", w)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.running("r1") {
		if time.Now().After(deadline) {
			t.Fatal("loop still registered after stop")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRoomStore_RunLoop_SecondCallWakesExisting(t *testing.T) {
	s := NewRoomStore[string]()
	s.Create("r1", "x")
	hub := s.Broadcaster("r1")
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	var mu sync.Mutex
	calls := 0
	tick := func(state string, now time.Time) (time.Time, []string, bool) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return now.Add(time.Hour), []string{"tick"}, false
	}
	s.RunLoop("r1", func() string { return "x" }, tick)
	<-ch
	s.RunLoop("r1", func() string { return "x" }, tick)
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("second RunLoop should wake the running loop")
	}
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("tick called %d times, want 2", calls)
	}
}

func TestRoomStore_CloseStopsLoopsAndRefusesNew(t *testing.T) {
	s := NewRoomStore[string]()
	s.Create("r1", "x")
	idle := func(state string, now time.Time) (time.Time, []string, bool) {
		return now.Add(time.Hour), nil, false
	}
	s.RunLoop("r1", func() string { return "x" }, idle)
	if !s.running("r1") {
		t.Fatal("loop should be registered")
	}

	s.Close()
	if s.running("r1") {
		t.Error("loop still registered after Close")
	}
	s.RunLoop("r1", func() string { return "x" }, idle)
	if s.running("r1") {
		t.Error("RunLoop after Close should not start a loop")
	}
}
