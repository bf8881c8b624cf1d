package realtime

import (
	"context"
	"sync"
	"time"
)

// Room holds state and a broadcaster for one room.
type Room[T any] struct {
	ID    string
	State T
	hub   *Broadcaster
}

// RoomStore manages rooms and their broadcasters.
type RoomStore[T any] struct {
	mu     sync.RWMutex
	rooms  map[string]*Room[T]
	loops  map[string]context.CancelFunc
	wakes  map[string]chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// NewRoomStore creates an empty room store.
func NewRoomStore[T any]() *RoomStore[T] {
	return &RoomStore[T]{
		rooms: make(map[string]*Room[T]),
		loops: make(map[string]context.CancelFunc),
		wakes: make(map[string]chan struct{}),
	}
}

// Create adds a room with the given id and state, and a new Broadcaster.
func (s *RoomStore[T]) Create(id string, state T) *Room[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Room[T]{ID: id, State: state, hub: NewBroadcaster()}
	s.rooms[id] = r
	return r
}

// Get returns the room by ID if it exists.
func (s *RoomStore[T]) Get(id string) (*Room[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Publish notifies subscribers of the room's broadcaster.
func (s *RoomStore[T]) Publish(id string, event string) {
	hub := s.Broadcaster(id)
	hub.Publish(event)
}

// Broadcaster returns the broadcaster for the room, creating it if the room exists but had none.
func (s *RoomStore[T]) Broadcaster(id string) *Broadcaster {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		hub := NewBroadcaster()
		s.rooms[id] = &Room[T]{ID: id, hub: hub}
		return hub
	}
	if r.hub == nil {
		r.hub = NewBroadcaster()
	}
	return r.hub
}

// TickFunc is called by RunLoop once per iteration. It returns when the loop
// should next run and which events to publish; stop true ends the loop after
// the events are published.
type TickFunc[T any] func(state T, now time.Time) (next time.Time, events []string, stop bool)

// RunLoop starts a timing loop for the room. If a loop is already running for
// id it is woken instead, so a request that races a stopping loop is not lost.
func (s *RoomStore[T]) RunLoop(id string, getState func() T, tick TickFunc[T]) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, ok := s.loops[id]; ok {
		// Signal under the lock: a stopping loop checks for it in release.
		select {
		case s.wakes[id] <- struct{}{}:
		default:
		}
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)
	s.loops[id] = cancel
	s.wakes[id] = wake
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.loop(ctx, id, wake, getState, tick)
	}()
}

func (s *RoomStore[T]) loop(ctx context.Context, id string, wake chan struct{}, getState func() T, tick TickFunc[T]) {
	for {
		next, events, stop := tick(getState(), time.Now().UTC())
		// Publish before sleeping so subscribers see the frame as soon as it
		// is computed, including the final one.
		for _, e := range events {
			s.Publish(id, e)
		}
		if stop {
			if s.release(id, wake) {
				return
			}
			continue
		}
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.release(id, nil)
			return
		case <-timer.C:
		case <-wake:
			timer.Stop()
		}
	}
}

// release unregisters the loop unless a wake arrived while it was stopping.
func (s *RoomStore[T]) release(id string, wake chan struct{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wake != nil {
		select {
		case <-wake:
			return false
		default:
		}
	}
	delete(s.loops, id)
	delete(s.wakes, id)
	return true
}

// Close cancels every loop, waits for them to exit and refuses new ones.
func (s *RoomStore[T]) Close() {
	s.mu.Lock()
	s.closed = true
	for _, cancel := range s.loops {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
