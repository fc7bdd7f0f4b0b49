package realtime

import (
	"context"
	"sync"
)

// Room holds state and a broadcaster for one room.
type Room[T any, E any] struct {
	ID    string
	State T
	hub   *Broadcaster[E]
}

// Hub returns the room's broadcaster.
func (r *Room[T, E]) Hub() *Broadcaster[E] {
	return r.hub
}

// RoomStore manages rooms, their broadcasters and at most one loop
// goroutine per room.
type RoomStore[T any, E any] struct {
	mu    sync.RWMutex
	rooms map[string]*Room[T, E]
	loops map[string]context.CancelFunc
	done  map[string]chan struct{}
}

// NewRoomStore creates an empty room store.
func NewRoomStore[T any, E any]() *RoomStore[T, E] {
	return &RoomStore[T, E]{
		rooms: make(map[string]*Room[T, E]),
		loops: make(map[string]context.CancelFunc),
		done:  make(map[string]chan struct{}),
	}
}

// Create adds a room with the given id and state, and a new Broadcaster.
// An existing room with the same id is replaced.
func (s *RoomStore[T, E]) Create(id string, state T) *Room[T, E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Room[T, E]{ID: id, State: state, hub: NewBroadcaster[E]()}
	s.rooms[id] = r
	return r
}

// Get returns the room by ID if it exists.
func (s *RoomStore[T, E]) Get(id string) (*Room[T, E], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Len returns the number of rooms.
func (s *RoomStore[T, E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Each calls fn for every room. fn must not call back into the store.
func (s *RoomStore[T, E]) Each(fn func(id string, state T)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, r := range s.rooms {
		fn(id, r.State)
	}
}

// Publish notifies subscribers of the room's broadcaster. Unknown rooms are
// ignored.
func (s *RoomStore[T, E]) Publish(id string, event E) {
	r, ok := s.Get(id)
	if !ok {
		return
	}
	r.hub.Publish(event)
}

// Broadcaster returns the broadcaster for the room.
func (s *RoomStore[T, E]) Broadcaster(id string) (*Broadcaster[E], bool) {
	r, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	return r.hub, true
}

// Run starts loop on its own goroutine for the room. If a loop is already
// running for id, Run does nothing and returns false. The loop's context is
// cancelled by Stop or Delete.
func (s *RoomStore[T, E]) Run(id string, loop func(ctx context.Context)) bool {
	s.mu.Lock()
	if _, ok := s.loops[id]; ok {
		s.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.loops[id] = cancel
	s.done[id] = done
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			if s.done[id] == done {
				delete(s.loops, id)
				delete(s.done, id)
			}
			s.mu.Unlock()
			cancel()
			close(done)
		}()
		loop(ctx)
	}()
	return true
}

// Running reports whether a loop is active for id.
func (s *RoomStore[T, E]) Running(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.loops[id]
	return ok
}

// Stop cancels the room's loop and waits for it to return. It must not be
// called from the loop itself.
func (s *RoomStore[T, E]) Stop(id string) {
	s.mu.RLock()
	cancel, ok := s.loops[id]
	done := s.done[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	cancel()
	<-done
}

// Delete stops the room's loop, closes its broadcaster and forgets it.
func (s *RoomStore[T, E]) Delete(id string) {
	s.Stop(id)
	s.mu.Lock()
	r, ok := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()
	if ok {
		r.hub.Close()
	}
}
