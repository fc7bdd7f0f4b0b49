package game

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bucketsort/internal/judge"
	"bucketsort/internal/playground"
	"bucketsort/internal/protocol"
	"bucketsort/pkg/realtime"
)

// Options configure every room a Store creates. BroadcastHz is how often
// frames are sent; it should divide TickHz.
type Options struct {
	Judge       judge.Config
	Playground  playground.Config
	TickHz      int
	BroadcastHz int
	Log         zerolog.Logger
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TickHz <= 0 {
		o.TickHz = protocol.SimTickHz
	}
	if o.BroadcastHz <= 0 || o.BroadcastHz > o.TickHz {
		o.BroadcastHz = protocol.BroadcastHz
		if o.BroadcastHz > o.TickHz {
			o.BroadcastHz = o.TickHz
		}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Store holds rooms and delegates to realtime.RoomStore for loops and
// broadcast.
type Store struct {
	r    *realtime.RoomStore[*Room, string]
	opts Options
}

// NewStore creates an in-memory room store with SSE broadcasters.
func NewStore(opts Options) *Store {
	return &Store{r: realtime.NewRoomStore[*Room, string](), opts: opts.withDefaults()}
}

// CreateRoom initializes a room for visitor and registers its broadcaster.
func (s *Store) CreateRoom(visitor string) *Room {
	id := NewID()
	room := NewRoom(id, visitor, s.opts, func(event string) { s.r.Publish(id, event) })
	s.r.Create(id, room)
	return room
}

// RoomFor returns a live room of visitor's that no connection has joined
// yet, or creates one. Reloads reuse the room the previous page never
// attached to.
func (s *Store) RoomFor(visitor string) (room *Room, reused bool) {
	s.r.Each(func(_ string, r *Room) {
		if room != nil || r.Visitor != visitor || r.Attached() {
			return
		}
		select {
		case <-r.Done():
		default:
			room = r
		}
	})
	if room != nil {
		room.serve(s.opts.Now())
		return room, true
	}
	return s.CreateRoom(visitor), false
}

// GetRoom returns a room by ID if it exists.
func (s *Store) GetRoom(id string) (*Room, bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	return room.State, true
}

// Broadcaster returns the SSE broadcaster for a room.
func (s *Store) Broadcaster(id string) (*realtime.Broadcaster[string], bool) {
	return s.r.Broadcaster(id)
}

// Publish notifies subscribers of a room update with a typed event.
func (s *Store) Publish(id string, event string) {
	s.r.Publish(id, event)
}

// Len returns the number of live rooms.
func (s *Store) Len() int {
	return s.r.Len()
}

// Attach starts the room's loop if needed and joins conn to it. A room
// accepts a single connection for its lifetime.
func (s *Store) Attach(id string, conn Conn) error {
	room, ok := s.GetRoom(id)
	if !ok {
		return ErrClosed
	}
	s.r.Run(id, room.Run)
	reply := make(chan error, 1)
	if !room.Send(join{conn: conn, reply: reply}) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-room.Done():
		return ErrClosed
	}
}

// Leave ends the room's game and forgets the room.
func (s *Store) Leave(id string) {
	if room, ok := s.GetRoom(id); ok {
		room.Send(leave{})
	}
	s.r.Delete(id)
}

// Sweep deletes rooms that no connection joined within idle of the last
// page serving them. It returns how many were removed.
func (s *Store) Sweep(now time.Time, idle time.Duration) int {
	var stale []string
	s.r.Each(func(id string, room *Room) {
		if !room.Attached() && now.Sub(room.Served()) > idle {
			stale = append(stale, id)
		}
	})
	for _, id := range stale {
		s.Leave(id)
	}
	return len(stale)
}

// NewID returns a random url-safe identifier.
func NewID() string {
	// 10 bytes -> 16 chars of base32, short and url-safe.
	buf := make([]byte, 10)
	_, _ = rand.Read(buf)
	encoder := base32.StdEncoding.WithPadding(base32.NoPadding)
	return strings.ToLower(encoder.EncodeToString(buf))
}
