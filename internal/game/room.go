package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bucketsort/internal/cue"
	"bucketsort/internal/feedback"
	"bucketsort/internal/judge"
	"bucketsort/internal/playground"
	"bucketsort/internal/protocol"
	"bucketsort/internal/session"
	"bucketsort/internal/shape"
	"bucketsort/internal/zone"
	"bucketsort/pkg/realtime"
)

var (
	ErrAttached = errors.New("room already has a connection")
	ErrClosed   = errors.New("room closed")
)

// Conn is the room's view of a websocket. Send is only called from the
// room's loop.
type Conn interface {
	Send([]byte) error
	Close() error
}

type join struct {
	conn  Conn
	reply chan<- error
}

type message struct {
	env protocol.Envelope
}

type leave struct{}

var (
	_ feedback.Sink   = (*Room)(nil)
	_ cue.Player      = (*Room)(nil)
	_ judge.Presenter = (*Room)(nil)
	_ judge.World     = (*playground.World)(nil)
)

// maxStep bounds the physics step after a stalled tick.
const maxStep = 50 * time.Millisecond

// Room runs one visitor's game on a single goroutine. Commands arrive on
// Inbox; everything the judge touches is owned by Run.
type Room struct {
	ID      string
	Visitor string
	Created time.Time
	Inbox   chan any

	opts           Options
	log            zerolog.Logger
	publish        func(event string)
	quit           chan struct{}
	quitOnce       sync.Once
	broadcastEvery int

	reg   *shape.Registry
	sched *realtime.Scheduler
	world *playground.World
	judge *judge.Judge

	conn Conn
	last time.Time
	tick int

	mu       sync.RWMutex
	hud      HUD
	attached bool
	served   time.Time
}

// NewRoom builds an idle room. publish receives "hud" and "reward" events
// for the SSE stream.
func NewRoom(id, visitor string, opts Options, publish func(event string)) *Room {
	opts = opts.withDefaults()
	if publish == nil {
		publish = func(string) {}
	}
	now := opts.Now()
	r := &Room{
		ID:             id,
		Visitor:        visitor,
		Created:        now,
		Inbox:          make(chan any, 256),
		opts:           opts,
		log:            opts.Log.With().Str("room", id).Logger(),
		publish:        publish,
		quit:           make(chan struct{}),
		broadcastEvery: max(1, opts.TickHz/opts.BroadcastHz),
		reg:            shape.NewRegistry(),
		sched:          realtime.NewScheduler(now),
		last:           now,
		served:         now,
	}
	r.world = playground.New(opts.Playground, r.reg, rand.New(rand.NewSource(now.UnixNano())))
	r.judge = judge.New(opts.Judge, judge.Deps{
		Registry:  r.reg,
		Scheduler: r.sched,
		World:     r.world,
		Sink:      r,
		Cues:      r,
		HUD:       r,
		Log:       &r.log,
	})
	r.hud = HUD{Target: r.judge.Session().Target(), Remaining: r.judge.Session().Duration()}
	return r
}

// Send queues a command for the loop. It fails once the loop has exited.
func (r *Room) Send(cmd any) bool {
	select {
	case <-r.quit:
		return false
	default:
	}
	select {
	case r.Inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

// Deliver forwards a raw client frame to the loop.
func (r *Room) Deliver(b []byte) error {
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		return err
	}
	if !r.Send(message{env: env}) {
		return ErrClosed
	}
	return nil
}

// Done is closed when the loop has torn the room down.
func (r *Room) Done() <-chan struct{} {
	return r.quit
}

// Served returns when a page last handed this room out.
func (r *Room) Served() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.served
}

func (r *Room) serve(now time.Time) {
	r.mu.Lock()
	r.served = now
	r.mu.Unlock()
}

// Attached reports whether a connection has joined.
func (r *Room) Attached() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.attached
}

// HUD returns the latest HUD state for rendering.
func (r *Room) HUD() HUD {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hud
}

// Run is the room loop. It returns when ctx is cancelled or the connection
// leaves, and always resets the session on the way out.
func (r *Room) Run(ctx context.Context) {
	select {
	case <-r.quit:
		return
	default:
	}
	ticker := time.NewTicker(time.Second / time.Duration(r.opts.TickHz))
	defer ticker.Stop()
	defer r.teardown()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.Inbox:
			if !r.handleCommand(cmd) {
				return
			}
		case now := <-ticker.C:
			r.step(now)
		}
	}
}

func (r *Room) handleCommand(cmd any) bool {
	switch c := cmd.(type) {
	case join:
		if r.conn != nil {
			c.reply <- ErrAttached
			return true
		}
		r.conn = c.conn
		r.mu.Lock()
		r.attached = true
		r.mu.Unlock()
		r.log.Info().Str("visitor", r.Visitor).Msg("visitor joined")
		c.reply <- nil
	case message:
		r.handleMessage(c.env)
	case leave:
		return false
	}
	return true
}

func (r *Room) handleMessage(env protocol.Envelope) {
	switch env.T {
	case protocol.MsgResize:
		p, err := protocol.DecodePayload[protocol.Resize](env)
		if err != nil {
			r.log.Debug().Err(err).Msg("bad resize")
			return
		}
		r.world.Resize(p.W, p.H)
		r.judge.Resize(p.W, p.H)
		if r.HUD().BucketsVisible {
			r.sendBuckets(true)
		}
	case protocol.MsgDown:
		p, err := protocol.DecodePayload[protocol.Pointer](env)
		if err != nil {
			return
		}
		if e := r.world.Grab(point(p)); e != nil {
			r.judge.OnDragStart(e)
		}
	case protocol.MsgMove:
		p, err := protocol.DecodePayload[protocol.Pointer](env)
		if err != nil {
			return
		}
		r.world.MoveTo(point(p))
	case protocol.MsgUp:
		if p, err := protocol.DecodePayload[protocol.Pointer](env); err == nil {
			r.world.MoveTo(point(p))
		}
		if e := r.world.Release(); e != nil {
			r.judge.OnDragEnd(e)
		}
	default:
		r.log.Debug().Str("type", env.T).Msg("unknown message")
	}
}

func point(p protocol.Pointer) zone.Point {
	return zone.Point{X: p.X, Y: p.Y}
}

func (r *Room) step(now time.Time) {
	dt := now.Sub(r.last)
	r.last = now
	if dt > maxStep {
		dt = maxStep
	}
	r.world.Step(dt)
	if held := r.world.Held(); held != nil {
		r.judge.OnHoverTick(held)
	}
	r.judge.Step()
	r.sched.Advance(now)

	r.tick++
	if r.tick%r.broadcastEvery == 0 {
		r.sendFrame()
	}
}

func (r *Room) teardown() {
	r.judge.Reset()
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
	r.mu.Lock()
	r.attached = false
	r.mu.Unlock()
	r.quitOnce.Do(func() { close(r.quit) })
	r.log.Info().Int("sorted", r.judge.Session().Sorted()).Bool("won", r.judge.Session().WonOnce()).Msg("room closed")
}

func (r *Room) send(t string, payload any) {
	if r.conn == nil {
		return
	}
	b, err := protocol.Encode(t, payload)
	if err != nil {
		r.log.Error().Err(err).Msg("encode")
		return
	}
	if err := r.conn.Send(b); err != nil {
		r.log.Debug().Err(err).Str("type", t).Msg("send failed")
		_ = r.conn.Close()
		r.conn = nil
	}
}

func (r *Room) sendFrame() {
	if r.conn == nil {
		return
	}
	frame := protocol.Frame{Tick: r.tick, Shapes: make([]protocol.ShapeSnapshot, 0, r.reg.Len())}
	held := r.world.Held()
	if held != nil {
		frame.Held = held.ID
	}
	for _, e := range r.reg.Snapshot() {
		s := protocol.ShapeSnapshot{
			ID:    e.ID,
			Color: string(e.Class.Color),
			Kind:  string(e.Class.Kind),
			X:     e.Pos.X,
			Y:     e.Pos.Y,
			A:     e.Angle,
			S:     e.Size,
		}
		if e == held {
			s.V = e.Speed
		}
		frame.Shapes = append(frame.Shapes, s)
	}
	r.send(protocol.MsgFrame, frame)
}

func (r *Room) sendBuckets(visible bool) {
	msg := protocol.Buckets{Visible: visible}
	if visible {
		zones := r.judge.Zones()
		for _, name := range zone.Order {
			rect, _ := zones.Rect(name)
			msg.Zones = append(msg.Zones, protocol.ZoneShape{
				Name:   string(name),
				Left:   rect.Left,
				Top:    rect.Top,
				Right:  rect.Right,
				Bottom: rect.Bottom,
			})
		}
	}
	r.send(protocol.MsgBuckets, msg)
}

// SetEmphasis implements feedback.Sink.
func (r *Room) SetEmphasis(name zone.Name, on bool) {
	r.send(protocol.MsgEmphasis, protocol.Emphasis{Zone: string(name), On: on})
}

// Flash implements feedback.Sink.
func (r *Room) Flash(name zone.Name) {
	r.send(protocol.MsgFlash, protocol.Flash{Zone: string(name)})
}

// Play implements cue.Player by asking the browser to play the clip.
func (r *Room) Play(c cue.Cue) {
	r.send(protocol.MsgCue, protocol.Cue{Name: string(c), URL: CueURL(c)})
}

// Present implements judge.Presenter.
func (r *Room) Present(eff session.Effect, snap session.Snapshot) {
	r.mu.Lock()
	r.hud.apply(eff, snap)
	r.mu.Unlock()

	switch eff {
	case session.ShowBuckets:
		r.sendBuckets(true)
	case session.HideBuckets:
		r.sendBuckets(false)
	case session.ShowReward:
		r.publish(EventReward)
	default:
		r.publish(EventHUD)
	}
}

// CueURL is where the clip for c is served.
func CueURL(c cue.Cue) string {
	return "/cues/" + string(c) + ".wav"
}
