// Package judge turns drag events into game decisions: it checks drops
// against the zones, credits correct placements, animates credited shapes
// away, and carries the session's effects out to timers, the HUD, the
// bucket overlay and the audio cues.
package judge

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"bucketsort/internal/cue"
	"bucketsort/internal/feedback"
	"bucketsort/internal/session"
	"bucketsort/internal/shape"
	"bucketsort/internal/zone"
	"bucketsort/pkg/realtime"
)

// World is the physics side of an entity.
type World interface {
	// Detach takes the entity out of the simulation; from then on only the
	// removal animation moves it.
	Detach(e *shape.Entity)
	// Destroy removes the entity's body from the world.
	Destroy(e *shape.Entity)
}

// Presenter shows session changes to the visitor.
type Presenter interface {
	Present(effect session.Effect, snap session.Snapshot)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(effect session.Effect, snap session.Snapshot)

func (f PresenterFunc) Present(effect session.Effect, snap session.Snapshot) { f(effect, snap) }

// Deps are the collaborators of a Judge. Nil collaborators are replaced by
// silent stand-ins, except Registry and Scheduler which are created.
type Deps struct {
	Registry  *shape.Registry
	Scheduler *realtime.Scheduler
	World     World
	Sink      feedback.Sink
	Cues      cue.Player
	HUD       Presenter
	Log       *zerolog.Logger
}

type removal struct {
	e        *shape.Entity
	zone     zone.Name
	from     zone.Point
	to       zone.Point
	size     float64
	frame    int
	progress float64
}

// Judge owns the session of one visitor. Like the registry it is driven
// from a single goroutine.
type Judge struct {
	cfg   Config
	sess  *session.Session
	reg   *shape.Registry
	sched *realtime.Scheduler
	world World
	sink  feedback.Sink
	cues  cue.Player
	hud   Presenter
	log   zerolog.Logger

	width, height float64

	countdown *realtime.Timer
	winTimer  *realtime.Timer
	removals  []*removal
}

// New creates a judge with an idle session.
func New(cfg Config, deps Deps) *Judge {
	cfg = cfg.withDefaults()
	j := &Judge{
		cfg:   cfg,
		sess:  session.New(cfg.DurationSeconds, cfg.TargetCount),
		reg:   deps.Registry,
		sched: deps.Scheduler,
		world: deps.World,
		sink:  feedback.OrNop(deps.Sink),
		cues:  cue.OrNop(deps.Cues),
		hud:   deps.HUD,
		log:   zerolog.Nop(),
	}
	if deps.Log != nil {
		j.log = *deps.Log
	}
	if j.reg == nil {
		j.reg = shape.NewRegistry()
	}
	if j.sched == nil {
		j.sched = realtime.NewScheduler(time.Time{})
	}
	if j.world == nil {
		j.world = nopWorld{}
	}
	if j.hud == nil {
		j.hud = PresenterFunc(func(session.Effect, session.Snapshot) {})
	}
	return j
}

// Session exposes the session for read-only inspection.
func (j *Judge) Session() *session.Session { return j.sess }

// Registry returns the entity registry the judge resolves drops against.
func (j *Judge) Registry() *shape.Registry { return j.reg }

// Scheduler returns the timer queue driving the countdown and win delay.
func (j *Judge) Scheduler() *realtime.Scheduler { return j.sched }

// Rules returns the active placement rules.
func (j *Judge) Rules() Rules { return j.cfg.Rules }

// Resize records the viewport. Zones are derived from it on every check.
func (j *Judge) Resize(width, height float64) {
	j.width, j.height = width, height
}

// Zones computes the drop zones for the current viewport.
func (j *Judge) Zones() zone.Zones {
	return j.cfg.Geometry.For(j.width, j.height)
}

// StartGame starts a round if the session allows it.
func (j *Judge) StartGame() bool {
	effects := j.sess.Start()
	if len(effects) == 0 {
		return false
	}
	j.log.Info().Int("seconds", j.sess.Remaining()).Int("target", j.sess.Target()).Msg("game started")
	j.apply(effects)
	return true
}

// OnDragStart handles a shape being picked up. The first pick-up of an
// idle, never-won session starts the challenge.
func (j *Judge) OnDragStart(e *shape.Entity) {
	if e == nil || !j.reg.Contains(e) {
		return
	}
	if j.sess.CanStart() {
		j.StartGame()
	}
	j.cues.Play(cue.Pickup)
}

// OnHoverTick updates the zone glow for a held shape. It never changes the
// session.
func (j *Judge) OnHoverTick(e *shape.Entity) {
	if !j.sess.Active() || e == nil || !j.reg.Contains(e) {
		return
	}
	zones := j.Zones()
	for _, name := range zone.Order {
		j.sink.SetEmphasis(name, j.matches(zones, name, e))
	}
}

// OnDragEnd judges a released shape. Zones are tried in priority order and
// the first match wins.
func (j *Judge) OnDragEnd(e *shape.Entity) {
	for _, name := range zone.Order {
		j.sink.SetEmphasis(name, false)
	}
	if !j.sess.Active() || e == nil || !j.reg.Contains(e) || e.Detached {
		return
	}
	zones := j.Zones()
	for _, name := range zone.Order {
		if !j.matches(zones, name, e) {
			continue
		}
		ok, effects := j.sess.Credit(e.ID)
		if !ok {
			return
		}
		j.log.Debug().Str("entity", e.ID).Str("zone", string(name)).Int("sorted", j.sess.Sorted()).Msg("shape credited")
		j.cues.Play(cue.Success)
		j.startRemoval(e, name, zones.Sink(name))
		j.sink.Flash(name)
		j.apply(effects)
		return
	}
}

func (j *Judge) matches(zones zone.Zones, name zone.Name, e *shape.Entity) bool {
	r, ok := zones.Rect(name)
	return ok && r.Contains(e.Pos) && j.cfg.Rules.Accepts(name, e.Class)
}

func (j *Judge) startRemoval(e *shape.Entity, name zone.Name, to zone.Point) {
	j.world.Detach(e)
	e.Detached = true
	j.removals = append(j.removals, &removal{
		e:    e,
		zone: name,
		from: e.Pos,
		to:   to,
		size: e.Size,
	})
}

// RemovalFrames is the number of Step calls a removal takes.
func (j *Judge) RemovalFrames() int {
	return int(math.Ceil(1/j.cfg.RemovalStep - 1e-9))
}

// Animating returns the number of shapes still being drawn into a bucket.
func (j *Judge) Animating() int {
	return len(j.removals)
}

// Step advances every removal animation by one frame. A finished shape is
// destroyed and dropped from the registry.
func (j *Judge) Step() {
	if len(j.removals) == 0 {
		return
	}
	live := j.removals[:0]
	for _, r := range j.removals {
		r.frame++
		r.progress = math.Min(1, float64(r.frame)*j.cfg.RemovalStep)
		eased := EaseOutCubic(r.progress)
		r.e.Pos = zone.Point{
			X: r.from.X + (r.to.X-r.from.X)*eased,
			Y: r.from.Y + (r.to.Y-r.from.Y)*eased,
		}
		r.e.Size = r.size * (1 - r.progress)
		if r.progress >= 1 {
			r.e.Size = 0
			j.world.Destroy(r.e)
			j.reg.Remove(r.e)
			continue
		}
		live = append(live, r)
	}
	for i := len(live); i < len(j.removals); i++ {
		j.removals[i] = nil
	}
	j.removals = live
}

// EaseOutCubic maps linear progress in [0,1] to 1-(1-p)^3.
func EaseOutCubic(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}

// Handle feeds a timer event to the session.
func (j *Judge) Handle(ev session.Event) {
	effects := j.sess.Handle(ev)
	if len(effects) > 0 {
		j.log.Debug().Stringer("event", ev).Stringer("phase", j.sess.Phase()).Msg("session event")
	}
	j.apply(effects)
}

// Reset forcibly ends an active round and cancels every pending timer, as
// when the visitor leaves.
func (j *Judge) Reset() {
	j.apply(j.sess.Reset())
	j.countdown.Stop()
	j.winTimer.Stop()
}

func (j *Judge) apply(effects []session.Effect) {
	for _, eff := range effects {
		switch eff {
		case session.StartCountdown:
			j.countdown.Stop()
			j.countdown = j.sched.Every(j.cfg.Countdown, func() { j.Handle(session.EventTick) })
		case session.StopCountdown:
			j.countdown.Stop()
			j.countdown = nil
		case session.ScheduleWin:
			j.winTimer.Stop()
			j.winTimer = j.sched.After(j.cfg.WinDelay, func() { j.Handle(session.EventTargetReached) })
		default:
			if eff == session.ShowReward {
				j.log.Info().Int("sorted", j.sess.Sorted()).Msg("game won")
			} else if eff == session.HideGame && j.sess.Phase() == session.Idle {
				j.log.Info().Int("sorted", j.sess.Sorted()).Msg("game lost")
			}
			j.hud.Present(eff, j.sess.Snapshot())
		}
	}
}

type nopWorld struct{}

func (nopWorld) Detach(*shape.Entity)  {}
func (nopWorld) Destroy(*shape.Entity) {}
