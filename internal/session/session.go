package session

// Phase is the coarse state of a session.
type Phase int

const (
	Idle Phase = iota
	Active
	Won
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Won:
		return "won"
	}
	return "unknown"
}

const (
	DefaultDurationSeconds = 30
	DefaultTargetCount     = 5
)

// Event is a timer-driven input to the state machine.
type Event int

const (
	// EventTick fires once per second while the countdown runs.
	EventTick Event = iota + 1
	// EventTimeExpired ends the session as a loss.
	EventTimeExpired
	// EventTargetReached ends the session as a win. It is delivered after the
	// win delay so the last placement animation stays visible.
	EventTargetReached
)

func (e Event) String() string {
	switch e {
	case EventTick:
		return "tick"
	case EventTimeExpired:
		return "time_expired"
	case EventTargetReached:
		return "target_reached"
	}
	return "unknown"
}

// Effect is an instruction for the collaborators around the state machine.
// The session never performs side effects itself.
type Effect int

const (
	ShowGame Effect = iota + 1
	HideGame
	ShowBuckets
	HideBuckets
	ShowReward
	StartCountdown
	StopCountdown
	ScheduleWin
	TimerChanged
	ScoreChanged
)

func (e Effect) String() string {
	switch e {
	case ShowGame:
		return "show_game"
	case HideGame:
		return "hide_game"
	case ShowBuckets:
		return "show_buckets"
	case HideBuckets:
		return "hide_buckets"
	case ShowReward:
		return "show_reward"
	case StartCountdown:
		return "start_countdown"
	case StopCountdown:
		return "stop_countdown"
	case ScheduleWin:
		return "schedule_win"
	case TimerChanged:
		return "timer_changed"
	case ScoreChanged:
		return "score_changed"
	}
	return "unknown"
}

// Session is the timed sorting challenge for one visitor.
type Session struct {
	phase      Phase
	wonOnce    bool
	remaining  int
	duration   int
	target     int
	winPending bool
	credited   map[string]struct{}
}

// New creates an idle session. Non-positive arguments fall back to the
// defaults.
func New(durationSeconds, target int) *Session {
	if durationSeconds <= 0 {
		durationSeconds = DefaultDurationSeconds
	}
	if target <= 0 {
		target = DefaultTargetCount
	}
	return &Session{
		phase:    Idle,
		duration: durationSeconds,
		target:   target,
		credited: make(map[string]struct{}),
	}
}

func (s *Session) Phase() Phase { return s.phase }
func (s *Session) Active() bool { return s.phase == Active }
func (s *Session) WonOnce() bool { return s.wonOnce }
func (s *Session) Remaining() int { return s.remaining }
func (s *Session) Sorted() int { return len(s.credited) }
func (s *Session) Target() int { return s.target }
func (s *Session) WinPending() bool { return s.winPending }
func (s *Session) Duration() int { return s.duration }

// IsCredited reports whether id already counted toward the score.
func (s *Session) IsCredited(id string) bool {
	_, ok := s.credited[id]
	return ok
}

// CanStart reports whether Start would begin a new round.
func (s *Session) CanStart() bool {
	return s.phase == Idle && !s.wonOnce
}

// Start begins a round from Idle. Once the session has been won it stays
// won and Start does nothing.
func (s *Session) Start() []Effect {
	if !s.CanStart() {
		return nil
	}
	s.phase = Active
	s.remaining = s.duration
	s.winPending = false
	clear(s.credited)
	return []Effect{ShowGame, ShowBuckets, TimerChanged, ScoreChanged, StartCountdown}
}

// Credit counts id toward the score. It returns false when the session is
// not active, the win is already pending, or id was credited before.
func (s *Session) Credit(id string) (bool, []Effect) {
	if s.phase != Active || s.winPending {
		return false, nil
	}
	if _, ok := s.credited[id]; ok {
		return false, nil
	}
	s.credited[id] = struct{}{}
	effects := []Effect{ScoreChanged}
	if len(s.credited) >= s.target {
		// The countdown stops here so a timeout can no longer race the win.
		s.winPending = true
		effects = append(effects, StopCountdown, ScheduleWin)
	}
	return true, effects
}

// Handle applies a timer event.
func (s *Session) Handle(ev Event) []Effect {
	switch ev {
	case EventTick:
		return s.tick()
	case EventTimeExpired:
		if s.winPending {
			return nil
		}
		return s.End(false)
	case EventTargetReached:
		return s.End(true)
	}
	return nil
}

func (s *Session) tick() []Effect {
	if s.phase != Active || s.winPending {
		return nil
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		return []Effect{TimerChanged}
	}
	return append([]Effect{TimerChanged}, s.End(false)...)
}

// End leaves Active. Only the first call has any effect, so a win and a
// timeout landing together produce a single teardown.
func (s *Session) End(won bool) []Effect {
	if s.phase != Active {
		return nil
	}
	s.winPending = false
	if won {
		s.phase = Won
		s.wonOnce = true
		return []Effect{StopCountdown, HideGame, HideBuckets, ShowReward}
	}
	s.phase = Idle
	return []Effect{StopCountdown, HideGame, HideBuckets}
}

// Reset forcibly leaves Active without declaring a result, e.g. when the
// room is torn down. A won session stays won.
func (s *Session) Reset() []Effect {
	return s.End(false)
}

// Snapshot is a read-only view for presenters.
type Snapshot struct {
	Phase     Phase
	WonOnce   bool
	Remaining int
	Sorted    int
	Target    int
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Phase:     s.phase,
		WonOnce:   s.wonOnce,
		Remaining: s.remaining,
		Sorted:    len(s.credited),
		Target:    s.target,
	}
}
