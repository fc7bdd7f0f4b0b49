// Package cue defines the two audio cues of the sorting game and renders
// their fixed waveforms to WAV clips the browser can play.
package cue

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/wav"
)

// Cue names a sound.
type Cue string

const (
	Pickup  Cue = "pickup"
	Success Cue = "success"
)

// All lists every cue in a stable order.
var All = []Cue{Pickup, Success}

// Player plays a cue. Playing never fails from the caller's point of view;
// an environment without audio simply stays silent.
type Player interface {
	Play(c Cue)
}

// Nop is the silent player.
type Nop struct{}

func (Nop) Play(Cue) {}

// OrNop returns p, or Nop when p is nil.
func OrNop(p Player) Player {
	if p == nil {
		return Nop{}
	}
	return p
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(c Cue)

func (f PlayerFunc) Play(c Cue) { f(c) }

// DefaultSampleRate is used when a Bank is built with a zero rate.
const DefaultSampleRate = beep.SampleRate(44100)

var ErrUnknownCue = errors.New("unknown cue")

type note struct {
	freq     float64
	duration time.Duration
	volume   float64
}

// voicing holds the fixed waveform of each cue.
var voicing = map[Cue][]note{
	Pickup: {
		{freq: 523.25, duration: 70 * time.Millisecond, volume: 0.5},
	},
	Success: {
		{freq: 659.25, duration: 90 * time.Millisecond, volume: 0.55},
		{freq: 987.77, duration: 160 * time.Millisecond, volume: 0.55},
	},
}

// Stream builds the streamer for c at the given rate.
func Stream(c Cue, rate beep.SampleRate) (beep.Streamer, error) {
	notes, ok := voicing[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCue, c)
	}
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		tone, err := generators.SineTone(rate, n.freq)
		if err != nil {
			return nil, fmt.Errorf("cue %s: %w", c, err)
		}
		shaped := newEnvelope(beep.Take(rate.N(n.duration), tone), rate.N(n.duration), rate.N(5*time.Millisecond), rate.N(n.duration/2))
		parts = append(parts, &effects.Volume{Streamer: shaped, Base: 2, Volume: math.Log2(n.volume)})
	}
	return beep.Seq(parts...), nil
}

// Render encodes c as a mono 16-bit WAV clip.
func Render(c Cue, rate beep.SampleRate) ([]byte, error) {
	s, err := Stream(c, rate)
	if err != nil {
		return nil, err
	}
	var buf memFile
	format := beep.Format{SampleRate: rate, NumChannels: 1, Precision: 2}
	if err := wav.Encode(&buf, s, format); err != nil {
		return nil, fmt.Errorf("encode %s: %w", c, err)
	}
	return buf.Bytes(), nil
}

// Bank holds the rendered clip of every cue.
type Bank struct {
	mu    sync.RWMutex
	rate  beep.SampleRate
	clips map[Cue][]byte
}

// NewBank renders all cues up front.
func NewBank(rate beep.SampleRate) (*Bank, error) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	b := &Bank{rate: rate, clips: make(map[Cue][]byte, len(All))}
	for _, c := range All {
		clip, err := Render(c, rate)
		if err != nil {
			return nil, err
		}
		b.clips[c] = clip
	}
	return b, nil
}

// WAV returns the rendered clip for c.
func (b *Bank) WAV(c Cue) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	clip, ok := b.clips[c]
	return clip, ok
}

// Rate returns the sample rate the clips were rendered at.
func (b *Bank) Rate() beep.SampleRate {
	return b.rate
}

// envelope applies a linear attack and release to a finite stream.
type envelope struct {
	s       beep.Streamer
	pos     int
	total   int
	attack  int
	release int
}

func newEnvelope(s beep.Streamer, total, attack, release int) beep.Streamer {
	return &envelope{s: s, total: total, attack: attack, release: release}
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.s.Stream(samples)
	releaseStart := e.total - e.release
	for i := 0; i < n; i++ {
		vol := 1.0
		switch {
		case e.pos < e.attack && e.attack > 0:
			vol = float64(e.pos) / float64(e.attack)
		case e.pos >= releaseStart && e.release > 0:
			vol = math.Max(0, float64(e.total-e.pos)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.pos++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.s.Err() }

// memFile is the in-memory io.WriteSeeker wav.Encode needs to patch its
// header after streaming.
type memFile struct {
	data []byte
	off  int64
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.off + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.off:], p)
	m.off = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.off + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return 0, errors.New("memfile: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("memfile: negative position")
	}
	m.off = abs
	return abs, nil
}

func (m *memFile) Bytes() []byte {
	return m.data
}
