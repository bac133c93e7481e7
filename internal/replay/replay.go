// Package replay plays a recorded session back through a sink with
// variable speed and seeking. Playback is deterministic: events are
// delivered in timestamp order with inter-event delays scaled by the
// speed factor and capped so long idle stretches compress.
package replay

import (
	"sync"
	"time"

	"proctord/internal/session"
)

// maxGapMS caps the scheduled delay between two events at 1x speed.
const maxGapMS = 2000

// State is pushed to the state-change callback on every transition.
type State struct {
	Index   int
	Playing bool
	Speed   float64
}

// Timer is a cancellable pending tick.
type Timer interface {
	Stop() bool
}

// TimerFactory schedules f after d. Tests inject a mock; the default
// wraps time.AfterFunc.
type TimerFactory func(d time.Duration, f func()) Timer

type stdTimer struct{ *time.Timer }

func stdTimerFactory(d time.Duration, f func()) Timer {
	return stdTimer{time.AfterFunc(d, f)}
}

// Player walks a recorded event list.
type Player struct {
	mu      sync.Mutex
	events  []session.Event
	index   int
	playing bool
	speed   float64

	onEvent func(session.Event)
	onState func(State)

	newTimer TimerFactory
	pending  Timer
}

// Option configures a Player.
type Option func(*Player)

// WithTimerFactory injects the tick scheduler.
func WithTimerFactory(f TimerFactory) Option {
	return func(p *Player) { p.newTimer = f }
}

// WithStateCallback installs the state-change listener.
func WithStateCallback(f func(State)) Option {
	return func(p *Player) { p.onState = f }
}

// New builds a player over a recorded log. The input is re-sorted
// defensively; the recorder guarantees order but imported logs may
// not.
func New(events []session.Event, onEvent func(session.Event), opts ...Option) *Player {
	sorted := make([]session.Event, len(events))
	copy(sorted, events)
	session.SortByTimestamp(sorted)
	p := &Player{
		events:   sorted,
		speed:    1,
		onEvent:  onEvent,
		newTimer: stdTimerFactory,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play starts or resumes playback from the current index, wrapping to
// the start when already at the end.
func (p *Player) Play() {
	p.mu.Lock()
	if p.playing || len(p.events) == 0 {
		p.mu.Unlock()
		return
	}
	if p.index >= len(p.events) {
		p.index = 0
	}
	p.playing = true
	p.scheduleLocked(0)
	p.mu.Unlock()
	p.notify()
}

// Pause cancels the pending tick.
func (p *Player) Pause() {
	p.mu.Lock()
	p.playing = false
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
	p.mu.Unlock()
	p.notify()
}

// SetSpeed changes the playback rate; an in-flight tick is
// re-scheduled at the new speed.
func (p *Player) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	p.mu.Lock()
	p.speed = speed
	if p.playing {
		if p.pending != nil {
			p.pending.Stop()
		}
		p.scheduleLocked(p.delayLocked())
	}
	p.mu.Unlock()
	p.notify()
}

// SeekTo jumps to an event index, clamped into range.
func (p *Player) SeekTo(index int) {
	p.mu.Lock()
	if index < 0 {
		index = 0
	}
	if index > len(p.events) {
		index = len(p.events)
	}
	p.index = index
	if p.playing {
		if p.pending != nil {
			p.pending.Stop()
		}
		p.scheduleLocked(0)
	}
	p.mu.Unlock()
	p.notify()
}

// SeekToTime jumps to the first event at or after the offset (in ms
// from the first event).
func (p *Player) SeekToTime(offsetMS int64) {
	p.mu.Lock()
	if len(p.events) == 0 {
		p.mu.Unlock()
		return
	}
	target := p.events[0].Timestamp + offsetMS
	index := len(p.events)
	for i, ev := range p.events {
		if ev.Timestamp >= target {
			index = i
			break
		}
	}
	p.index = index
	p.mu.Unlock()
	p.notify()
}

// State reports the current playback position.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{Index: p.index, Playing: p.playing, Speed: p.speed}
}

// Duration is the recorded span in milliseconds.
func (p *Player) Duration() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) < 2 {
		return 0
	}
	return p.events[len(p.events)-1].Timestamp - p.events[0].Timestamp
}

// Stop halts playback and releases the timer.
func (p *Player) Stop() {
	p.Pause()
}

// delayLocked computes the scaled delay between the previous event
// and the one at index.
func (p *Player) delayLocked() time.Duration {
	if p.index == 0 || p.index >= len(p.events) {
		return 0
	}
	gap := p.events[p.index].Timestamp - p.events[p.index-1].Timestamp
	if gap < 0 {
		gap = 0
	}
	scaled := float64(gap) / p.speed
	if limit := float64(maxGapMS) / p.speed; scaled > limit {
		scaled = limit
	}
	return time.Duration(scaled * float64(time.Millisecond))
}

// scheduleLocked arms the next tick.
func (p *Player) scheduleLocked(d time.Duration) {
	p.pending = p.newTimer(d, p.tick)
}

// tick delivers the current event, advances, and schedules the next.
func (p *Player) tick() {
	p.mu.Lock()
	if !p.playing || p.index >= len(p.events) {
		p.playing = false
		p.pending = nil
		p.mu.Unlock()
		p.notify()
		return
	}
	ev := p.events[p.index]
	deliver := p.onEvent
	p.index++
	done := p.index >= len(p.events)
	var next time.Duration
	if !done {
		next = p.delayLocked()
	}
	p.mu.Unlock()

	if deliver != nil {
		deliver(ev)
	}

	p.mu.Lock()
	if done {
		p.playing = false
		p.pending = nil
	} else if p.playing {
		p.scheduleLocked(next)
	}
	p.mu.Unlock()
	p.notify()
}

func (p *Player) notify() {
	if p.onState != nil {
		p.onState(p.State())
	}
}
