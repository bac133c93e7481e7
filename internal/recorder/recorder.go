package recorder

import (
	"sync"
	"time"

	"proctord/internal/logging"
	"proctord/internal/session"
)

// DefaultFlushInterval is how often buffered events drain to the
// sink.
const DefaultFlushInterval = 5 * time.Second

// Sink receives flushed event batches. Installed by the host; a nil
// sink simply accumulates.
type Sink func(batch []session.Event)

// Recorder is the append-only session log. Appends normally happen on
// the engine goroutine; the flush timer is the only other writer, so
// a mutex guards the slice.
type Recorder struct {
	mu      sync.Mutex
	events  []session.Event
	flushed int // events[:flushed] already delivered

	sink     Sink
	interval time.Duration
	burst    *BurstDetector

	lastTS int64

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup

	// now is injectable for tests.
	now func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithSink installs the flush target.
func WithSink(s Sink) Option {
	return func(r *Recorder) { r.sink = s }
}

// WithFlushInterval overrides the 5 s default.
func WithFlushInterval(d time.Duration) Option {
	return func(r *Recorder) { r.interval = d }
}

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// New builds a recorder; call Start to arm the flush timer.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		interval: DefaultFlushInterval,
		burst:    NewBurstDetector(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start arms the periodic flush. Safe to skip for offline use.
func (r *Recorder) Start() {
	if r.done != nil {
		return
	}
	r.done = make(chan struct{})
	r.ticker = time.NewTicker(r.interval)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-r.ticker.C:
				r.Flush()
			case <-r.done:
				return
			}
		}
	}()
}

// Stop cancels the timer and drains whatever is buffered.
func (r *Recorder) Stop() {
	if r.done != nil {
		close(r.done)
		r.ticker.Stop()
		r.wg.Wait()
		r.done = nil
		r.ticker = nil
	}
	r.Flush()
	logging.Get().Debug("recorder stopped", "events", len(r.events))
}

// Flush delivers unflushed events to the sink immediately.
func (r *Recorder) Flush() {
	r.mu.Lock()
	var batch []session.Event
	if r.sink != nil && r.flushed < len(r.events) {
		batch = make([]session.Event, len(r.events)-r.flushed)
		copy(batch, r.events[r.flushed:])
		r.flushed = len(r.events)
	}
	sink := r.sink
	r.mu.Unlock()
	if len(batch) > 0 {
		sink(batch)
	}
}

// Append adds an event, clamping its timestamp so the log stays
// monotonic non-decreasing.
func (r *Recorder) Append(ev session.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(ev)
}

func (r *Recorder) appendLocked(ev session.Event) {
	if ev.Timestamp < r.lastTS {
		ev.Timestamp = r.lastTS
	}
	r.lastTS = ev.Timestamp
	r.events = append(r.events, ev)
}

// timestamp returns the clock reading in epoch milliseconds.
func (r *Recorder) timestamp() int64 {
	return r.now().UnixMilli()
}

// RecordKey logs a keystroke and runs burst inference; a detected
// burst appends a synthesised paste event right after the key.
func (r *Recorder) RecordKey(key string, meta *session.Meta) {
	ts := r.timestamp()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(session.KeyEvent(ts, key, meta))
	if content, detected := r.burst.Observe(ts); detected {
		r.appendLocked(session.PasteEvent(ts, content, session.PasteBurst))
	}
}

// RecordClipboardPaste logs a clipboard-API paste. When the key
// window is hot the paste is attributed to both channels.
func (r *Recorder) RecordClipboardPaste(content string) {
	ts := r.timestamp()
	by := session.PasteClipboardAPI
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.burst.Hot() {
		by = session.PasteBoth
	}
	r.appendLocked(session.PasteEvent(ts, content, by))
}

// RecordOutput logs emulator output.
func (r *Recorder) RecordOutput(content string) {
	r.Append(session.OutputEvent(r.timestamp(), content))
}

// RecordCommand logs a completed command.
func (r *Recorder) RecordCommand(raw string, exitCode int) {
	r.Append(session.CommandEvent(r.timestamp(), raw, exitCode))
}

// RecordObjective logs an objective completion.
func (r *Recorder) RecordObjective(id string) {
	r.Append(session.ObjectiveEvent(r.timestamp(), id))
}

// RecordLevel logs a level advance.
func (r *Recorder) RecordLevel(level int) {
	r.Append(session.LevelEvent(r.timestamp(), level))
}

// RecordHint logs hint usage.
func (r *Recorder) RecordHint(id string) {
	r.Append(session.HintEvent(r.timestamp(), id))
}

// RecordFocus logs a focus change and cools the burst window when
// focus leaves.
func (r *Recorder) RecordFocus(focused bool) {
	ts := r.timestamp()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(session.FocusEvent(ts, focused))
	if !focused {
		r.burst.Reset()
	}
}

// RecordResize logs a terminal resize.
func (r *Recorder) RecordResize(cols, rows int) {
	r.Append(session.ResizeEvent(r.timestamp(), cols, rows))
}

// Events returns a snapshot copy of the log.
func (r *Recorder) Events() []session.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.Event, len(r.events))
	copy(out, r.events)
	return out
}
