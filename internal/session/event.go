// Package session defines the recorded event stream for a proctored
// terminal session.
//
// Every observable interaction with the emulator (keystrokes, pastes,
// terminal output, completed commands, challenge progress, focus and
// resize) is captured as an Event with a millisecond timestamp. The
// stream is the single source of truth for replay and integrity
// analysis; timestamps are monotonic non-decreasing within a session.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the event union. The set is closed; consumers
// should exhaustively switch on it.
type EventKind string

const (
	EventKey               EventKind = "key"
	EventPaste             EventKind = "paste"
	EventOutput            EventKind = "output"
	EventCommand           EventKind = "command"
	EventObjectiveComplete EventKind = "objective_complete"
	EventLevelAdvance      EventKind = "level_advance"
	EventHintUsed          EventKind = "hint_used"
	EventFocusChange       EventKind = "focus_change"
	EventResize            EventKind = "resize"
)

// PasteSource records how a paste was detected.
type PasteSource string

const (
	PasteClipboardAPI PasteSource = "clipboard_api"
	PasteBurst        PasteSource = "burst"
	PasteBoth         PasteSource = "both"
)

// Meta carries the modifier state of a key event.
type Meta struct {
	Shift bool `json:"shift,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Meta  bool `json:"meta,omitempty"`
}

// Event is one entry in the session stream. Timestamp is milliseconds
// since the Unix epoch. Only the fields belonging to the Kind are set;
// the rest stay at their zero value and are omitted from JSON.
type Event struct {
	Timestamp int64     `json:"ts"`
	Kind      EventKind `json:"type"`

	// key
	Key  string `json:"key,omitempty"`
	Meta *Meta  `json:"meta,omitempty"`

	// paste / output
	Content    string      `json:"content,omitempty"`
	DetectedBy PasteSource `json:"detected_by,omitempty"`

	// command
	Raw      string `json:"raw,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`

	// objective_complete / hint_used
	ObjectiveID string `json:"objective_id,omitempty"`

	// level_advance
	Level int `json:"level,omitempty"`

	// focus_change
	Focused bool `json:"focused,omitempty"`

	// resize
	Cols int `json:"cols,omitempty"`
	Rows int `json:"rows,omitempty"`
}

// ErrUnknownKind is returned when decoding an event whose type
// discriminant is not one of the defined kinds.
var ErrUnknownKind = errors.New("session: unknown event kind")

var kinds = map[EventKind]bool{
	EventKey: true, EventPaste: true, EventOutput: true,
	EventCommand: true, EventObjectiveComplete: true,
	EventLevelAdvance: true, EventHintUsed: true,
	EventFocusChange: true, EventResize: true,
}

// Validate checks that the kind discriminant is known.
func (e Event) Validate() error {
	if !kinds[e.Kind] {
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return nil
}

// Time returns the event timestamp as a time.Time.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// KeyEvent builds a key event. meta may be nil for an unmodified key.
func KeyEvent(ts int64, key string, meta *Meta) Event {
	return Event{Timestamp: ts, Kind: EventKey, Key: key, Meta: meta}
}

// PasteEvent builds a paste event.
func PasteEvent(ts int64, content string, by PasteSource) Event {
	return Event{Timestamp: ts, Kind: EventPaste, Content: content, DetectedBy: by}
}

// OutputEvent builds an output event.
func OutputEvent(ts int64, content string) Event {
	return Event{Timestamp: ts, Kind: EventOutput, Content: content}
}

// CommandEvent builds a command event for a submitted line.
func CommandEvent(ts int64, raw string, exitCode int) Event {
	return Event{Timestamp: ts, Kind: EventCommand, Raw: raw, ExitCode: exitCode}
}

// ObjectiveEvent builds an objective_complete event.
func ObjectiveEvent(ts int64, id string) Event {
	return Event{Timestamp: ts, Kind: EventObjectiveComplete, ObjectiveID: id}
}

// LevelEvent builds a level_advance event.
func LevelEvent(ts int64, level int) Event {
	return Event{Timestamp: ts, Kind: EventLevelAdvance, Level: level}
}

// HintEvent builds a hint_used event.
func HintEvent(ts int64, id string) Event {
	return Event{Timestamp: ts, Kind: EventHintUsed, ObjectiveID: id}
}

// FocusEvent builds a focus_change event.
func FocusEvent(ts int64, focused bool) Event {
	return Event{Timestamp: ts, Kind: EventFocusChange, Focused: focused}
}

// ResizeEvent builds a resize event.
func ResizeEvent(ts int64, cols, rows int) Event {
	return Event{Timestamp: ts, Kind: EventResize, Cols: cols, Rows: rows}
}

// SortByTimestamp sorts events chronologically. The sort is stable so
// that events sharing a timestamp keep their emission order.
func SortByTimestamp(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})
}

// DecodeEvents parses a JSON array of events, rejecting unknown kinds.
func DecodeEvents(data []byte) ([]Event, error) {
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("session: decode events: %w", err)
	}
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return events, nil
}

// EncodeEvents serialises events as a JSON array.
func EncodeEvents(events []Event) ([]byte, error) {
	return json.Marshal(events)
}

// Session couples a recorded event stream with its identity metadata.
type Session struct {
	ID        string  `json:"id"`
	User      string  `json:"user"`
	Hostname  string  `json:"hostname"`
	StartedAt int64   `json:"started_at"`
	EndedAt   int64   `json:"ended_at,omitempty"`
	Events    []Event `json:"events"`
}

// NewSession mints a session with a random identity.
func NewSession(user, hostname string, start time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		User:      user,
		Hostname:  hostname,
		StartedAt: start.UnixMilli(),
	}
}

// Duration returns the span between the first and last event in
// milliseconds, or 0 for fewer than two events.
func (s *Session) Duration() int64 {
	if len(s.Events) < 2 {
		return 0
	}
	return s.Events[len(s.Events)-1].Timestamp - s.Events[0].Timestamp
}
