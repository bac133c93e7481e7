package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"proctord/internal/session"
)

// ExportJSONL writes one event per line, the interchange format the
// verify and replay tools accept alongside sqlite.
func ExportJSONL(w io.Writer, events []session.Event) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("store: encode jsonl: %w", err)
		}
	}
	return bw.Flush()
}

// ImportJSONL reads an event-per-line stream, skipping blank lines
// and rejecting unknown kinds.
func ImportJSONL(r io.Reader) ([]session.Event, error) {
	var events []session.Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var ev session.Event
		if err := json.Unmarshal(text, &ev); err != nil {
			return nil, fmt.Errorf("store: jsonl line %d: %w", line, err)
		}
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("store: jsonl line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("store: read jsonl: %w", err)
	}
	return events, nil
}
