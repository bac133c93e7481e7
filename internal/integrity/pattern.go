// Package integrity derives typing-pattern metrics from a completed
// session log and scores its authenticity. It is a pure function of
// the event stream: no engine state, no clock, no I/O.
package integrity

import (
	"proctord/internal/session"
)

// Derivation thresholds.
const (
	wpmWindow          = 10     // key events per max-WPM window
	idleGapMS          = 10000  // gap that opens an idle-burst candidate
	idleBurstRun       = 20     // keys that must follow the gap
	idleBurstGapMS     = 100    // spacing of the follow-up run
	highSpeedWindow    = 50     // key events per sustained-speed window
	highSpeedWPM       = 200.0  // WPM bound for a suspicious window
	perfectWindow      = 100    // key events per perfect-code window
	perfectBackspacePc = 0.02   // backspace ratio under which a window is "perfect"
)

// TypingPattern is the metric bundle the scorer weighs.
type TypingPattern struct {
	AverageWPM                 float64 `json:"average_wpm"`
	MaxWPM                     float64 `json:"max_wpm"`
	BackspaceRatio             float64 `json:"backspace_ratio"`
	IdleBurstCount             int     `json:"idle_burst_count"`
	TabAwayCount               int     `json:"tab_away_count"`
	SustainedHighSpeedSegments int     `json:"sustained_high_speed_segments"`
	PerfectCodeSegments        int     `json:"perfect_code_segments"`
	PasteCount                 int     `json:"paste_count"`
	KeyCount                   int     `json:"key_count"`
}

// isBackspace matches the key spellings a backspace arrives under.
func isBackspace(key string) bool {
	switch key {
	case "Backspace", "\x08", "\x7f":
		return true
	}
	return false
}

// wpm converts a character count over a millisecond span to words per
// minute (5 chars per word).
func wpm(chars int, spanMS int64) float64 {
	if spanMS <= 0 {
		return 0
	}
	minutes := float64(spanMS) / 60000.0
	return float64(chars) / 5.0 / minutes
}

// DerivePattern computes the full metric set from an event log.
func DerivePattern(events []session.Event) TypingPattern {
	var p TypingPattern

	var keys []session.Event
	for _, ev := range events {
		switch ev.Kind {
		case session.EventKey:
			keys = append(keys, ev)
		case session.EventPaste:
			p.PasteCount++
		case session.EventFocusChange:
			if !ev.Focused {
				p.TabAwayCount++
			}
		}
	}
	p.KeyCount = len(keys)
	if len(keys) == 0 {
		return p
	}

	backspaces := 0
	for _, k := range keys {
		if isBackspace(k.Key) {
			backspaces++
		}
	}
	p.BackspaceRatio = float64(backspaces) / float64(len(keys))

	span := keys[len(keys)-1].Timestamp - keys[0].Timestamp
	p.AverageWPM = wpm(len(keys), span)

	// Max WPM over a sliding window of consecutive key events.
	for i := 0; i+wpmWindow <= len(keys); i++ {
		window := keys[i : i+wpmWindow]
		v := wpm(wpmWindow, window[wpmWindow-1].Timestamp-window[0].Timestamp)
		if v > p.MaxWPM {
			p.MaxWPM = v
		}
	}

	p.IdleBurstCount = countIdleBursts(keys)
	p.SustainedHighSpeedSegments = countWindows(keys, highSpeedWindow, func(w []session.Event) bool {
		return wpm(len(w), w[len(w)-1].Timestamp-w[0].Timestamp) > highSpeedWPM
	})
	p.PerfectCodeSegments = countWindows(keys, perfectWindow, func(w []session.Event) bool {
		b := 0
		for _, k := range w {
			if isBackspace(k.Key) {
				b++
			}
		}
		return float64(b)/float64(len(w)) < perfectBackspacePc
	})
	return p
}

// countIdleBursts finds long gaps immediately followed by a tight run
// of keys, the signature of stepping away and pasting on return.
func countIdleBursts(keys []session.Event) int {
	count := 0
	for i := 1; i < len(keys); i++ {
		if keys[i].Timestamp-keys[i-1].Timestamp < idleGapMS {
			continue
		}
		run := 0
		for j := i + 1; j < len(keys) && keys[j].Timestamp-keys[j-1].Timestamp < idleBurstGapMS; j++ {
			run++
		}
		if run >= idleBurstRun {
			count++
		}
	}
	return count
}

// countWindows counts non-overlapping fixed-size windows satisfying
// pred, advancing past each match.
func countWindows(keys []session.Event, size int, pred func([]session.Event) bool) int {
	count := 0
	for i := 0; i+size <= len(keys); {
		if pred(keys[i : i+size]) {
			count++
			i += size
		} else {
			i++
		}
	}
	return count
}
