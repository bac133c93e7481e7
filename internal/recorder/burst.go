// Package recorder captures the session event stream: an append-only
// log with periodic flushing through a host-installed sink, and the
// burst heuristics that infer pastes from keystroke timing alone.
package recorder

import "fmt"

// Burst detection thresholds. A paste shows up as a long run of
// implausibly tight inter-key gaps; 30 keys inside 50 ms spacing is
// far past any human cadence.
const (
	burstWindow   = 5000 // ms of history retained
	burstMinKeys  = 30   // timestamps required before inference runs
	burstMaxGap   = 50   // ms between keys inside a burst
	hotWindowKeys = 5    // trailing gaps checked for clipboard overlap
)

// BurstDetector keeps a sliding window of key timestamps and
// synthesises a paste when the trailing run of gaps is machine-tight.
type BurstDetector struct {
	window []int64 // ms timestamps, oldest first
}

// NewBurstDetector returns an empty detector.
func NewBurstDetector() *BurstDetector {
	return &BurstDetector{}
}

// Observe records a key timestamp. When a burst is detected it
// returns the synthesised paste content and true, and the window
// resets so one paste is reported once.
func (d *BurstDetector) Observe(ts int64) (content string, detected bool) {
	// Drop entries older than the window.
	cutoff := ts - burstWindow
	trim := 0
	for trim < len(d.window) && d.window[trim] < cutoff {
		trim++
	}
	d.window = append(d.window[trim:], ts)

	if len(d.window) < burstMinKeys {
		return "", false
	}

	// Count the trailing run of consecutive gaps within burstMaxGap.
	run := 0
	for i := len(d.window) - 1; i > 0; i-- {
		if d.window[i]-d.window[i-1] <= burstMaxGap {
			run++
		} else {
			break
		}
	}
	if run < burstMinKeys {
		return "", false
	}
	duration := d.window[len(d.window)-1] - d.window[len(d.window)-1-run]
	d.window = d.window[:0]
	return fmt.Sprintf("[burst detected: %d chars in %dms]", run, duration), true
}

// Hot reports whether the window currently looks like an active
// burst: the mean of the last few gaps is under the burst spacing. A
// clipboard paste arriving while the window is hot is recorded as
// detected by both channels.
func (d *BurstDetector) Hot() bool {
	if len(d.window) < hotWindowKeys+1 {
		return false
	}
	start := len(d.window) - hotWindowKeys - 1
	total := d.window[len(d.window)-1] - d.window[start]
	return float64(total)/float64(hotWindowKeys) < float64(burstMaxGap)
}

// Reset clears the window (on focus loss or session end).
func (d *BurstDetector) Reset() {
	d.window = d.window[:0]
}
