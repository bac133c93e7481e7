package integrity

import (
	"strings"
	"testing"

	"proctord/internal/session"
)

// keysAt emits n key events starting at ts with a fixed gap.
func keysAt(ts int64, n int, gapMS int64, key string) []session.Event {
	events := make([]session.Event, n)
	for i := 0; i < n; i++ {
		events[i] = session.KeyEvent(ts+int64(i)*gapMS, key, nil)
	}
	return events
}

func TestDerivePatternBasics(t *testing.T) {
	// 100 keys over 60 s: 100 chars / 5 / 1 min = 20 WPM.
	events := keysAt(0, 100, 606, "a") // span ≈ 59,994 ms
	p := DerivePattern(events)
	if p.KeyCount != 100 {
		t.Errorf("key count = %d", p.KeyCount)
	}
	if p.AverageWPM < 19 || p.AverageWPM > 21 {
		t.Errorf("average wpm = %.2f, want ≈20", p.AverageWPM)
	}
	if p.MaxWPM < p.AverageWPM {
		t.Errorf("max wpm %.2f below average %.2f", p.MaxWPM, p.AverageWPM)
	}
}

func TestBackspaceRatio(t *testing.T) {
	var events []session.Event
	events = append(events, keysAt(0, 8, 100, "a")...)
	events = append(events, keysAt(1000, 2, 100, "Backspace")...)
	p := DerivePattern(events)
	if p.BackspaceRatio != 0.2 {
		t.Errorf("backspace ratio = %.3f, want 0.2", p.BackspaceRatio)
	}

	// Char-code spellings count too.
	events = append(events[:8], session.KeyEvent(2000, "\x7f", nil), session.KeyEvent(2100, "\x08", nil))
	p = DerivePattern(events)
	if p.BackspaceRatio != 0.2 {
		t.Errorf("char-code backspace ratio = %.3f", p.BackspaceRatio)
	}
}

func TestIdleBurstDetection(t *testing.T) {
	var events []session.Event
	events = append(events, keysAt(0, 5, 200, "a")...)
	// 12 s silence, then 25 keys at 50 ms: one idle burst.
	events = append(events, keysAt(13_000, 25, 50, "b")...)
	p := DerivePattern(events)
	if p.IdleBurstCount != 1 {
		t.Errorf("idle bursts = %d, want 1", p.IdleBurstCount)
	}

	// The same gap followed by slow typing is not a burst.
	var calm []session.Event
	calm = append(calm, keysAt(0, 5, 200, "a")...)
	calm = append(calm, keysAt(13_000, 25, 500, "b")...)
	if p := DerivePattern(calm); p.IdleBurstCount != 0 {
		t.Errorf("calm idle bursts = %d", p.IdleBurstCount)
	}
}

func TestSustainedHighSpeedSegments(t *testing.T) {
	// 10 ms per key ≈ 1200 WPM, sustained for 150 keys: windows are
	// non-overlapping, so 150 keys yield 3 segments.
	p := DerivePattern(keysAt(0, 150, 10, "a"))
	if p.SustainedHighSpeedSegments != 3 {
		t.Errorf("segments = %d, want 3", p.SustainedHighSpeedSegments)
	}
	// Human speed yields none.
	p = DerivePattern(keysAt(0, 150, 300, "a"))
	if p.SustainedHighSpeedSegments != 0 {
		t.Errorf("human segments = %d", p.SustainedHighSpeedSegments)
	}
}

func TestPerfectCodeSegments(t *testing.T) {
	// 200 flawless keys = 2 perfect windows.
	p := DerivePattern(keysAt(0, 200, 150, "a"))
	if p.PerfectCodeSegments != 2 {
		t.Errorf("perfect segments = %d, want 2", p.PerfectCodeSegments)
	}
	// 2+ backspaces per 100 (a 2% ratio) disqualify; every window here
	// holds at least 3.
	var messy []session.Event
	for i := 0; i < 200; i++ {
		key := "a"
		if i%30 == 0 {
			key = "Backspace"
		}
		messy = append(messy, session.KeyEvent(int64(i)*150, key, nil))
	}
	if p := DerivePattern(messy); p.PerfectCodeSegments != 0 {
		t.Errorf("messy perfect segments = %d", p.PerfectCodeSegments)
	}
}

func TestTabAwayAndPasteCounts(t *testing.T) {
	events := []session.Event{
		session.FocusEvent(0, false),
		session.FocusEvent(100, true),
		session.FocusEvent(200, false),
		session.PasteEvent(300, "x", session.PasteClipboardAPI),
		session.PasteEvent(400, "y", session.PasteBurst),
	}
	p := DerivePattern(events)
	if p.TabAwayCount != 2 {
		t.Errorf("tab away = %d", p.TabAwayCount)
	}
	if p.PasteCount != 2 {
		t.Errorf("pastes = %d", p.PasteCount)
	}
}

// =============================================================================
// Scoring
// =============================================================================

func TestScoreCleanSession(t *testing.T) {
	report := Score(DerivePattern(keysAt(0, 80, 250, "a")))
	if report.Score != 100 {
		t.Errorf("clean score = %d, flags = %+v", report.Score, report.Flags)
	}
	if !strings.Contains(report.Summary, "authentic") {
		t.Errorf("summary = %q", report.Summary)
	}
}

func TestScoreDeductions(t *testing.T) {
	tests := []struct {
		name    string
		pattern TypingPattern
		want    int
		flag    string
	}{
		{"excessive paste", TypingPattern{PasteCount: 6}, 70, "excessive_paste"},
		{"moderate paste", TypingPattern{PasteCount: 3}, 85, "moderate_paste"},
		{"boundary two pastes", TypingPattern{PasteCount: 2}, 100, ""},
		{"speed anomaly", TypingPattern{SustainedHighSpeedSegments: 1}, 85, "speed_anomaly"},
		{"perfect code", TypingPattern{PerfectCodeSegments: 3}, 85, "perfect_code"},
		{"perfect code boundary", TypingPattern{PerfectCodeSegments: 2}, 100, ""},
		{"idle burst", TypingPattern{IdleBurstCount: 4}, 95, "idle_burst"},
		{"tab away", TypingPattern{TabAwayCount: 11}, 95, "frequent_tab_away"},
		{
			"stacked deductions",
			TypingPattern{
				PasteCount:                 9,
				SustainedHighSpeedSegments: 2,
				PerfectCodeSegments:        5,
				IdleBurstCount:             10,
				TabAwayCount:               20,
			},
			30, // 100 - 30 - 15 - 15 - 5 - 5
			"excessive_paste",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Score(tt.pattern)
			if report.Score != tt.want {
				t.Errorf("score = %d, want %d (flags %+v)", report.Score, tt.want, report.Flags)
			}
			if tt.flag != "" {
				found := false
				for _, f := range report.Flags {
					if f.Name == tt.flag {
						found = true
					}
				}
				if !found {
					t.Errorf("flag %q missing: %+v", tt.flag, report.Flags)
				}
			}
		})
	}
}

func TestSummaryBuckets(t *testing.T) {
	tests := []struct {
		score int
		word  string
	}{
		{95, "authentic"},
		{75, "mostly consistent"},
		{55, "manual review"},
		{20, "doubtful"},
	}
	for _, tt := range tests {
		if got := summarise(tt.score); !strings.Contains(got, tt.word) {
			t.Errorf("summarise(%d) = %q, want to mention %q", tt.score, got, tt.word)
		}
	}
}

func TestPrintReport(t *testing.T) {
	var sb strings.Builder
	PrintReport(&sb, Score(TypingPattern{PasteCount: 6, KeyCount: 10}))
	out := sb.String()
	for _, want := range []string{"SESSION INTEGRITY REPORT", "Score:", "excessive_paste", "ASSESSMENT:"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
