package integrity

import (
	"fmt"
	"io"
	"strings"
)

// Severity weights a flag's deduction.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// deduction maps severity to points removed from the score.
var deduction = map[Severity]int{
	SeverityHigh:   30,
	SeverityMedium: 15,
	SeverityLow:    5,
}

// Flag is one triggered integrity rule.
type Flag struct {
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// Report is the scored assessment of one session.
type Report struct {
	Score   int           `json:"score"`
	Summary string        `json:"summary"`
	Flags   []Flag        `json:"flags"`
	Pattern TypingPattern `json:"pattern"`
}

// Score evaluates the pattern rules and produces the weighted report.
// The score starts at 100 and clamps to [0, 100].
func Score(pattern TypingPattern) Report {
	var flags []Flag
	add := func(name string, sev Severity, format string, args ...any) {
		flags = append(flags, Flag{Name: name, Severity: sev, Detail: fmt.Sprintf(format, args...)})
	}

	switch {
	case pattern.PasteCount > 5:
		add("excessive_paste", SeverityHigh, "%d paste events", pattern.PasteCount)
	case pattern.PasteCount > 2:
		add("moderate_paste", SeverityMedium, "%d paste events", pattern.PasteCount)
	}
	if pattern.SustainedHighSpeedSegments > 0 {
		add("speed_anomaly", SeverityMedium, "%d sustained windows above %.0f WPM",
			pattern.SustainedHighSpeedSegments, highSpeedWPM)
	}
	if pattern.PerfectCodeSegments > 2 {
		add("perfect_code", SeverityMedium, "%d long windows with under %.0f%% corrections",
			pattern.PerfectCodeSegments, perfectBackspacePc*100)
	}
	if pattern.IdleBurstCount > 3 {
		add("idle_burst", SeverityLow, "%d idle-then-burst patterns", pattern.IdleBurstCount)
	}
	if pattern.TabAwayCount > 10 {
		add("frequent_tab_away", SeverityLow, "%d focus losses", pattern.TabAwayCount)
	}

	score := 100
	for _, f := range flags {
		score -= deduction[f.Severity]
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Report{
		Score:   score,
		Summary: summarise(score),
		Flags:   flags,
		Pattern: pattern,
	}
}

// summarise buckets the score into the reviewer-facing verdict.
func summarise(score int) string {
	switch {
	case score >= 90:
		return "Session appears authentic: typing cadence and correction patterns are consistent with live work."
	case score >= 70:
		return "Session is mostly consistent with live work, with minor anomalies worth a look."
	case score >= 50:
		return "Session shows several integrity anomalies; manual review recommended."
	default:
		return "Session integrity is doubtful: multiple strong indicators of pasted or scripted input."
	}
}

// PrintReport writes the human-readable report the verify CLI shows.
func PrintReport(w io.Writer, report Report) {
	rule := strings.Repeat("=", 64)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "              SESSION INTEGRITY REPORT")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Score:            %d/100\n", report.Score)
	fmt.Fprintf(w, "Keystrokes:       %d\n", report.Pattern.KeyCount)
	fmt.Fprintf(w, "Average WPM:      %.1f\n", report.Pattern.AverageWPM)
	fmt.Fprintf(w, "Max WPM:          %.1f\n", report.Pattern.MaxWPM)
	fmt.Fprintf(w, "Backspace ratio:  %.3f\n", report.Pattern.BackspaceRatio)
	fmt.Fprintf(w, "Pastes:           %d\n", report.Pattern.PasteCount)
	fmt.Fprintf(w, "Tab-aways:        %d\n", report.Pattern.TabAwayCount)
	fmt.Fprintln(w)
	if len(report.Flags) > 0 {
		fmt.Fprintln(w, strings.Repeat("-", 64))
		fmt.Fprintln(w, "FLAGS")
		fmt.Fprintln(w, strings.Repeat("-", 64))
		for i, f := range report.Flags {
			fmt.Fprintf(w, "%d. [%s] %s: %s (-%d)\n",
				i+1, strings.ToUpper(string(f.Severity)), f.Name, f.Detail, deduction[f.Severity])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "ASSESSMENT: %s\n", report.Summary)
	fmt.Fprintln(w, rule)
}
