// Command proctor-replay plays a recorded session back to the
// terminal.
//
// Output events render exactly the bytes the candidate saw; commands,
// pastes, objectives and level changes print as colored annotations,
// and key events print as dim annotations when -keys is set. Playback
// honours the recorded timing, scaled by
// -speed and with long idle gaps compressed.
//
// Usage:
//
//	proctor-replay [flags] <events.jsonl>
//	proctor-replay [flags] -db sessions.db -session <id>
//
// Examples:
//
//	# Replay at 8x
//	proctor-replay -speed 8 session.jsonl
//
//	# Skip the first 30 seconds
//	proctor-replay -seek 30s session.jsonl
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"proctord/internal/replay"
	"proctord/internal/session"
	"proctord/internal/store"
)

var (
	// Version information (set at build time)
	version = "dev"
)

func main() {
	dbPath := flag.String("db", "", "sqlite database written by proctord")
	sessionID := flag.String("session", "", "session id inside -db")
	speed := flag.Float64("speed", 1, "playback speed multiplier")
	seek := flag.Duration("seek", 0, "skip into the recording before playing")
	keys := flag.Bool("keys", false, "annotate key events")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("proctor-replay", version)
		return
	}

	events, err := loadEvents(*dbPath, *sessionID, flag.Arg(0))
	if err != nil {
		fatal(err)
	}
	if len(events) == 0 {
		fatal(fmt.Errorf("nothing to replay"))
	}

	done := make(chan struct{})
	player := replay.New(events, func(ev session.Event) {
		render(ev, *keys)
	}, replay.WithStateCallback(func(st replay.State) {
		if !st.Playing && st.Index >= len(events) {
			select {
			case <-done:
			default:
				close(done)
			}
		}
	}))

	if *seek > 0 {
		player.SeekToTime(seek.Milliseconds())
	}
	if *speed > 0 {
		player.SetSpeed(*speed)
	}
	total := time.Duration(player.Duration()) * time.Millisecond
	fmt.Fprintf(os.Stderr, "replaying %d events (%s recorded) at %.1fx\n",
		len(events), total.Round(time.Second), *speed)
	player.Play()
	<-done
	fmt.Fprintln(os.Stderr, "\nreplay finished")
}

func render(ev session.Event, keys bool) {
	switch ev.Kind {
	case session.EventOutput:
		os.Stdout.WriteString(strings.ReplaceAll(ev.Content, "\n", "\r\n"))
		if !strings.HasSuffix(ev.Content, "\n") {
			os.Stdout.WriteString("\r\n")
		}
	case session.EventCommand:
		fmt.Printf("\x1b[33m$ %s\x1b[0m  \x1b[2m(exit %d)\x1b[0m\r\n", ev.Raw, ev.ExitCode)
	case session.EventPaste:
		fmt.Printf("\x1b[31m[paste/%s] %q\x1b[0m\r\n", ev.DetectedBy, truncate(ev.Content, 60))
	case session.EventObjectiveComplete:
		fmt.Printf("\x1b[32m[objective complete: %s]\x1b[0m\r\n", ev.ObjectiveID)
	case session.EventLevelAdvance:
		fmt.Printf("\x1b[36m[level %d]\x1b[0m\r\n", ev.Level)
	case session.EventKey:
		if keys {
			fmt.Printf("\x1b[2m[key %s]\x1b[0m", ev.Key)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func loadEvents(dbPath, sessionID, jsonlPath string) ([]session.Event, error) {
	switch {
	case dbPath != "":
		if sessionID == "" {
			return nil, fmt.Errorf("-db requires -session")
		}
		db, err := store.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		sess, err := db.LoadSession(sessionID)
		if err != nil {
			return nil, err
		}
		return sess.Events, nil
	case jsonlPath != "":
		f, err := os.Open(jsonlPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return store.ImportJSONL(f)
	default:
		return nil, fmt.Errorf("pass a JSONL file or -db/-session")
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "proctor-replay:", err)
	os.Exit(1)
}
