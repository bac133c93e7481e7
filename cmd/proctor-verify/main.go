// Command proctor-verify scores the integrity of a recorded session
// without running the emulator.
//
// It accepts either a sqlite database written by proctord (with a
// session id) or a JSONL event stream, derives the typing pattern,
// and prints the weighted integrity report.
//
// Usage:
//
//	proctor-verify [flags] <events.jsonl>
//	proctor-verify [flags] -db sessions.db -session <id>
//
// Examples:
//
//	# Score a JSONL export
//	proctor-verify session.jsonl
//
//	# Score a stored session, JSON output
//	proctor-verify -db sessions.db -session 3b6e... -format json
//
//	# Check a detached signature while scoring
//	proctor-verify -signature sig.json session.jsonl
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"proctord/internal/integrity"
	"proctord/internal/session"
	"proctord/internal/signer"
	"proctord/internal/store"
)

var (
	// Version information (set at build time)
	version = "dev"
)

func main() {
	dbPath := flag.String("db", "", "sqlite database written by proctord")
	sessionID := flag.String("session", "", "session id inside -db")
	format := flag.String("format", "text", "output format: text, json")
	sigPath := flag.String("signature", "", "detached signature to verify against the events")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("proctor-verify", version)
		return
	}

	events, err := loadEvents(*dbPath, *sessionID, flag.Arg(0))
	if err != nil {
		fatal(err)
	}
	if len(events) == 0 {
		fatal(fmt.Errorf("no events to score"))
	}

	if *sigPath != "" {
		if err := checkSignature(*sigPath, events); err != nil {
			fatal(err)
		}
		fmt.Fprintln(os.Stderr, "signature: OK")
	}

	report := integrity.Score(integrity.DerivePattern(events))
	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fatal(err)
		}
	default:
		integrity.PrintReport(os.Stdout, report)
	}

	// Mirror the verdict in the exit code so pipelines can gate on it.
	if report.Score < 50 {
		os.Exit(2)
	}
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
		return nil, fmt.Errorf("nothing to verify: pass a JSONL file or -db/-session")
	}
}

func checkSignature(path string, events []session.Event) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var sig signer.Signature
	if err := json.Unmarshal(data, &sig); err != nil {
		return fmt.Errorf("parse signature: %w", err)
	}
	return signer.Verify(&sig, events)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "proctor-verify:", err)
	os.Exit(1)
}
