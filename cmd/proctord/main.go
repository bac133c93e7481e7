// Command proctord runs an interactive assessment session on the
// local terminal.
//
// The emulator core is the same one the browser widget drives; here
// stdin is switched into raw mode and fed to the engine byte by byte,
// which makes the binary a complete end-to-end harness: line editing,
// history, completion, the simulated toolchain, keystroke recording
// and integrity scoring all run exactly as they do in production.
//
// Usage:
//
//	proctord [flags]
//
// Examples:
//
//	# Run with the built-in workspace
//	proctord
//
//	# Load a custom filesystem fixture and record to sqlite
//	proctord -config proctord.toml -db sessions.db
//
//	# Print the integrity report on exit
//	proctord -score
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"proctord/internal/config"
	"proctord/internal/integrity"
	"proctord/internal/logging"
	"proctord/internal/recorder"
	"proctord/internal/session"
	"proctord/internal/signer"
	"proctord/internal/store"
	"proctord/internal/term"
	"proctord/internal/vfs"
)

var (
	// Version information (set at build time)
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "path to proctord.toml")
	dbPath := flag.String("db", "", "sqlite database for session recording (overrides config)")
	fixture := flag.String("fixture", "", "YAML filesystem fixture (overrides config)")
	score := flag.Bool("score", false, "print the integrity report when the session ends")
	logLevel := flag.String("log-level", "", "operational log level (overrides config)")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("proctord", version)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loader := config.NewLoader(*configPath)
		loaded, err := loader.Load()
		if err != nil {
			fatal(err)
		}
		cfg = loaded
		// Log level follows the file while the session runs.
		loader.OnChange(func(c *config.Config) {
			applyLogging(c)
		})
		if err := loader.Watch(context.Background()); err != nil {
			fatal(fmt.Errorf("watch config: %w", err))
		}
		defer loader.Close()
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *fixture != "" {
		cfg.Fixture.Path = *fixture
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	applyLogging(cfg)

	fs := vfs.DefaultWorkspace()
	if cfg.Fixture.Path != "" {
		loaded, err := vfs.LoadFixture(cfg.Fixture.Path)
		if err != nil {
			fatal(err)
		}
		fs = loaded
	}

	sess := session.NewSession(cfg.Session.User, cfg.Session.Hostname, time.Now())

	var db *store.Store
	var sink recorder.Sink
	if cfg.Storage.Path != "" {
		opened, err := store.Open(cfg.Storage.Path)
		if err != nil {
			fatal(err)
		}
		defer opened.Close()
		db = opened
		if err := db.CreateSession(sess); err != nil {
			fatal(err)
		}
		sink = func(batch []session.Event) {
			if err := db.AppendEvents(sess.ID, batch); err != nil {
				logging.Get().Error("store append failed", "error", err)
			}
		}
	}

	rec := recorder.New(
		recorder.WithSink(sink),
		recorder.WithFlushInterval(cfg.Recorder.FlushInterval()),
	)
	engine := term.New(term.Options{
		FS:       fs,
		User:     cfg.Session.User,
		Hostname: cfg.Session.Hostname,
		Output:   func(data string) { os.Stdout.WriteString(data) },
		Recorder: rec,
	})

	restore, err := rawMode()
	if err != nil {
		fatal(fmt.Errorf("raw mode: %w (is stdin a terminal?)", err))
	}
	defer restore()

	engine.Boot()
	buf := make([]byte, 256)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			engine.Input(string(buf[:n]))
		}
		if err != nil || engine.Context().ExitRequested {
			break
		}
	}
	engine.Stop()
	restore()

	events := engine.Recorder().Events()
	if db != nil {
		if err := db.FinishSession(sess.ID, time.Now().UnixMilli()); err != nil {
			logging.Get().Error("finish session failed", "error", err)
		}
	}

	if cfg.Signing.Enabled {
		key, err := signer.LoadPrivateKey(cfg.Signing.KeyPath)
		if err != nil {
			fatal(err)
		}
		sig, err := signer.SignEvents(key, events)
		if err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "\nsession %s signed: %s\n", sess.ID, sig.Signature)
	}

	if *score {
		report := integrity.Score(integrity.DerivePattern(events))
		fmt.Fprintln(os.Stderr)
		integrity.PrintReport(os.Stderr, report)
	}
	fmt.Fprintf(os.Stderr, "session %s: %d events recorded\n", sess.ID, len(events))
}

func applyLogging(cfg *config.Config) {
	format := logging.FormatText
	if cfg.Logging.Format == "json" {
		format = logging.FormatJSON
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: format, Component: "proctord"})
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "proctord:", err)
	os.Exit(1)
}
