// Package term is the terminal engine: it owns the filesystem,
// registry, parser, executor, context and input buffer, interprets
// the widget's byte stream, and feeds the recorder. One engine is one
// candidate session.
package term

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"proctord/internal/challenge"
	"proctord/internal/command"
	"proctord/internal/editor"
	"proctord/internal/logging"
	"proctord/internal/recorder"
	"proctord/internal/session"
	"proctord/internal/shell"
	"proctord/internal/vfs"
)

// Options parameterise an engine. Zero values get working defaults:
// the stock workspace, registry, catalogue and a discarding output
// sink.
type Options struct {
	FS       *vfs.FS
	Registry *command.Registry
	User     string
	Hostname string

	// Output receives every byte the terminal widget should render.
	Output func(string)

	// EventSink receives flushed event batches (host transport).
	EventSink recorder.Sink

	// Evaluator decides objective completion after each command. Nil
	// installs the stock regex evaluator over the default catalogue.
	Evaluator challenge.Evaluator

	// Recorder overrides the default recorder (tests inject clocks).
	Recorder *recorder.Recorder
}

// heredocState accumulates multi-line input between << TAG and its
// terminator.
type heredocState struct {
	tag      string
	lines    []string
	redirect *shell.Redirect
}

// Engine drives one session.
type Engine struct {
	fs   *vfs.FS
	reg  *command.Registry
	ctx  *command.Context
	disp *command.Dispatcher
	buf  *editor.InputBuffer
	rec  *recorder.Recorder

	out       func(string)
	evaluator challenge.Evaluator
	log       *slog.Logger

	processing bool
	heredoc    *heredocState
	escBuf     []byte
	booted     bool
}

// New assembles an engine, registers every handler, and installs the
// completion provider.
func New(opts Options) *Engine {
	if opts.FS == nil {
		opts.FS = vfs.DefaultWorkspace()
	}
	if opts.Registry == nil {
		opts.Registry = command.NewDefaultRegistry()
	}
	if opts.User == "" {
		opts.User = "candidate"
	}
	if opts.Hostname == "" {
		opts.Hostname = "fleetcore-dev"
	}
	if opts.Output == nil {
		opts.Output = func(string) {}
	}

	ctx := command.NewContext(opts.FS, opts.User, opts.Hostname)
	rec := opts.Recorder
	if rec == nil {
		rec = recorder.New(recorder.WithSink(opts.EventSink))
	}
	e := &Engine{
		fs:   opts.FS,
		reg:  opts.Registry,
		ctx:  ctx,
		disp: &command.Dispatcher{Reg: opts.Registry, Ctx: ctx},
		buf:  editor.New(),
		rec:  rec,
		out:  opts.Output,
		log:  logging.Component("engine"),
	}
	if opts.Evaluator != nil {
		e.evaluator = opts.Evaluator
	} else {
		e.evaluator = challenge.NewEvaluator(ctx.Challenge.Catalogue, ctx.Challenge)
	}

	ctx.History = e.buf.History
	ctx.Commands = opts.Registry.Names
	ctx.Exec = func(line string) shell.Result {
		return shell.Execute(shell.ParseLine(line), e.disp)
	}
	e.buf.SetCompletionProvider(e.completions)
	return e
}

// Context exposes the session context (hosts read challenge state).
func (e *Engine) Context() *command.Context { return e.ctx }

// Recorder exposes the event log.
func (e *Engine) Recorder() *recorder.Recorder { return e.rec }

// Boot prints the welcome banner and first prompt and starts the
// recorder's flush timer.
func (e *Engine) Boot() {
	if e.booted {
		return
	}
	e.booted = true
	e.rec.Start()
	banner := "" +
		"\x1b[1;36mFleetCore Technical Assessment\x1b[0m\r\n" +
		"\r\n" +
		"You are connected to a sandboxed workspace. The fleetcore\r\n" +
		"project lives in ~/fleetcore. Type 'status' to see your\r\n" +
		"objectives and 'help' for the available tooling.\r\n" +
		"\r\n"
	e.write(banner)
	e.write(e.prompt())
	e.log.Info("session booted", "user", e.ctx.User, "host", e.ctx.Hostname)
}

// Stop flushes and halts the recorder.
func (e *Engine) Stop() {
	e.rec.Stop()
}

// prompt renders green user@host, blue cwd (abbreviated under HOME),
// and the dollar.
func (e *Engine) prompt() string {
	if e.heredoc != nil {
		return "> "
	}
	return fmt.Sprintf("\x1b[32;1m%s@%s\x1b[0m:\x1b[34;1m%s\x1b[0m$ ",
		e.ctx.User, e.ctx.Hostname, e.ctx.DisplayCWD())
}

// write pushes bytes to the widget.
func (e *Engine) write(data string) {
	if data != "" {
		e.out(data)
	}
}

// writeOutput normalises handler output for the wire and records it.
func (e *Engine) writeOutput(output string) {
	if output == "" {
		return
	}
	e.rec.RecordOutput(output)
	normalised := strings.ReplaceAll(output, "\n", "\r\n")
	// Clear-screen output parks the cursor at home; everything else
	// ends on a fresh line.
	if !strings.HasSuffix(normalised, "\r\n") && !strings.HasSuffix(normalised, "\x1b[H") {
		normalised += "\r\n"
	}
	e.write(normalised)
}

// Input walks a chunk of the widget byte stream. Bytes arriving while
// a command runs are discarded.
func (e *Engine) Input(data string) {
	for i := 0; i < len(data); i++ {
		if e.processing {
			continue
		}
		e.inputByte(data[i])
	}
}

func (e *Engine) inputByte(b byte) {
	if len(e.escBuf) > 0 {
		e.escByte(b)
		return
	}
	switch {
	case b == 0x1b:
		e.escBuf = append(e.escBuf[:0], b)
	case b == '\r' || b == '\n':
		e.rec.RecordKey("Enter", nil)
		e.submit()
	case b == 0x7f || b == 0x08:
		e.rec.RecordKey("Backspace", nil)
		e.write(e.buf.Backspace())
	case b == 0x09:
		e.rec.RecordKey("Tab", nil)
		echo, redraw := e.buf.Tab()
		e.write(echo)
		if redraw {
			e.write(e.prompt() + e.buf.Buffer())
		}
	case b == 0x03: // Ctrl-C
		e.rec.RecordKey("c", &session.Meta{Ctrl: true})
		e.buf.Abandon()
		e.heredoc = nil
		e.write("^C\r\n" + e.prompt())
	case b == 0x04: // Ctrl-D: ignored in both buffer states
		e.rec.RecordKey("d", &session.Meta{Ctrl: true})
	case b == 0x0c: // Ctrl-L
		e.rec.RecordKey("l", &session.Meta{Ctrl: true})
		e.write("\x1b[2J\x1b[H" + e.prompt() + e.buf.Buffer())
	case b == 0x01: // Ctrl-A
		e.rec.RecordKey("a", &session.Meta{Ctrl: true})
		e.write(e.buf.Home())
	case b == 0x05: // Ctrl-E
		e.rec.RecordKey("e", &session.Meta{Ctrl: true})
		e.write(e.buf.End())
	case b == 0x0b: // Ctrl-K
		e.rec.RecordKey("k", &session.Meta{Ctrl: true})
		e.write(e.buf.KillToEnd())
	case b == 0x15: // Ctrl-U
		e.rec.RecordKey("u", &session.Meta{Ctrl: true})
		e.write(e.buf.KillToStart())
	case b == 0x17: // Ctrl-W
		e.rec.RecordKey("w", &session.Meta{Ctrl: true})
		e.write(e.buf.DeleteWord())
	case b >= 0x20:
		e.rec.RecordKey(string(rune(b)), nil)
		e.write(e.buf.Insert(rune(b)))
	}
}

// escByte continues a CSI sequence. Parameter bytes (digits, ;) are
// collected under a small bound; the final byte selects the action.
// Unrecognised sequences are swallowed whole.
func (e *Engine) escByte(b byte) {
	e.escBuf = append(e.escBuf, b)
	if len(e.escBuf) == 2 {
		if b != '[' {
			e.escBuf = e.escBuf[:0]
		}
		return
	}
	if (b >= '0' && b <= '9') || b == ';' {
		if len(e.escBuf) > 8 {
			e.escBuf = e.escBuf[:0]
		}
		return
	}
	seq := string(e.escBuf[2:])
	e.escBuf = e.escBuf[:0]
	switch seq {
	case "A":
		e.rec.RecordKey("ArrowUp", nil)
		e.write(e.buf.HistoryUp())
	case "B":
		e.rec.RecordKey("ArrowDown", nil)
		e.write(e.buf.HistoryDown())
	case "C":
		e.rec.RecordKey("ArrowRight", nil)
		e.write(e.buf.CursorRight())
	case "D":
		e.rec.RecordKey("ArrowLeft", nil)
		e.write(e.buf.CursorLeft())
	case "H":
		e.rec.RecordKey("Home", nil)
		e.write(e.buf.Home())
	case "F":
		e.rec.RecordKey("End", nil)
		e.write(e.buf.End())
	case "3~":
		e.rec.RecordKey("Delete", nil)
		e.write(e.buf.Delete())
	}
}

// heredocRe matches << TAG with optional quoting.
var heredocRe = regexp.MustCompile(`<<\s*(['"]?)([A-Za-z_][A-Za-z0-9_]*)` + "(['\"]?)")

// submit finalises the edited line on Enter.
func (e *Engine) submit() {
	e.write("\r\n")
	line := e.buf.Submit()

	if e.heredoc != nil {
		e.finishHeredocLine(line)
		return
	}

	if line == "" {
		e.write(e.prompt())
		return
	}

	if m := heredocRe.FindStringSubmatch(line); m != nil {
		remainder := heredocRe.ReplaceAllString(line, "")
		p := shell.ParseLine(remainder)
		var redirect *shell.Redirect
		if len(p.Commands) > 0 {
			redirect = p.Commands[0].OutputRedirect
		}
		e.heredoc = &heredocState{tag: m[2], redirect: redirect}
		e.write(e.prompt())
		return
	}

	e.runCommand(line)
}

// finishHeredocLine accumulates heredoc body lines until the tag.
func (e *Engine) finishHeredocLine(line string) {
	h := e.heredoc
	if line != h.tag {
		h.lines = append(h.lines, line)
		e.write(e.prompt())
		return
	}
	e.heredoc = nil
	body := strings.Join(h.lines, "\n") + "\n"
	if h.redirect != nil {
		abs := e.ctx.ExpandPath(h.redirect.Path)
		var err error
		if h.redirect.Append {
			err = e.fs.AppendFile(abs, "/", body)
		} else {
			err = e.fs.WriteFile(abs, "/", body)
		}
		if err != nil {
			e.writeOutput(fmt.Sprintf("bash: %s: %s", h.redirect.Path, vfs.ErrorText(err)))
		}
	} else {
		e.writeOutput(body)
	}
	e.write(e.prompt())
}

// runCommand executes one submitted line through the pipeline
// executor and runs the post-command hooks.
func (e *Engine) runCommand(line string) {
	e.processing = true
	res := e.disp.Run(line)
	e.processing = false

	e.writeOutput(res.Output)
	e.rec.RecordCommand(line, res.ExitCode)
	e.drainChallengeEffects()
	e.evaluateObjectives(line, res.ExitCode)
	e.write(e.prompt())
}

// drainChallengeEffects turns hint/level side effects of the
// challenge builtins into events.
func (e *Engine) drainChallengeEffects() {
	for _, id := range e.ctx.HintUsed {
		e.rec.RecordHint(id)
	}
	e.ctx.HintUsed = nil
	if e.ctx.LevelAdvanced != 0 {
		e.rec.RecordLevel(e.ctx.LevelAdvanced)
		e.ctx.LevelAdvanced = 0
	}
}

// evaluateObjectives invokes the host evaluator and emits completion
// banners and events for anything newly satisfied.
func (e *Engine) evaluateObjectives(raw string, exitCode int) {
	if e.evaluator == nil {
		return
	}
	st := e.ctx.Challenge
	ids := e.evaluator(e.ctx.FS, e.ctx.CWD, raw, exitCode)
	for _, id := range ids {
		if st.Completed[id] {
			continue
		}
		st.Completed[id] = true
		e.rec.RecordObjective(id)
		banner := fmt.Sprintf("\x1b[32;1m✔ objective_complete:%s\x1b[0m", id)
		e.writeOutput(banner)
		e.log.Info("objective complete", "objective", id)
	}
	if len(ids) > 0 && st.LevelComplete() {
		lvl := st.CurrentLevel()
		e.writeOutput(fmt.Sprintf(
			"\x1b[36;1m★ Level %d complete. Run 'next-level' to continue.\x1b[0m", lvl.Number))
	}
}

// Paste injects pasted text. Control characters other than newline,
// carriage return and tab are stripped. Multi-line pastes run each
// line as if typed and submitted; single-line pastes join the edit
// buffer.
func (e *Engine) Paste(content string) {
	filtered := filterPaste(content)
	e.rec.RecordClipboardPaste(filtered)

	if !strings.ContainsAny(filtered, "\n\r") {
		e.write(e.buf.InsertString(filtered))
		return
	}
	normalised := strings.ReplaceAll(filtered, "\r\n", "\n")
	normalised = strings.ReplaceAll(normalised, "\r", "\n")
	lines := strings.Split(normalised, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for _, line := range lines {
		// Echo the line, then behave exactly like Enter.
		e.write(e.buf.InsertString(line))
		e.submit()
	}
}

// filterPaste drops control bytes, keeping \n, \r and \t.
func filterPaste(content string) string {
	var b strings.Builder
	for _, r := range content {
		if r == '\n' || r == '\r' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Focus records a widget focus change.
func (e *Engine) Focus(focused bool) {
	e.rec.RecordFocus(focused)
}

// Resize records a widget resize.
func (e *Engine) Resize(cols, rows int) {
	e.rec.RecordResize(cols, rows)
}

// completions is the engine's completion provider: command names for
// the first token, filesystem paths otherwise. Path candidates are
// re-prefixed with the partial's directory part so the editor can
// extend in place.
func (e *Engine) completions(partial string, isCommand bool) []string {
	if isCommand {
		var out []string
		for _, name := range e.reg.Names() {
			if strings.HasPrefix(name, partial) {
				out = append(out, name)
			}
		}
		return out
	}
	names := e.fs.CompletePath(e.ctx.ExpandVars(partial), e.ctx.CWD)
	prefix := ""
	if idx := strings.LastIndex(partial, "/"); idx >= 0 {
		prefix = partial[:idx+1]
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = prefix + name
	}
	return out
}
