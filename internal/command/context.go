// Package command implements the registry of simulated tools and the
// shared execution context they mutate. Handlers are pure over their
// inputs plus the context: no I/O outside the virtual filesystem, no
// blocking, and every failure surfaces as output text plus an exit
// code.
package command

import (
	"strings"
	"time"

	"proctord/internal/challenge"
	"proctord/internal/shell"
	"proctord/internal/vfs"
)

// Context is the mutable state shared by every command in a session.
// The terminal engine owns it; handlers borrow it for the duration of
// a single invocation.
type Context struct {
	CWD      string
	Env      map[string]string
	FS       *vfs.FS
	LastExit int
	User     string
	Hostname string

	Challenge *challenge.State
	Sim       *SimState

	// History is installed by the engine so the history builtin can
	// read the input buffer's record.
	History func() []string

	// Commands is installed by the engine so help can enumerate the
	// registry.
	Commands func() []string

	// Exec re-enters the dispatcher for commands that compose other
	// commands (xargs). Installed by the engine.
	Exec func(line string) shell.Result

	// ExitRequested is set by the exit builtin; the host decides what
	// leaving the session means.
	ExitRequested bool

	// HintUsed and LevelAdvanced accumulate challenge side effects for
	// the engine to turn into session events after the command
	// completes. The engine drains both.
	HintUsed      []string
	LevelAdvanced int

	// Now is the clock handlers read; injectable for tests.
	Now func() time.Time
}

// NewContext builds a context rooted in the candidate's home with the
// standard environment.
func NewContext(fs *vfs.FS, user, hostname string) *Context {
	home := "/home/" + user
	return &Context{
		CWD:      home,
		User:     user,
		Hostname: hostname,
		FS:       fs,
		Env: map[string]string{
			"HOME":     home,
			"USER":     user,
			"PATH":     "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
			"SHELL":    "/bin/bash",
			"TERM":     "xterm-256color",
			"NODE_ENV": "development",
			"PWD":      home,
		},
		Challenge: challenge.NewState(challenge.DefaultCatalogue(), time.Now()),
		Sim:       NewSimState(),
		Now:       time.Now,
	}
}

// Home returns the HOME env entry, defaulting to /.
func (ctx *Context) Home() string {
	if home := ctx.Env["HOME"]; home != "" {
		return home
	}
	return "/"
}

// ExpandPath rewrites ~ and $VAR/${VAR} references, then resolves the
// result against the working directory into an absolute path.
func (ctx *Context) ExpandPath(path string) string {
	return vfs.ResolvePath(ctx.ExpandVars(expandTilde(path, ctx.Home())), ctx.CWD)
}

// ExpandVars substitutes $VAR and ${VAR} from the context environment.
// Unset variables expand to the empty string.
func (ctx *Context) ExpandVars(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '$' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		if s[i+1] == '{' {
			if end := strings.IndexByte(s[i+2:], '}'); end >= 0 {
				b.WriteString(ctx.Env[s[i+2:i+2+end]])
				i += 2 + end
				continue
			}
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(s) && (isVarChar(s[j])) {
			j++
		}
		if j == i+1 {
			b.WriteByte(c)
			continue
		}
		b.WriteString(ctx.Env[s[i+1:j]])
		i = j - 1
	}
	return b.String()
}

func isVarChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func expandTilde(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return home + path[1:]
	}
	return path
}

// DisplayCWD abbreviates the working directory with ~ when it sits
// inside HOME, for the prompt.
func (ctx *Context) DisplayCWD() string {
	home := ctx.Home()
	if ctx.CWD == home {
		return "~"
	}
	if strings.HasPrefix(ctx.CWD, home+"/") {
		return "~" + ctx.CWD[len(home):]
	}
	return ctx.CWD
}

// Dispatcher binds a registry to a context and implements shell.Env,
// so the pipeline executor can run against it.
type Dispatcher struct {
	Reg *Registry
	Ctx *Context
}

// Dispatch resolves and runs a single command. An assignment of the
// form VAR=value at the command position mutates the environment; an
// unregistered name is the canonical exit-127 failure.
func (d *Dispatcher) Dispatch(cmd shell.ParsedCommand, stdin *string) shell.Result {
	if cmd.Command == "" {
		return shell.Result{}
	}
	if name, value, ok := parseAssignment(cmd.Command); ok && len(cmd.Args) == 0 {
		d.Ctx.Env[name] = value
		return shell.Result{}
	}
	handler := d.Reg.Lookup(cmd.Command)
	if handler == nil {
		return shell.Result{
			Output:   cmd.Command + ": command not found\n",
			ExitCode: 127,
		}
	}
	return handler(cmd, d.Ctx, stdin)
}

// ReadFile implements input redirection for the executor.
func (d *Dispatcher) ReadFile(path string) (string, error) {
	return d.Ctx.FS.ReadFile(d.Ctx.ExpandPath(path), "/")
}

// WriteFile implements output redirection for the executor.
func (d *Dispatcher) WriteFile(path, content string, appendMode bool) error {
	abs := d.Ctx.ExpandPath(path)
	if appendMode {
		return d.Ctx.FS.AppendFile(abs, "/", content)
	}
	return d.Ctx.FS.WriteFile(abs, "/", content)
}

// Run parses and executes a whole line, recording the exit code on
// the context.
func (d *Dispatcher) Run(line string) shell.Result {
	res := shell.Execute(shell.ParseLine(line), d)
	d.Ctx.LastExit = res.ExitCode
	return res
}

func parseAssignment(tok string) (name, value string, ok bool) {
	eq := strings.IndexByte(tok, '=')
	if eq <= 0 {
		return "", "", false
	}
	name = tok[:eq]
	for i := 0; i < len(name); i++ {
		if !isVarChar(name[i]) {
			return "", "", false
		}
	}
	if name[0] >= '0' && name[0] <= '9' {
		return "", "", false
	}
	return name, tok[eq+1:], true
}
