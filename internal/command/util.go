package command

import (
	"fmt"
	"strconv"
	"strings"

	"proctord/internal/shell"
	"proctord/internal/vfs"
)

// ANSI fragments shared by the colourising handlers.
const (
	ansiReset = "\x1b[0m"
	ansiDir   = "\x1b[1;34m"
	ansiExec  = "\x1b[1;32m"
	ansiFile  = "\x1b[35m"
	ansiLine  = "\x1b[32m"
)

func ok(output string) shell.Result {
	return shell.Result{Output: output}
}

func okf(format string, args ...any) shell.Result {
	return shell.Result{Output: fmt.Sprintf(format, args...)}
}

// okLines joins lines with newlines and terminates the block.
func okLines(lines []string) shell.Result {
	if len(lines) == 0 {
		return shell.Result{}
	}
	return shell.Result{Output: strings.Join(lines, "\n") + "\n"}
}

func fail(code int, format string, args ...any) shell.Result {
	return shell.Result{Output: fmt.Sprintf(format, args...) + "\n", ExitCode: code}
}

// stdinOr returns piped input when present, otherwise "".
func stdinOr(stdin *string) string {
	if stdin == nil {
		return ""
	}
	return *stdin
}

// splitLines breaks text into lines, dropping a final empty fragment
// from a trailing newline so counts match user expectations.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// intAfter scans tokens for flag (e.g. "-n") and parses the following
// token as an integer. Returns def when absent or malformed. Handlers
// use this for short flags whose values the parser folds into args.
func intAfter(rawArgs, flag string, def int) int {
	fields := strings.Fields(rawArgs)
	for i, f := range fields {
		if f == flag && i+1 < len(fields) {
			if n, err := strconv.Atoi(fields[i+1]); err == nil {
				return n
			}
		}
		// The joined form -n5 also appears in the wild.
		if strings.HasPrefix(f, flag) && len(f) > len(flag) {
			if n, err := strconv.Atoi(f[len(flag):]); err == nil {
				return n
			}
		}
	}
	return def
}

// stringAfter scans tokens for flag and returns the following token.
func stringAfter(rawArgs, flag string) string {
	fields := strings.Fields(rawArgs)
	for i, f := range fields {
		if f == flag && i+1 < len(fields) {
			return unquote(fields[i+1])
		}
	}
	return ""
}

// unquote strips one layer of matched quotes. The tokenizer already
// does this for parsed args; raw-args scanners need it themselves.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// colorName renders a node name with the listing colours.
func colorName(n *vfs.Node) string {
	switch {
	case n.IsDir():
		return ansiDir + n.Name + ansiReset
	case n.Kind == vfs.KindSymlink:
		return ansiDir + n.Name + ansiReset
	case strings.Contains(n.Permissions, "x"):
		return ansiExec + n.Name + ansiReset
	default:
		return n.Name
	}
}

// longRow renders one fixed-width ls -l row.
func longRow(n *vfs.Node, owner string) string {
	size := len(n.Content)
	if n.Kind == vfs.KindSymlink {
		size = len(n.Target)
	}
	perms := n.Permissions
	if perms == "" {
		perms = "-rw-r--r--"
	}
	name := colorName(n)
	if n.Kind == vfs.KindSymlink {
		name += " -> " + n.Target
	}
	return fmt.Sprintf("%s %2d %-8s %-8s %8d %s %s",
		perms, 1, owner, owner, size, n.Modified.Format("Jan _2 15:04"), name)
}
