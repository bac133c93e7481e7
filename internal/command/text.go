package command

import (
	"sort"
	"strconv"
	"strings"

	"proctord/internal/shell"
)

func registerTextUtils(r *Registry) {
	r.Register("sort", cmdSort)
	r.Register("uniq", cmdUniq)
	r.Register("xargs", cmdXargs)
}

func cmdSort(cmd shell.ParsedCommand, ctx *Context, stdin *string) shell.Result {
	text := stdinOr(stdin)
	if len(cmd.Args) > 0 {
		content, err := ctx.FS.ReadFile(ctx.ExpandPath(cmd.Args[0]), "/")
		if err != nil {
			return fail(2, "sort: cannot read: %s: No such file or directory", cmd.Args[0])
		}
		text = content
	}
	lines := splitLines(text)
	numeric := cmd.Bool("n")
	if numeric {
		sort.SliceStable(lines, func(i, j int) bool {
			a, errA := strconv.ParseFloat(strings.TrimSpace(lines[i]), 64)
			b, errB := strconv.ParseFloat(strings.TrimSpace(lines[j]), 64)
			if errA != nil || errB != nil {
				return lines[i] < lines[j]
			}
			return a < b
		})
	} else {
		sort.Strings(lines)
	}
	if cmd.Bool("r") {
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
	}
	if cmd.Bool("u") {
		var deduped []string
		for _, line := range lines {
			if len(deduped) == 0 || deduped[len(deduped)-1] != line {
				deduped = append(deduped, line)
			}
		}
		lines = deduped
	}
	return okLines(lines)
}

func cmdUniq(cmd shell.ParsedCommand, ctx *Context, stdin *string) shell.Result {
	text := stdinOr(stdin)
	if len(cmd.Args) > 0 {
		content, err := ctx.FS.ReadFile(ctx.ExpandPath(cmd.Args[0]), "/")
		if err != nil {
			return fail(1, "uniq: %s: No such file or directory", cmd.Args[0])
		}
		text = content
	}
	var out []string
	for _, line := range splitLines(text) {
		if len(out) == 0 || out[len(out)-1] != line {
			out = append(out, line)
		}
	}
	return okLines(out)
}

// cmdXargs is the simplified form: stdin tokens are appended to the
// sub-command and the whole line re-enters the dispatcher.
func cmdXargs(cmd shell.ParsedCommand, ctx *Context, stdin *string) shell.Result {
	parts := append([]string{}, cmd.Args...)
	parts = append(parts, strings.Fields(stdinOr(stdin))...)
	if len(parts) == 0 {
		return ok("")
	}
	line := strings.Join(parts, " ")
	if ctx.Exec == nil {
		return ok(line + "\n")
	}
	return ctx.Exec(line)
}
