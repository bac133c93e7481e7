package command

import (
	"fmt"
	"sort"
	"strings"

	"proctord/internal/shell"
)

func registerBuiltins(r *Registry) {
	r.Register("echo", cmdEcho)
	r.Register("env", cmdEnv)
	r.Alias("printenv", "env")
	r.Register("export", cmdExport)
	r.Register("clear", cmdClear)
	r.Register("history", cmdHistory)
	r.Register("whoami", cmdWhoami)
	r.Register("hostname", cmdHostname)
	r.Register("date", cmdDate)
	r.Register("uname", cmdUname)
	r.Register("which", cmdWhich)
	r.Register("man", cmdMan)
	r.Register("help", cmdHelp)
	r.Register("true", cmdTrue)
	r.Register("false", cmdFalse)
	r.Register("exit", cmdExit)
	r.Alias("logout", "exit")
}

func cmdEcho(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	noNewline := cmd.Bool("n")
	interpret := cmd.Bool("e")
	text := ctx.ExpandVars(strings.Join(cmd.Args, " "))
	if interpret {
		replacer := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\\`, `\`)
		text = replacer.Replace(text)
	}
	if !noNewline {
		text += "\n"
	}
	return ok(text)
}

func cmdEnv(_ shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	keys := make([]string, 0, len(ctx.Env))
	for k := range ctx.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + ctx.Env[k]
	}
	return okLines(lines)
}

func cmdExport(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if len(cmd.Args) == 0 {
		keys := make([]string, 0, len(ctx.Env))
		for k := range ctx.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, len(keys))
		for i, k := range keys {
			lines[i] = fmt.Sprintf("declare -x %s=\"%s\"", k, ctx.Env[k])
		}
		return okLines(lines)
	}
	for _, arg := range cmd.Args {
		if name, value, ok := parseAssignment(arg); ok {
			ctx.Env[name] = ctx.ExpandVars(value)
		} else {
			// export NAME with no value marks an existing entry.
			if _, exists := ctx.Env[arg]; !exists {
				ctx.Env[arg] = ""
			}
		}
	}
	return ok("")
}

func cmdClear(_ shell.ParsedCommand, _ *Context, _ *string) shell.Result {
	return ok("\x1b[2J\x1b[H")
}

func cmdHistory(_ shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if ctx.History == nil {
		return ok("")
	}
	entries := ctx.History()
	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = fmt.Sprintf(" %4d  %s", i+1, entry)
	}
	return okLines(lines)
}

func cmdWhoami(_ shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	return ok(ctx.User + "\n")
}

func cmdHostname(_ shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	return ok(ctx.Hostname + "\n")
}

func cmdDate(_ shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	return ok(ctx.Now().Format("Mon Jan _2 15:04:05 MST 2006") + "\n")
}

func cmdUname(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if cmd.Bool("a") {
		return okf("Linux %s 5.15.0-91-generic #101-Ubuntu SMP x86_64 x86_64 x86_64 GNU/Linux\n", ctx.Hostname)
	}
	if cmd.Bool("r") {
		return ok("5.15.0-91-generic\n")
	}
	if cmd.Bool("n") {
		return ok(ctx.Hostname + "\n")
	}
	return ok("Linux\n")
}

// whichTable is the fixed lookup the which builtin consults.
var whichTable = map[string]string{
	"node": "/usr/local/bin/node", "npm": "/usr/local/bin/npm",
	"npx": "/usr/local/bin/npx", "git": "/usr/bin/git",
	"docker": "/usr/bin/docker", "docker-compose": "/usr/local/bin/docker-compose",
	"python": "/usr/bin/python", "python3": "/usr/bin/python3",
	"pip": "/usr/bin/pip", "pip3": "/usr/bin/pip3",
	"curl": "/usr/bin/curl", "wget": "/usr/bin/wget",
	"grep": "/bin/grep", "ls": "/bin/ls", "cat": "/bin/cat",
	"bash": "/bin/bash", "sh": "/bin/sh",
}

func cmdWhich(cmd shell.ParsedCommand, _ *Context, _ *string) shell.Result {
	if len(cmd.Args) == 0 {
		return shell.Result{ExitCode: 1}
	}
	var lines []string
	exitCode := 0
	for _, name := range cmd.Args {
		if path, found := whichTable[name]; found {
			lines = append(lines, path)
		} else {
			exitCode = 1
		}
	}
	res := okLines(lines)
	res.ExitCode = exitCode
	return res
}

var manPages = map[string]string{
	"ls":   "LS(1)\n\nNAME\n       ls - list directory contents\n\nSYNOPSIS\n       ls [-a] [-l] [FILE...]",
	"grep": "GREP(1)\n\nNAME\n       grep - print lines matching a pattern\n\nSYNOPSIS\n       grep [-r] [-i] PATTERN [FILE...]",
	"cat":  "CAT(1)\n\nNAME\n       cat - concatenate files and print on the standard output",
	"cd":   "CD(1)\n\nNAME\n       cd - change the working directory",
	"curl": "CURL(1)\n\nNAME\n       curl - transfer a URL\n\nSYNOPSIS\n       curl [-X METHOD] [-d DATA] [-H HEADER] URL",
}

func cmdMan(cmd shell.ParsedCommand, _ *Context, _ *string) shell.Result {
	if len(cmd.Args) == 0 {
		return fail(1, "What manual page do you want?")
	}
	if page, found := manPages[cmd.Args[0]]; found {
		return ok(page + "\n")
	}
	return fail(1, "No manual entry for %s", cmd.Args[0])
}

func cmdHelp(_ shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	lines := []string{
		"Available commands:",
		"",
	}
	if ctx.Commands != nil {
		names := ctx.Commands()
		const perRow = 6
		for i := 0; i < len(names); i += perRow {
			end := i + perRow
			if end > len(names) {
				end = len(names)
			}
			var row strings.Builder
			for _, name := range names[i:end] {
				row.WriteString(fmt.Sprintf("%-14s", name))
			}
			lines = append(lines, strings.TrimRight(row.String(), " "))
		}
	}
	lines = append(lines, "",
		"Type 'status' for your current objectives, 'hint' if you are stuck.")
	return okLines(lines)
}

func cmdTrue(_ shell.ParsedCommand, _ *Context, _ *string) shell.Result {
	return shell.Result{}
}

func cmdFalse(_ shell.ParsedCommand, _ *Context, _ *string) shell.Result {
	return shell.Result{ExitCode: 1}
}

func cmdExit(_ shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	ctx.ExitRequested = true
	return ok("logout\n")
}
