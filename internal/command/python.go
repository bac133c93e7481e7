package command

import (
	"regexp"
	"strings"

	"proctord/internal/shell"
)

func registerPython(r *Registry) {
	r.Register("python", cmdPython)
	r.Alias("python3", "python")
	r.Register("pip", cmdPip)
	r.Alias("pip3", "pip")
}

const pythonVersion = "Python 3.10.12"

// printRe extracts string-literal print arguments from python -c
// snippets.
var printRe = regexp.MustCompile(`print\(\s*['"](.*?)['"]\s*\)`)

func cmdPython(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if cmd.Bool("V", "version") {
		return ok(pythonVersion + "\n")
	}
	if cmd.Bool("c") {
		if len(cmd.Args) == 0 {
			return ok("")
		}
		return pythonEval(cmd.Args[0])
	}
	if len(cmd.Args) == 0 {
		return ok(pythonVersion + " (main, Nov 20 2025, 10:30:00) [GCC 11.4.0] on linux\nType \"help\" for more information.\n")
	}
	file := cmd.Args[0]
	content, err := ctx.FS.ReadFile(ctx.ExpandPath(file), "/")
	if err != nil {
		return fail(2, "python: can't open file '%s': [Errno 2] No such file or directory", file)
	}
	if m := printRe.FindStringSubmatch(content); m != nil {
		return ok(m[1] + "\n")
	}
	return okf("[executed %s]\n", file)
}

func pythonEval(code string) shell.Result {
	if m := printRe.FindStringSubmatch(code); m != nil {
		return ok(m[1] + "\n")
	}
	expr := strings.TrimSpace(code)
	if strings.HasPrefix(expr, "print(") && strings.HasSuffix(expr, ")") {
		expr = expr[len("print(") : len(expr)-1]
	}
	if v, err := evalArithmetic(expr); err == nil {
		return ok(formatArithmetic(v) + "\n")
	}
	return fail(1, "python: unsupported expression in -c (string print and arithmetic only)")
}

func cmdPip(cmd shell.ParsedCommand, _ *Context, _ *string) shell.Result {
	if cmd.Bool("V", "version") {
		return ok("pip 23.3.1 from /usr/lib/python3/dist-packages/pip (python 3.10)\n")
	}
	if len(cmd.Args) == 0 {
		return fail(1, "pip <command> [options]\n\nCommands:\n  install    Install packages.\n  list       List installed packages.")
	}
	switch cmd.Args[0] {
	case "install":
		if len(cmd.Args) < 2 {
			return fail(2, "ERROR: You must give at least one requirement to install")
		}
		pkg := cmd.Args[1]
		return okf("Collecting %s\n  Downloading %s-1.0.0-py3-none-any.whl (24 kB)\nInstalling collected packages: %s\nSuccessfully installed %s-1.0.0\n", pkg, pkg, pkg, pkg)
	case "list":
		return ok("Package    Version\n---------- -------\npip        23.3.1\nrequests   2.31.0\nsetuptools 68.2.2\n")
	case "freeze":
		return ok("requests==2.31.0\nurllib3==2.1.0\n")
	default:
		return fail(1, "ERROR: unknown command \"%s\"", cmd.Args[0])
	}
}
