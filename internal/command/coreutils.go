package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"proctord/internal/shell"
	"proctord/internal/vfs"
)

func registerCoreutils(r *Registry) {
	r.Register("pwd", cmdPwd)
	r.Register("cd", cmdCd)
	r.Register("ls", cmdLs)
	r.Alias("ll", "ls")
	r.Register("cat", cmdCat)
	r.Register("mkdir", cmdMkdir)
	r.Register("touch", cmdTouch)
	r.Register("rm", cmdRm)
	r.Register("cp", cmdCp)
	r.Register("mv", cmdMv)
	r.Register("ln", cmdLn)
	r.Register("find", cmdFind)
	r.Register("grep", cmdGrep)
	r.Alias("egrep", "grep")
	r.Register("head", cmdHead)
	r.Register("tail", cmdTail)
	r.Register("wc", cmdWc)
	r.Register("tree", cmdTree)
}

func cmdPwd(_ shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	return ok(ctx.CWD + "\n")
}

func cmdCd(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	target := ctx.Home()
	echoNew := false
	if len(cmd.Args) > 0 {
		switch cmd.Args[0] {
		case "-":
			old := ctx.Env["OLDPWD"]
			if old == "" {
				return fail(1, "cd: OLDPWD not set")
			}
			target = old
			echoNew = true
		default:
			target = ctx.ExpandPath(cmd.Args[0])
		}
	}
	node := ctx.FS.Resolve(target, "/")
	if node == nil {
		return fail(1, "cd: %s: No such file or directory", cmd.Args[0])
	}
	if !node.IsDir() {
		return fail(1, "cd: %s: Not a directory", cmd.Args[0])
	}
	ctx.Env["OLDPWD"] = ctx.CWD
	ctx.CWD = target
	ctx.Env["PWD"] = target
	if echoNew {
		return ok(target + "\n")
	}
	return ok("")
}

func cmdLs(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	long := cmd.Bool("l")
	all := cmd.Bool("a")
	paths := cmd.Args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var blocks []string
	exitCode := 0
	for _, arg := range paths {
		abs := ctx.ExpandPath(arg)
		node := ctx.FS.Resolve(abs, "/")
		if node == nil {
			blocks = append(blocks, fmt.Sprintf("ls: cannot access '%s': No such file or directory", arg))
			exitCode = 2
			continue
		}
		if !node.IsDir() {
			if long {
				blocks = append(blocks, longRow(node, ctx.User))
			} else {
				blocks = append(blocks, colorName(node))
			}
			continue
		}
		children := node.Children()
		if long {
			rows := []string{fmt.Sprintf("total %d", len(children))}
			if all {
				dot := vfs.NewDir(".")
				dotdot := vfs.NewDir("..")
				rows = append(rows, longRow(dot, ctx.User), longRow(dotdot, ctx.User))
			}
			for _, child := range children {
				rows = append(rows, longRow(child, ctx.User))
			}
			blocks = append(blocks, strings.Join(rows, "\n"))
			continue
		}
		var names []string
		if all {
			names = append(names, ansiDir+"."+ansiReset, ansiDir+".."+ansiReset)
		}
		for _, child := range children {
			if !all && strings.HasPrefix(child.Name, ".") {
				continue
			}
			names = append(names, colorName(child))
		}
		blocks = append(blocks, strings.Join(names, "  "))
	}
	out := strings.Join(blocks, "\n")
	if out != "" {
		out += "\n"
	}
	return shell.Result{Output: out, ExitCode: exitCode}
}

func cmdCat(cmd shell.ParsedCommand, ctx *Context, stdin *string) shell.Result {
	if len(cmd.Args) == 0 {
		return ok(stdinOr(stdin))
	}
	var out strings.Builder
	exitCode := 0
	for _, arg := range cmd.Args {
		node := ctx.FS.Resolve(ctx.ExpandPath(arg), "/")
		switch {
		case node == nil:
			out.WriteString(fmt.Sprintf("cat: %s: No such file or directory\n", arg))
			exitCode = 1
		case node.IsDir():
			out.WriteString(fmt.Sprintf("cat: %s: Is a directory\n", arg))
			exitCode = 1
		default:
			out.WriteString(node.Content)
		}
	}
	return shell.Result{Output: out.String(), ExitCode: exitCode}
}

func cmdMkdir(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if len(cmd.Args) == 0 {
		return fail(2, "mkdir: missing operand")
	}
	recursive := cmd.Bool("p") || cmd.Bool("parents")
	for _, arg := range cmd.Args {
		if err := ctx.FS.Mkdir(ctx.ExpandPath(arg), "/", recursive); err != nil {
			return fail(1, "mkdir: cannot create directory '%s': %s", arg, reason(err))
		}
	}
	return ok("")
}

func cmdTouch(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if len(cmd.Args) == 0 {
		return fail(2, "touch: missing file operand")
	}
	for _, arg := range cmd.Args {
		if err := ctx.FS.Touch(ctx.ExpandPath(arg), "/"); err != nil {
			return fail(1, "touch: cannot touch '%s': %s", arg, reason(err))
		}
	}
	return ok("")
}

func cmdRm(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if len(cmd.Args) == 0 {
		return fail(2, "rm: missing operand")
	}
	recursive := cmd.Bool("r", "R")
	force := cmd.Bool("f")
	for _, arg := range cmd.Args {
		err := ctx.FS.Remove(ctx.ExpandPath(arg), "/", recursive)
		switch {
		case err == nil:
		case errors.Is(err, vfs.ErrIsDirectory):
			return fail(1, "rm: cannot remove '%s': Is a directory", arg)
		case errors.Is(err, vfs.ErrIsRoot):
			return fail(1, "rm: cannot remove '/': Operation not permitted")
		case errors.Is(err, vfs.ErrNotFound) && force:
		default:
			return fail(1, "rm: cannot remove '%s': No such file or directory", arg)
		}
	}
	return ok("")
}

func cmdCp(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if len(cmd.Args) < 2 {
		return fail(2, "cp: missing file operand")
	}
	recursive := cmd.Bool("r", "R")
	src, dst := cmd.Args[0], cmd.Args[1]
	if err := ctx.FS.Copy(ctx.ExpandPath(src), ctx.ExpandPath(dst), "/", recursive); err != nil {
		if strings.Contains(err.Error(), "is a directory") {
			return fail(1, "cp: -r not specified; omitting directory '%s'", src)
		}
		return fail(1, "cp: cannot stat '%s': No such file or directory", src)
	}
	return ok("")
}

func cmdMv(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if len(cmd.Args) < 2 {
		return fail(2, "mv: missing file operand")
	}
	src, dst := cmd.Args[0], cmd.Args[1]
	if err := ctx.FS.Move(ctx.ExpandPath(src), ctx.ExpandPath(dst), "/"); err != nil {
		return fail(1, "mv: cannot stat '%s': No such file or directory", src)
	}
	return ok("")
}

func cmdLn(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if !cmd.Bool("s") {
		return fail(2, "ln: only symbolic links are supported (use -s)")
	}
	if len(cmd.Args) < 2 {
		return fail(2, "ln: missing file operand")
	}
	if err := ctx.FS.Symlink(cmd.Args[0], ctx.ExpandPath(cmd.Args[1]), "/"); err != nil {
		return fail(1, "ln: failed to create symbolic link '%s': %s", cmd.Args[1], reason(err))
	}
	return ok("")
}

func cmdFind(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	base := "."
	if len(cmd.Args) > 0 && cmd.Args[0] != "-name" {
		base = cmd.Args[0]
	}
	pattern := stringAfter(cmd.RawArgs, "-name")
	abs := ctx.ExpandPath(base)
	node := ctx.FS.Resolve(abs, "/")
	if node == nil {
		return fail(1, "find: '%s': No such file or directory", base)
	}
	var lines []string
	re := pattern
	if re == "" {
		re = "*"
		lines = append(lines, abs)
	}
	matches, err := ctx.FS.Find(abs, re, "/")
	if err != nil {
		return fail(2, "find: %s", reason(err))
	}
	lines = append(lines, matches...)
	return okLines(lines)
}

func cmdGrep(cmd shell.ParsedCommand, ctx *Context, stdin *string) shell.Result {
	recursive := cmd.Bool("r", "R")
	ignoreCase := cmd.Bool("i")
	if len(cmd.Args) == 0 {
		return fail(2, "usage: grep [-r] [-i] PATTERN [FILE...]")
	}
	pattern := cmd.Args[0]
	if ignoreCase {
		pattern = "(?i)" + pattern
	}

	// Pattern only: filter stdin.
	if len(cmd.Args) == 1 && !recursive {
		matches, err := grepText(pattern, stdinOr(stdin))
		if err != nil {
			return fail(2, "grep: %s", err)
		}
		if len(matches) == 0 {
			return shell.Result{ExitCode: 1}
		}
		return okLines(matches)
	}

	paths := cmd.Args[1:]
	if len(paths) == 0 {
		paths = []string{"."}
	}
	multi := recursive || len(paths) > 1
	var lines []string
	for _, arg := range paths {
		abs := ctx.ExpandPath(arg)
		matches, err := ctx.FS.Grep(pattern, abs, "/", recursive)
		if err != nil {
			if strings.Contains(err.Error(), "bad pattern") {
				return fail(2, "grep: invalid pattern: %s", cmd.Args[0])
			}
			return fail(2, "grep: %s: No such file or directory", arg)
		}
		for _, m := range matches {
			if multi {
				lines = append(lines, fmt.Sprintf("%s%s%s:%s%d%s:%s",
					ansiFile, m.File, ansiReset, ansiLine, m.Line, ansiReset, m.Text))
			} else {
				lines = append(lines, m.Text)
			}
		}
	}
	if len(lines) == 0 {
		return shell.Result{ExitCode: 1}
	}
	return okLines(lines)
}

func grepText(pattern, text string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern")
	}
	var out []string
	for _, line := range splitLines(text) {
		if re.MatchString(line) {
			out = append(out, line)
		}
	}
	return out, nil
}

func cmdHead(cmd shell.ParsedCommand, ctx *Context, stdin *string) shell.Result {
	return headTail(cmd, ctx, stdin, true)
}

func cmdTail(cmd shell.ParsedCommand, ctx *Context, stdin *string) shell.Result {
	return headTail(cmd, ctx, stdin, false)
}

func headTail(cmd shell.ParsedCommand, ctx *Context, stdin *string, head bool) shell.Result {
	n := intAfter(cmd.RawArgs, "-n", 10)
	name := cmd.Command
	text := ""
	var file string
	// The first arg that is not the -n value is the file.
	skip := fmt.Sprintf("%d", n)
	for _, arg := range cmd.Args {
		if arg == skip {
			skip = "" // only the first occurrence belongs to -n
			continue
		}
		file = arg
		break
	}
	if file != "" {
		content, err := ctx.FS.ReadFile(ctx.ExpandPath(file), "/")
		if err != nil {
			return fail(1, "%s: cannot open '%s' for reading: No such file or directory", name, file)
		}
		text = content
	} else {
		text = stdinOr(stdin)
	}
	lines := splitLines(text)
	if n < 0 {
		n = 0
	}
	if len(lines) > n {
		if head {
			lines = lines[:n]
		} else {
			lines = lines[len(lines)-n:]
		}
	}
	return okLines(lines)
}

func cmdWc(cmd shell.ParsedCommand, ctx *Context, stdin *string) shell.Result {
	countLines := cmd.Bool("l")
	countWords := cmd.Bool("w")
	countBytes := cmd.Bool("c")
	if !countLines && !countWords && !countBytes {
		countLines, countWords, countBytes = true, true, true
	}

	render := func(text, label string) string {
		var parts []string
		if countLines {
			parts = append(parts, fmt.Sprintf("%d", strings.Count(text, "\n")))
		}
		if countWords {
			parts = append(parts, fmt.Sprintf("%d", len(strings.Fields(text))))
		}
		if countBytes {
			parts = append(parts, fmt.Sprintf("%d", len(text)))
		}
		row := strings.Join(parts, " ")
		if label != "" {
			row += " " + label
		}
		return row
	}

	if len(cmd.Args) == 0 {
		return ok(render(stdinOr(stdin), "") + "\n")
	}
	var lines []string
	exitCode := 0
	for _, arg := range cmd.Args {
		content, err := ctx.FS.ReadFile(ctx.ExpandPath(arg), "/")
		if err != nil {
			lines = append(lines, fmt.Sprintf("wc: %s: No such file or directory", arg))
			exitCode = 1
			continue
		}
		lines = append(lines, render(content, arg))
	}
	res := okLines(lines)
	res.ExitCode = exitCode
	return res
}

func cmdTree(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	depth := intAfter(cmd.RawArgs, "-L", 4)
	base := "."
	for _, arg := range cmd.Args {
		if arg == fmt.Sprintf("%d", depth) {
			continue
		}
		base = arg
		break
	}
	abs := ctx.ExpandPath(base)
	node := ctx.FS.Resolve(abs, "/")
	if node == nil {
		return fail(1, "tree: %s: No such file or directory", base)
	}
	dirs, files := 0, 0
	lines := []string{base}
	var walk func(n *vfs.Node, prefix string, level int)
	walk = func(n *vfs.Node, prefix string, level int) {
		if level >= depth {
			return
		}
		children := n.Children()
		for i, child := range children {
			connector, childPrefix := "├── ", prefix+"│   "
			if i == len(children)-1 {
				connector, childPrefix = "└── ", prefix+"    "
			}
			lines = append(lines, prefix+connector+colorName(child))
			if child.IsDir() {
				dirs++
				walk(child, childPrefix, level+1)
			} else {
				files++
			}
		}
	}
	if node.IsDir() {
		walk(node, "", 0)
	} else {
		files = 1
	}
	lines = append(lines, "", fmt.Sprintf("%d directories, %d files", dirs, files))
	return okLines(lines)
}

// reason trims the wrapped-path prefix from a vfs error for message
// interpolation.
func reason(err error) string {
	msg := vfs.ErrorText(err)
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}
