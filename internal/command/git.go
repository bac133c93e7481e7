package command

import (
	"fmt"
	"strings"

	"proctord/internal/shell"
)

func registerGit(r *Registry) {
	r.Register("git", cmdGit)
}

func cmdGit(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if cmd.Bool("version") {
		return ok("git version 2.39.2\n")
	}
	if len(cmd.Args) == 0 {
		return fail(1, "usage: git [--version] [--help] <command> [<args>]")
	}
	g := ctx.Sim.Git
	sub := cmd.Args[0]
	rest := cmd.Args[1:]

	if !g.Initialized && sub != "init" {
		return fail(1, "fatal: not a git repository (or any of the parent directories): .git")
	}

	switch sub {
	case "init":
		g.Initialized = true
		return okf("Initialized empty Git repository in %s/.git/\n", ctx.CWD)
	case "status":
		return gitStatus(g)
	case "log":
		return gitLog(g, cmd)
	case "branch":
		return gitBranch(g, cmd, rest)
	case "checkout", "switch":
		return gitCheckout(g, cmd, rest)
	case "add":
		return gitAdd(g, rest)
	case "commit":
		return gitCommit(g, ctx, cmd)
	case "diff":
		return gitDiff(g)
	case "remote":
		if cmd.Bool("v") {
			return okf("origin\t%s (fetch)\norigin\t%s (push)\n", g.RemoteURL, g.RemoteURL)
		}
		return ok("origin\n")
	case "stash":
		return gitStash(g, rest)
	case "pull":
		return ok("Already up to date.\n")
	case "push":
		return okf("Everything up-to-date\n")
	default:
		return fail(1, "git: '%s' is not a git command. See 'git --help'.", sub)
	}
}

func gitStatus(g *GitState) shell.Result {
	var lines []string
	lines = append(lines, "On branch "+g.Branch)
	if len(g.Staged) == 0 && len(g.Modified) == 0 && len(g.Untracked) == 0 {
		lines = append(lines, "nothing to commit, working tree clean")
		return okLines(lines)
	}
	if len(g.Staged) > 0 {
		lines = append(lines, "Changes to be committed:",
			`  (use "git restore --staged <file>..." to unstage)`)
		for _, f := range g.Staged {
			lines = append(lines, "\tmodified:   "+f)
		}
		lines = append(lines, "")
	}
	if len(g.Modified) > 0 {
		lines = append(lines, "Changes not staged for commit:",
			`  (use "git add <file>..." to update what will be committed)`)
		for _, f := range g.Modified {
			lines = append(lines, "\tmodified:   "+f)
		}
		lines = append(lines, "")
	}
	if len(g.Untracked) > 0 {
		lines = append(lines, "Untracked files:",
			`  (use "git add <file>..." to include in what will be committed)`)
		for _, f := range g.Untracked {
			lines = append(lines, "\t"+f)
		}
		lines = append(lines, "")
	}
	lines = append(lines, `no changes added to commit (use "git add" and/or "git commit -a")`)
	return okLines(lines)
}

func gitLog(g *GitState, cmd shell.ParsedCommand) shell.Result {
	limit := intAfter(cmd.RawArgs, "-n", len(g.Commits))
	if limit > len(g.Commits) {
		limit = len(g.Commits)
	}
	commits := g.Commits[:limit]
	if cmd.Bool("oneline") {
		lines := make([]string, len(commits))
		for i, c := range commits {
			lines[i] = c.Hash[:7] + " " + c.Message
		}
		return okLines(lines)
	}
	var blocks []string
	for _, c := range commits {
		blocks = append(blocks, fmt.Sprintf(
			"commit %s\nAuthor: %s <%s>\nDate:   %s\n\n    %s",
			c.Hash, c.Author, c.Email,
			c.Date.Format("Mon Jan 2 15:04:05 2006 -0700"), c.Message))
	}
	return ok(strings.Join(blocks, "\n\n") + "\n")
}

func gitBranch(g *GitState, cmd shell.ParsedCommand, rest []string) shell.Result {
	if len(rest) > 0 {
		name := rest[0]
		for _, b := range g.Branches {
			if b == name {
				return fail(1, "fatal: a branch named '%s' already exists", name)
			}
		}
		g.Branches = append(g.Branches, name)
		return ok("")
	}
	var lines []string
	for _, b := range g.Branches {
		if b == g.Branch {
			lines = append(lines, "* "+b)
		} else {
			lines = append(lines, "  "+b)
		}
	}
	if cmd.Bool("a") {
		lines = append(lines, "  remotes/origin/HEAD -> origin/main", "  remotes/origin/main")
	}
	return okLines(lines)
}

func gitCheckout(g *GitState, cmd shell.ParsedCommand, rest []string) shell.Result {
	create := cmd.Bool("b")
	if len(rest) == 0 {
		return fail(1, "git checkout: missing branch name")
	}
	name := rest[0]
	if create {
		for _, b := range g.Branches {
			if b == name {
				return fail(128, "fatal: a branch named '%s' already exists", name)
			}
		}
		g.Branches = append(g.Branches, name)
		g.Branch = name
		return okf("Switched to a new branch '%s'\n", name)
	}
	for _, b := range g.Branches {
		if b == name {
			g.Branch = name
			return okf("Switched to branch '%s'\n", name)
		}
	}
	return fail(1, "error: pathspec '%s' did not match any file(s) known to git", name)
}

func gitAdd(g *GitState, rest []string) shell.Result {
	if len(rest) == 0 {
		return fail(1, "Nothing specified, nothing added.")
	}
	all := rest[0] == "." || rest[0] == "-A" || rest[0] == "--all"
	if all {
		g.Staged = append(g.Staged, g.Modified...)
		g.Staged = append(g.Staged, g.Untracked...)
		g.Modified = nil
		g.Untracked = nil
		return ok("")
	}
	for _, f := range rest {
		g.Staged = append(g.Staged, f)
		g.Modified = remove(g.Modified, f)
		g.Untracked = remove(g.Untracked, f)
	}
	return ok("")
}

func gitCommit(g *GitState, ctx *Context, cmd shell.ParsedCommand) shell.Result {
	// The message is the first non-subcommand arg: the tokenizer has
	// already stripped the quotes from -m "...".
	msg := ""
	if len(cmd.Args) > 1 {
		msg = cmd.Args[1]
	}
	if !cmd.Bool("m") || msg == "" {
		return fail(1, "Aborting commit due to empty commit message.")
	}
	if len(g.Staged) == 0 {
		return fail(1, "nothing to commit, working tree clean")
	}
	hash := ctx.Sim.hex(40)
	changed := len(g.Staged)
	g.Commits = append([]Commit{{
		Hash:    hash,
		Author:  ctx.User,
		Email:   ctx.User + "@" + ctx.Hostname,
		Date:    ctx.Now(),
		Message: msg,
	}}, g.Commits...)
	g.Staged = nil
	return okf("[%s %s] %s\n %d file(s) changed\n", g.Branch, hash[:7], msg, changed)
}

func gitDiff(g *GitState) shell.Result {
	if len(g.Modified) == 0 {
		return ok("")
	}
	var blocks []string
	for _, f := range g.Modified {
		blocks = append(blocks, fmt.Sprintf(
			"diff --git a/%s b/%s\nindex 3f6a9b2..e4f1a2b 100644\n--- a/%s\n+++ b/%s\n@@ -12,6 +12,7 @@\n   const vehicles = await Vehicle.findAll();\n+  // handle empty fleet\n   res.json(vehicles);",
			f, f, f, f))
	}
	return ok(strings.Join(blocks, "\n") + "\n")
}

func gitStash(g *GitState, rest []string) shell.Result {
	if len(rest) > 0 && rest[0] == "pop" {
		if g.StashDepth == 0 {
			return fail(1, "No stash entries found.")
		}
		g.StashDepth--
		g.Modified = append(g.Modified, "src/routes/vehicles.js")
		return ok("Dropped refs/stash@{0}\n")
	}
	if len(g.Modified) == 0 && len(g.Staged) == 0 {
		return ok("No local changes to save\n")
	}
	g.StashDepth++
	g.Modified = nil
	g.Staged = nil
	top := "fleetcore"
	if len(g.Commits) > 0 {
		top = g.Commits[0].Hash[:7] + " " + g.Commits[0].Message
	}
	return okf("Saved working directory and index state WIP on %s: %s\n", g.Branch, top)
}

func remove(list []string, item string) []string {
	var out []string
	for _, v := range list {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}
