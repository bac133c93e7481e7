package command

import (
	"fmt"

	"proctord/internal/shell"
)

func registerChallenge(r *Registry) {
	r.Register("status", cmdStatus)
	r.Register("hint", cmdHint)
	r.Register("submit", cmdSubmit)
	r.Register("next-level", cmdNextLevel)
}

func cmdStatus(_ shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	st := ctx.Challenge
	lvl := st.CurrentLevel()
	if lvl == nil {
		return ok("No assessment loaded.\n")
	}
	lines := []string{
		fmt.Sprintf("Level %d: %s  (rank: %s)", lvl.Number, lvl.Name, st.Rank),
		"",
	}
	done := 0
	for _, obj := range lvl.Objectives {
		mark := "[ ]"
		if st.Completed[obj.ID] {
			mark = "[x]"
			done++
		}
		lines = append(lines, fmt.Sprintf("  %s %-18s %s", mark, obj.ID, obj.Title))
	}
	lines = append(lines, "",
		fmt.Sprintf("%d/%d objectives complete, %d hint(s) used",
			done, len(lvl.Objectives), len(st.HintsUsed)))
	return okLines(lines)
}

func cmdHint(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	st := ctx.Challenge
	lvl := st.CurrentLevel()
	if lvl == nil {
		return ok("No assessment loaded.\n")
	}
	// hint <id> targets an objective; bare hint picks the first
	// incomplete one.
	var id string
	if len(cmd.Args) > 0 {
		id = cmd.Args[0]
	} else {
		for _, obj := range lvl.Objectives {
			if !st.Completed[obj.ID] {
				id = obj.ID
				break
			}
		}
	}
	if id == "" {
		return ok("Nothing left to hint at; the level is complete.\n")
	}
	obj := st.Catalogue.Objective(id)
	if obj == nil {
		return fail(1, "hint: unknown objective '%s'", id)
	}
	st.HintsUsed[id] = true
	ctx.HintUsed = append(ctx.HintUsed, id)
	return okf("hint (%s): %s\n", obj.ID, obj.Hint)
}

func cmdSubmit(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if len(cmd.Args) == 0 {
		return fail(2, "usage: submit <objective-id>")
	}
	st := ctx.Challenge
	id := cmd.Args[0]
	obj := st.Catalogue.Objective(id)
	if obj == nil {
		return fail(1, "submit: unknown objective '%s'", id)
	}
	if st.Completed[id] {
		return okf("objective '%s' is already complete\n", id)
	}
	return okf("objective '%s' is judged automatically; keep working and it will complete itself\n", id)
}

func cmdNextLevel(_ shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	st := ctx.Challenge
	if !st.LevelComplete() {
		lvl := st.CurrentLevel()
		remaining := 0
		if lvl != nil {
			for _, obj := range lvl.Objectives {
				if !st.Completed[obj.ID] {
					remaining++
				}
			}
		}
		return fail(1, "next-level: %d objective(s) still open; run 'status'", remaining)
	}
	level, advanced := st.Advance(ctx.Now())
	if !advanced {
		return ok("Assessment complete. Well done.\n")
	}
	ctx.LevelAdvanced = level
	return okf("Advancing to level %d. Run 'status' to see your new objectives.\n", level)
}
