package shell

import "strings"

// Redirect describes an output redirection target.
type Redirect struct {
	Path   string
	Append bool
}

// ParsedCommand is one command of a pipeline after tokenization and
// flag parsing. RawArgs preserves the joined token tail so handlers
// can re-read forms the flag parser collapses (e.g. "-n 5").
type ParsedCommand struct {
	Command        string
	Args           []string
	RawArgs        string
	Flags          map[string]string
	InputRedirect  string
	OutputRedirect *Redirect
}

// Flag returns a flag's value and whether it was set at all.
func (c ParsedCommand) Flag(name string) (string, bool) {
	v, ok := c.Flags[name]
	return v, ok
}

// Bool reports whether any of the named flags is present.
func (c ParsedCommand) Bool(names ...string) bool {
	for _, name := range names {
		if _, ok := c.Flags[name]; ok {
			return true
		}
	}
	return false
}

// ParseCommand interprets a token list: token[0] is the command, >> >
// and < capture redirections (free-standing or prefixed to the path),
// --flag[=value] and coalesced short flags populate Flags, everything
// else lands in Args in order.
func ParseCommand(tokens []string) ParsedCommand {
	cmd := ParsedCommand{Flags: make(map[string]string)}
	if len(tokens) == 0 {
		return cmd
	}
	cmd.Command = tokens[0]
	cmd.RawArgs = strings.Join(tokens[1:], " ")

	rest := tokens[1:]
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		switch {
		case tok == ">>" || tok == ">":
			if i+1 < len(rest) {
				cmd.OutputRedirect = &Redirect{Path: rest[i+1], Append: tok == ">>"}
				i++
			}
		case tok == "<":
			if i+1 < len(rest) {
				cmd.InputRedirect = rest[i+1]
				i++
			}
		case strings.HasPrefix(tok, ">>") && len(tok) > 2:
			cmd.OutputRedirect = &Redirect{Path: tok[2:], Append: true}
		case strings.HasPrefix(tok, ">") && len(tok) > 1:
			cmd.OutputRedirect = &Redirect{Path: tok[1:]}
		case strings.HasPrefix(tok, "<") && len(tok) > 1:
			cmd.InputRedirect = tok[1:]
		case strings.HasPrefix(tok, "--") && len(tok) > 2:
			name := tok[2:]
			if eq := strings.Index(name, "="); eq >= 0 {
				cmd.Flags[name[:eq]] = name[eq+1:]
				continue
			}
			if i+1 < len(rest) && !strings.HasPrefix(rest[i+1], "-") &&
				!strings.ContainsAny(rest[i+1], "<>") {
				cmd.Flags[name] = rest[i+1]
				i++
				continue
			}
			cmd.Flags[name] = ""
		case strings.HasPrefix(tok, "-") && len(tok) > 1 && tok != "--":
			for _, r := range tok[1:] {
				cmd.Flags[string(r)] = ""
			}
		default:
			cmd.Args = append(cmd.Args, tok)
		}
	}
	return cmd
}

// ParseLine runs the full front end: operator split, tokenization,
// and per-segment command parsing.
func ParseLine(line string) Pipeline {
	segments, ops := Split(line)
	p := Pipeline{Operators: ops}
	for _, seg := range segments {
		p.Commands = append(p.Commands, ParseCommand(Tokenize(strings.TrimSpace(seg))))
	}
	return p
}

// Pipeline is an ordered command list with the operator sitting
// between each adjacent pair: Operators[i] joins Commands[i] and
// Commands[i+1].
type Pipeline struct {
	Commands  []ParsedCommand
	Operators []Operator
}
