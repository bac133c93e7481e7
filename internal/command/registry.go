package command

import (
	"sort"

	"proctord/internal/shell"
)

// Handler executes one parsed command against the shared context.
// stdin is non-nil when the command receives piped or redirected
// input.
type Handler func(cmd shell.ParsedCommand, ctx *Context, stdin *string) shell.Result

// Registry maps command names to handlers. Aliases resolve on lookup,
// not at registration, so an alias can be installed before its target.
type Registry struct {
	handlers map[string]Handler
	aliases  map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		aliases:  make(map[string]string),
	}
}

// Register installs a handler under name.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Alias makes alias behave as target.
func (r *Registry) Alias(alias, target string) {
	r.aliases[alias] = target
}

// Lookup resolves a name (following at most one alias hop) to its
// handler, or nil.
func (r *Registry) Lookup(name string) Handler {
	if h, ok := r.handlers[name]; ok {
		return h
	}
	if target, ok := r.aliases[name]; ok {
		return r.handlers[target]
	}
	return nil
}

// Names returns every registered command and alias name, sorted. The
// completion provider feeds from this.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers)+len(r.aliases))
	for name := range r.handlers {
		names = append(names, name)
	}
	for alias := range r.aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// RegisterAll wires the full catalogue of simulated tools.
func RegisterAll(r *Registry) {
	registerCoreutils(r)
	registerBuiltins(r)
	registerTextUtils(r)
	registerDocker(r)
	registerGit(r)
	registerNode(r)
	registerPython(r)
	registerNet(r)
	registerChallenge(r)
}

// NewDefaultRegistry returns a registry with everything installed.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterAll(r)
	return r
}
