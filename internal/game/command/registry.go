package command

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// minPrefix is the shortest abbreviation Resolve accepts for a command name.
const minPrefix = 3

// Registry resolves what a player typed to a Command.
type Registry struct {
	byName map[string]*Command
	alias  map[string]*Command
	sorted []*Command
}

// NewRegistry indexes cmds by name and alias.
//
// Precondition: every command has a Name and Handler; names and aliases are unique across cmds.
// Postcondition: Returns a Registry or an error naming the first collision.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*Command, len(cmds)),
		alias:  make(map[string]*Command),
	}
	taken := func(word string) string {
		if c, ok := r.byName[word]; ok {
			return c.Name
		}
		if c, ok := r.alias[word]; ok {
			return c.Name
		}
		return ""
	}
	for i := range cmds {
		cmd := &cmds[i]
		if cmd.Name == "" || cmd.Handler == "" {
			return nil, fmt.Errorf("command %d needs a name and a handler", i)
		}
		if owner := taken(cmd.Name); owner != "" {
			return nil, fmt.Errorf("duplicate command name %q (already used by %q)", cmd.Name, owner)
		}
		r.byName[cmd.Name] = cmd
		for _, a := range cmd.Aliases {
			if owner := taken(a); owner != "" {
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", a, owner, cmd.Name)
			}
			r.alias[a] = cmd
		}
		r.sorted = append(r.sorted, cmd)
	}
	slices.SortFunc(r.sorted, func(a, b *Command) int {
		return cmp.Or(cmp.Compare(a.Category, b.Category), cmp.Compare(a.Name, b.Name))
	})
	return r, nil
}

// DefaultRegistry returns a Registry holding BuiltinCommands. It panics if the
// built-in table is inconsistent.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve finds the command for word: an exact name, an alias, or an
// unambiguous abbreviation of at least three letters ("inven" for inventory).
func (r *Registry) Resolve(word string) (*Command, bool) {
	if c, ok := r.byName[word]; ok {
		return c, true
	}
	if c, ok := r.alias[word]; ok {
		return c, true
	}
	if len(word) < minPrefix {
		return nil, false
	}
	matches := r.Suggest(word)
	if len(matches) != 1 {
		return nil, false
	}
	return r.byName[matches[0]], true
}

// Suggest returns, in name order, the command names starting with word.
func (r *Registry) Suggest(word string) []string {
	if word == "" {
		return nil
	}
	var names []string
	for name := range r.byName {
		if strings.HasPrefix(name, word) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Interpret parses line and resolves its command. A bare list number is read
// as "use <n>" during combat and "choose <n>" otherwise.
//
// Postcondition: ok is false when line is blank or names no command; the
// ParseResult is still returned for error reporting.
func (r *Registry) Interpret(line string, inCombat bool) (ParseResult, *Command, bool) {
	p := Parse(line)
	if p.Command == "" {
		return p, nil, false
	}
	if n, err := strconv.Atoi(p.Command); err == nil && n > 0 && len(p.Args) == 0 {
		verb := "choose"
		if inCombat {
			verb = "use"
		}
		p = ParseResult{Command: verb, Args: []string{p.Command}, RawArgs: p.Command}
	}
	cmd, ok := r.Resolve(p.Command)
	return p, cmd, ok
}

// Commands returns every command ordered by category, then name.
func (r *Registry) Commands() []*Command {
	return slices.Clone(r.sorted)
}

// InCategory returns the commands in category ordered by name.
func (r *Registry) InCategory(category string) []*Command {
	var out []*Command
	for _, c := range r.sorted {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out
}
