package command

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseResult is one line of player input.
type ParseResult struct {
	Command string   // first word, lowercased
	Args    []string // remaining words
	RawArgs string   // text after the command word, inner spacing kept
}

// Parse splits line into a lowercased command word and its arguments.
//
// Postcondition: a blank line yields the zero ParseResult.
func Parse(line string) ParseResult {
	word, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	if word == "" {
		return ParseResult{}
	}
	p := ParseResult{Command: strings.ToLower(word), RawArgs: strings.TrimSpace(rest)}
	if p.RawArgs != "" {
		p.Args = strings.Fields(p.RawArgs)
	}
	return p
}

// Ordinal returns argument i read as a 1-based list position and converted to
// a 0-based index, so "choose 2" selects the second listed option.
//
// Postcondition: Returns an index >= 0, or an error when the argument is missing or not a positive number.
func (p ParseResult) Ordinal(i int) (int, error) {
	if i < 0 || i >= len(p.Args) {
		return 0, fmt.Errorf("%s needs a number", p.Command)
	}
	n, err := strconv.Atoi(p.Args[i])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q is not a list number", p.Args[i])
	}
	return n - 1, nil
}

// Arg returns argument i, or "" when it is missing.
func (p ParseResult) Arg(i int) string {
	if i < 0 || i >= len(p.Args) {
		return ""
	}
	return p.Args[i]
}
