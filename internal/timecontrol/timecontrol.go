// Package timecontrol groups literal time-control tokens into symbolic classes.
package timecontrol

import (
	"slices"
	"sort"

	"golang.org/x/text/cases"

	"chess-analytica/internal/game"
)

// All selects every archived game
const All = "all"

// Classes maps a class name to the literal tokens it covers. The mapping is
// data, loaded from configuration, so it can follow upstream category changes.
type Classes map[string][]string

// Default returns the built-in class table
func Default() Classes {
	return Classes{
		"rapid":  {"600", "900+10", "1800"},
		"bullet": {"60", "60+1", "120+0"},
		"blitz":  {"180", "180+2", "300"},
		"daily":  {"86400"},
	}
}

// Normalize lower-cases class names and drops empty classes
func (c Classes) Normalize() Classes {
	out := make(Classes, len(c))
	for name, tokens := range c {
		if len(tokens) == 0 {
			continue
		}
		key := cases.Fold().String(name)
		out[key] = append(out[key], tokens...)
	}
	return out
}

// Names returns the class names in sorted order, "all" excluded
func (c Classes) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClassOf returns the class containing token, empty if none does
func (c Classes) ClassOf(token string) string {
	for _, name := range c.Names() {
		if slices.Contains(c[name], token) {
			return name
		}
	}
	return ""
}

// Matcher reports whether a game's time control satisfies a selector
type Matcher func(timeControl string) bool

// Matcher resolves a selector. Class names match case-insensitively; any other
// selector is compared literally against the game's token, so an unknown class
// name selects nothing.
func (c Classes) Matcher(selector string) Matcher {
	folded := cases.Fold().String(selector)
	if folded == All {
		return func(string) bool { return true }
	}
	if tokens, ok := c[folded]; ok {
		return func(tc string) bool { return slices.Contains(tokens, tc) }
	}
	return func(tc string) bool { return tc == selector }
}

// Filter returns the games matching selector, preserving order. The returned
// slice shares game pointers with the input and never copies games.
func (c Classes) Filter(games []*game.Game, selector string) []*game.Game {
	match := c.Matcher(selector)
	out := make([]*game.Game, 0, len(games))
	for _, g := range games {
		if match(g.TimeControl) {
			out = append(out, g)
		}
	}
	return out
}
