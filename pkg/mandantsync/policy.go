package mandantsync

import (
	"fmt"
	"strings"
)

// ConflictPolicy decides which mandant a name resolves to
// when two or more mandants have the same name (case-insensitively).
type ConflictPolicy int

const (
	// the mandant with the smallest id wins.
	FirstWins ConflictPolicy = iota

	// the mandant with the greatest id wins.
	LastWins

	// the name resolves to all mandants having it.
	Merge

	// the name is ambiguous. Objects referring it fail to be synchronized.
	Error
)

func (c ConflictPolicy) String() string {
	switch c {
	case FirstWins:
		return "first-wins"
	case LastWins:
		return "last-wins"
	case Merge:
		return "merge"
	case Error:
		return "error"
	}
	return fmt.Sprintf("ConflictPolicy(%d)", int(c))
}

// ParseConflictPolicy parses one of "first-wins", "last-wins", "merge" or "error".
//
// Empty string is "first-wins".
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first-wins":
		return FirstWins, nil
	case "last-wins":
		return LastWins, nil
	case "merge":
		return Merge, nil
	case "error":
		return Error, nil
	}
	return FirstWins, fmt.Errorf(
		"unknown conflict policy: %s (should be one of -- first-wins|last-wins|merge|error)", s,
	)
}

// MissingConfigPolicy decides what happens to associations of an object
// whose configuration is missing or malformed.
type MissingConfigPolicy int

const (
	// associations of the object are removed.
	Clear MissingConfigPolicy = iota

	// associations of the object are left as they are.
	Keep
)

func (m MissingConfigPolicy) String() string {
	switch m {
	case Clear:
		return "clear"
	case Keep:
		return "keep"
	}
	return fmt.Sprintf("MissingConfigPolicy(%d)", int(m))
}

// ParseMissingConfigPolicy parses "clear" or "keep". Empty string is "clear".
func ParseMissingConfigPolicy(s string) (MissingConfigPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clear":
		return Clear, nil
	case "keep":
		return Keep, nil
	}
	return Clear, fmt.Errorf("unknown missing config policy: %s (should be one of -- clear|keep)", s)
}
