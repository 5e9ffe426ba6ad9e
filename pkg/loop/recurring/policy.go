// Package recurring decides how background synchronization repeats.
package recurring

import (
	"fmt"
	"strings"
	"time"

	"github.com/heatcare/heatcare/pkg/loop"
)

// DefaultCooldown is the cooldown of "forever" without duration.
const DefaultCooldown = 10 * time.Minute

// ParsePolicy parses "none", "forever[:COOLDOWN]" or "until-error[:COOLDOWN]".
//
// Empty string is "none".
func ParsePolicy(s string) (Policy, error) {
	typ, param, ok := strings.Cut(s, ":")
	switch typ {
	case "", "none":
		if ok {
			return nil, fmt.Errorf("none policy does not take parameters: %s", s)
		}
		return None(), nil
	case "forever", "until-error":
		cooldown := DefaultCooldown
		if ok && param != "" {
			d, err := time.ParseDuration(param)
			if err != nil {
				return nil, fmt.Errorf(`failed to parse: %s as "%s:COOLDOWN": %w`, s, typ, err)
			}
			if d <= 0 {
				return nil, fmt.Errorf("cooldown should be positive: %s", s)
			}
			cooldown = d
		}
		if typ == "until-error" {
			return UntilError(Forever(cooldown)), nil
		}
		return Forever(cooldown), nil
	}
	return nil, fmt.Errorf("unknown policy name: %s (should be one of -- none|forever|until-error)", typ)
}

// Policy decides the next step after a run.
type Policy interface {
	// Enabled tells whether runs are scheduled at all.
	Enabled() bool

	Next(err error) loop.Next
	String() string
}

// None schedules no runs.
func None() Policy {
	return none{}
}

type none struct{}

func (none) Enabled() bool        { return false }
func (none) Next(error) loop.Next { return loop.Break(nil) }
func (none) String() string       { return "none" }

// Forever runs again after cooldown, also when the last run has failed.
func Forever(cooldown time.Duration) Policy {
	return forever(cooldown)
}

type forever time.Duration

func (f forever) Enabled() bool {
	return true
}

func (f forever) String() string {
	return fmt.Sprintf("forever:%s", time.Duration(f))
}

func (f forever) Next(error) loop.Next {
	return loop.Continue(time.Duration(f))
}

// UntilError breaks with the first error, and otherwise follows p.
func UntilError(p Policy) Policy {
	return untilError{base: p}
}

type untilError struct {
	base Policy
}

func (u untilError) Enabled() bool {
	return u.base.Enabled()
}

func (u untilError) String() string {
	if f, ok := u.base.(forever); ok {
		return fmt.Sprintf("until-error:%s", time.Duration(f))
	}
	return fmt.Sprintf("%s (until error)", u.base)
}

func (u untilError) Next(err error) loop.Next {
	if err != nil {
		return loop.Break(err)
	}
	return u.base.Next(err)
}
