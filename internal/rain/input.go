package rain

import (
	"math"

	"livemtrx/internal/terminal"
)

// Action is what a key press asks the engine to do.
type Action int

// Actions.
const (
	ActionNone Action = iota
	ActionQuit
	ActionTheme
	ActionReseed
	ActionDenser
	ActionSparser
)

func (a Action) String() string {
	switch a {
	case ActionQuit:
		return "quit"
	case ActionTheme:
		return "theme"
	case ActionReseed:
		return "reseed"
	case ActionDenser:
		return "denser"
	case ActionSparser:
		return "sparser"
	default:
		return "none"
	}
}

// ActionFor maps a key to its action. Letters are case-insensitive and
// unknown keys are ignored.
func ActionFor(k terminal.Key) Action {
	if k.Interrupt {
		return ActionQuit
	}
	switch k.Rune {
	case 'q', 'Q':
		return ActionQuit
	case 'c', 'C':
		return ActionTheme
	case 'r', 'R':
		return ActionReseed
	case '+', '=':
		return ActionDenser
	case '-', '_':
		return ActionSparser
	default:
		return ActionNone
	}
}

// Density bounds.
const (
	MinDensity = 0.05
	MaxDensity = 1.0
)

// StepDensity moves d by delta, clamped to [MinDensity, MaxDensity] and
// rounded to two decimals so repeated steps do not drift.
func StepDensity(d, delta float64) float64 {
	d = math.Round((d+delta)*100) / 100
	return min(max(d, MinDensity), MaxDensity)
}
