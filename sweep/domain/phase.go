package domain

import (
	"fmt"
)

// Phase is the stage of the train -> validation -> test pipeline a task or batch belongs to.
type Phase int

const (
	Train Phase = iota
	Validation
	Test
)

// AllPhases in pipeline order.
var AllPhases = []Phase{Train, Validation, Test}

func (p Phase) String() string {
	switch p {
	case Train:
		return "train"
	case Validation:
		return "validation"
	case Test:
		return "test"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) Valid() bool {
	return p >= Train && p <= Test
}

func ParsePhase(s string) (Phase, error) {
	for _, p := range AllPhases {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}
