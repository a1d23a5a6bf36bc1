package domain

import (
	"fmt"
)

// Combination is one point of the hyperparameter grid plus a phase tag.
type Combination struct {
	Topics int
	Alpha  Prior
	Beta   Prior
	Phase  Phase
}

func (c Combination) Key() ModelKey {
	return NewModelKey(c.Topics, c.Alpha, c.Beta)
}

func (c Combination) String() string {
	return fmt.Sprintf("(%d, %s, %s, %s)", c.Topics, c.Alpha, c.Beta, c.Phase)
}
