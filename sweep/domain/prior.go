package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type PriorKind int

const (
	// Symbolic priors sort before numeric ones.
	SymbolicPrior PriorKind = iota
	NumericPrior
)

const (
	Symmetric  = "symmetric"
	Asymmetric = "asymmetric"
	Auto       = "auto"
)

// priorScale is the precision numeric priors are canonicalized to, so that
// values computed along different paths (0.01+0.3 vs 0.31) compare equal.
const priorScale = 1e6

// Prior is a Dirichlet concentration value, either a named scheme such as
// "symmetric" or an explicit number. The zero value is not meaningful.
type Prior struct {
	Kind   PriorKind
	Symbol string
	Value  float64
}

func Symbol(s string) Prior {
	return Prior{Kind: SymbolicPrior, Symbol: s}
}

func Numeric(v float64) Prior {
	return Prior{Kind: NumericPrior, Value: math.Round(v*priorScale) / priorScale}
}

// ParsePrior reads a prior as written in configs and batch metadata.
func ParsePrior(s string) (Prior, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Prior{}, fmt.Errorf("empty prior")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return Prior{}, fmt.Errorf("numeric prior must be positive and finite, got %q", s)
		}
		return Numeric(v), nil
	}
	switch s {
	case Symmetric, Asymmetric, Auto:
		return Symbol(s), nil
	}
	return Prior{}, fmt.Errorf("unknown prior %q", s)
}

func ParsePriors(values []string) ([]Prior, error) {
	priors := make([]Prior, 0, len(values))
	for _, v := range values {
		p, err := ParsePrior(v)
		if err != nil {
			return nil, err
		}
		priors = append(priors, p)
	}
	return priors, nil
}

func (p Prior) IsSymbolic() bool {
	return p.Kind == SymbolicPrior
}

func (p Prior) String() string {
	if p.IsSymbolic() {
		return p.Symbol
	}
	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}

// Compare returns -1, 0 or 1. Symbolic < numeric; symbols order lexically, numbers numerically.
func (p Prior) Compare(o Prior) int {
	if p.Kind != o.Kind {
		if p.Kind < o.Kind {
			return -1
		}
		return 1
	}
	if p.IsSymbolic() {
		return strings.Compare(p.Symbol, o.Symbol)
	}
	switch {
	case p.Value < o.Value:
		return -1
	case p.Value > o.Value:
		return 1
	}
	return 0
}
