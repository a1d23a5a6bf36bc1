package domain

import (
	"github.com/leanovate/gopter"
)

//
// Generators for property based testing of grid types.
//

var symbols = []string{Symmetric, Asymmetric, Auto}

func genPrior(genParams *gopter.GenParameters) Prior {
	if genParams.NextBool() {
		return Symbol(symbols[genParams.Rng.Intn(len(symbols))])
	}
	// (0, 1] at priorScale resolution
	return Numeric(float64(genParams.Rng.Intn(int(priorScale))+1) / priorScale)
}

// GenPrior generates symbolic and numeric priors.
func GenPrior() gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		return gopter.NewGenResult(genPrior(genParams), gopter.NoShrinker)
	}
}

// GenModelKey generates keys with 1-100 topics.
func GenModelKey() gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		key := NewModelKey(genParams.Rng.Intn(100)+1, genPrior(genParams), genPrior(genParams))
		return gopter.NewGenResult(key, gopter.NoShrinker)
	}
}

// GenPriors generates a non-empty list of distinct priors, at most max long.
func GenPriors(max int) gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		n := genParams.Rng.Intn(max) + 1
		seen := map[Prior]bool{}
		priors := []Prior{}
		for len(priors) < n {
			p := genPrior(genParams)
			if !seen[p] {
				seen[p] = true
				priors = append(priors, p)
			}
		}
		return gopter.NewGenResult(priors, gopter.NoShrinker)
	}
}
