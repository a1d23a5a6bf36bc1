package domain

import (
	"fmt"
	"strconv"
)

// Metadata fields that identify a model key on a data batch.
const (
	MetaTopics = "n_topics"
	MetaAlpha  = "alpha_value"
	MetaBeta   = "beta_value"
)

// ModelKey identifies a trained model: topic count plus both priors.
// It is comparable and used directly as a map key.
type ModelKey struct {
	Topics int
	Alpha  Prior
	Beta   Prior
}

func NewModelKey(topics int, alpha, beta Prior) ModelKey {
	return ModelKey{Topics: topics, Alpha: alpha, Beta: beta}
}

func (k ModelKey) String() string {
	return fmt.Sprintf("(%d, %s, %s)", k.Topics, k.Alpha, k.Beta)
}

// Compare orders by topics, then alpha, then beta.
func (k ModelKey) Compare(o ModelKey) int {
	if k.Topics != o.Topics {
		if k.Topics < o.Topics {
			return -1
		}
		return 1
	}
	if c := k.Alpha.Compare(o.Alpha); c != 0 {
		return c
	}
	return k.Beta.Compare(o.Beta)
}

func (k ModelKey) Less(o ModelKey) bool {
	return k.Compare(o) < 0
}

// Meta renders the key as batch metadata, the inverse of KeyFromMeta.
func (k ModelKey) Meta() map[string]string {
	return map[string]string{
		MetaTopics: strconv.Itoa(k.Topics),
		MetaAlpha:  k.Alpha.String(),
		MetaBeta:   k.Beta.String(),
	}
}

// KeyFromMeta derives a model key from the metadata embedded in a data batch.
func KeyFromMeta(meta map[string]string) (ModelKey, error) {
	for _, field := range []string{MetaTopics, MetaAlpha, MetaBeta} {
		if _, ok := meta[field]; !ok {
			return ModelKey{}, fmt.Errorf("batch metadata has no %q", field)
		}
	}
	topics, err := strconv.Atoi(meta[MetaTopics])
	if err != nil || topics < 1 {
		return ModelKey{}, fmt.Errorf("invalid %s %q", MetaTopics, meta[MetaTopics])
	}
	alpha, err := ParsePrior(meta[MetaAlpha])
	if err != nil {
		return ModelKey{}, fmt.Errorf("invalid %s: %v", MetaAlpha, err)
	}
	beta, err := ParsePrior(meta[MetaBeta])
	if err != nil {
		return ModelKey{}, fmt.Errorf("invalid %s: %v", MetaBeta, err)
	}
	return NewModelKey(topics, alpha, beta), nil
}
