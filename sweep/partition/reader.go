package partition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"

	"github.com/twitter/sweep/sweep/domain"
)

// BatchReader yields labeled batches lazily. It is single pass and returns io.EOF when done.
type BatchReader interface {
	Next(ctx context.Context) (domain.LabeledBatch, error)
}

type ReaderConfig struct {
	TrainRatio      float64
	ValidationRatio float64
	// Documents per emitted batch.
	BatchSize int
	Seed      int64
}

type buffer struct {
	docs domain.Documents
	meta map[string]string
	next int
}

// JSONReader streams a JSON array of documents. An element is either a token
// array or an object {"tokens": [...], "meta": {...}}. Each document is assigned
// a phase by a seeded draw against the configured ratios, and buffered until
// its phase has BatchSize documents. A batch carries the meta of its first document.
type JSONReader struct {
	dec     *json.Decoder
	cfg     ReaderConfig
	rng     *rand.Rand
	bufs    map[domain.Phase]*buffer
	ready   []domain.LabeledBatch
	started bool
	eof     bool
	read    int
}

func NewJSONReader(r io.Reader, cfg ReaderConfig) *JSONReader {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	bufs := make(map[domain.Phase]*buffer)
	for _, p := range domain.AllPhases {
		bufs[p] = &buffer{}
	}
	return &JSONReader{
		dec:  dec,
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		bufs: bufs,
	}
}

type document struct {
	Tokens []string               `json:"tokens"`
	Meta   map[string]interface{} `json:"meta"`
}

func (r *JSONReader) Next(ctx context.Context) (domain.LabeledBatch, error) {
	for len(r.ready) == 0 {
		if r.eof {
			return domain.LabeledBatch{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return domain.LabeledBatch{}, err
		}
		if err := r.readOne(); err != nil {
			return domain.LabeledBatch{}, err
		}
	}
	b := r.ready[0]
	r.ready = r.ready[1:]
	return b, nil
}

func (r *JSONReader) readOne() error {
	if !r.started {
		tok, err := r.dec.Token()
		if err != nil {
			return fmt.Errorf("reading corpus: %v", err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return fmt.Errorf("corpus must be a JSON array of documents, found %v", tok)
		}
		r.started = true
	}

	if !r.dec.More() {
		if _, err := r.dec.Token(); err != nil {
			return fmt.Errorf("reading corpus end: %v", err)
		}
		r.eof = true
		for _, p := range domain.AllPhases {
			r.flush(p)
		}
		return nil
	}

	var raw json.RawMessage
	if err := r.dec.Decode(&raw); err != nil {
		return fmt.Errorf("reading document %d: %v", r.read, err)
	}
	doc, err := parseDocument(raw)
	if err != nil {
		return fmt.Errorf("document %d: %v", r.read, err)
	}
	r.read++

	phase := r.assign()
	buf := r.bufs[phase]
	if len(buf.docs) == 0 {
		buf.meta = doc.meta
	}
	buf.docs = append(buf.docs, doc.tokens)
	if len(buf.docs) >= r.cfg.BatchSize {
		r.flush(phase)
	}
	return nil
}

func (r *JSONReader) assign() domain.Phase {
	u := r.rng.Float64()
	switch {
	case u < r.cfg.TrainRatio:
		return domain.Train
	case u < r.cfg.TrainRatio+r.cfg.ValidationRatio:
		return domain.Validation
	default:
		return domain.Test
	}
}

func (r *JSONReader) flush(p domain.Phase) {
	buf := r.bufs[p]
	if len(buf.docs) == 0 {
		return
	}
	r.ready = append(r.ready, domain.LabeledBatch{
		Phase: p,
		Index: buf.next,
		Docs:  buf.docs,
		Meta:  buf.meta,
	})
	buf.next++
	buf.docs = nil
	buf.meta = nil
}

type parsed struct {
	tokens []string
	meta   map[string]string
}

func parseDocument(raw json.RawMessage) (parsed, error) {
	var tokens []string
	if err := json.Unmarshal(raw, &tokens); err == nil {
		return parsed{tokens: tokens}, nil
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return parsed{}, fmt.Errorf("expected a token array or an object with tokens: %v", err)
	}
	if doc.Tokens == nil {
		return parsed{}, fmt.Errorf("object has no tokens")
	}
	var meta map[string]string
	if len(doc.Meta) > 0 {
		meta = make(map[string]string, len(doc.Meta))
		for k, v := range doc.Meta {
			meta[k] = fmt.Sprint(v)
		}
	}
	return parsed{tokens: doc.Tokens, meta: meta}, nil
}

// SliceReader replays prepared batches.
type SliceReader struct {
	batches []domain.LabeledBatch
}

func NewSliceReader(batches ...domain.LabeledBatch) *SliceReader {
	return &SliceReader{batches: batches}
}

func (r *SliceReader) Next(ctx context.Context) (domain.LabeledBatch, error) {
	if err := ctx.Err(); err != nil {
		return domain.LabeledBatch{}, err
	}
	if len(r.batches) == 0 {
		return domain.LabeledBatch{}, io.EOF
	}
	b := r.batches[0]
	r.batches = r.batches[1:]
	return b, nil
}
