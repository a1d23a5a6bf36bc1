package domain

// Documents is a list of tokenized documents.
type Documents [][]string

// Tokens is the total token count, used as the size of a batch.
func (d Documents) Tokens() int {
	n := 0
	for _, doc := range d {
		n += len(doc)
	}
	return n
}

// Bytes approximates the in-memory footprint of the documents.
func (d Documents) Bytes() uint64 {
	var n uint64
	for _, doc := range d {
		for _, tok := range doc {
			n += uint64(len(tok))
		}
	}
	return n
}

// LabeledBatch is a batch of documents tagged with the phase it feeds.
type LabeledBatch struct {
	Phase Phase
	Index int
	Docs  Documents
	Meta  map[string]string
}
