package scheduler

import (
	"fmt"
	"io"
	"time"
)

// Progress prints one line per completed iteration.
type Progress struct {
	out   io.Writer
	total int
	done  int
	start time.Time
	now   func() time.Time
}

func NewProgress(out io.Writer, total int, now func() time.Time) *Progress {
	return &Progress{out: out, total: total, start: now(), now: now}
}

func (p *Progress) Done() int {
	return p.done
}

// Advance counts one iteration and prints its result counts.
func (p *Progress) Advance(train, validation, test int) {
	p.done++
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) * 100 / float64(p.total)
	}
	fmt.Fprintf(p.out, "Iteration %d/%d (%.0f%%) complete, elapsed %s: %d train, %d validation, %d test results\n",
		p.done, p.total, pct, p.now().Sub(p.start).Round(time.Second), train, validation, test)
}
