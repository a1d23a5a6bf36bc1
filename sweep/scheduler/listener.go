package scheduler

import (
	"github.com/luci/go-render/render"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/sweep/sweep/domain"
)

// Transition describes one state change of an iteration.
type Transition struct {
	Iteration   int
	Combination domain.Combination
	From        State
	To          State
	Pending     int
	Results     map[string]int
}

type Listener interface {
	StateChanged(t Transition)
}

type noopListener struct{}

func (l *noopListener) StateChanged(t Transition) {}

func NewNoopListener() Listener {
	return &noopListener{}
}

type loggingListener struct{}

func (l *loggingListener) StateChanged(t Transition) {
	log.Debugln("State Change", render.Render(t))
}

// NewLoggingListener logs every transition at debug level.
func NewLoggingListener() Listener {
	return &loggingListener{}
}

// multiListener fans transitions out in order.
type multiListener []Listener

func (m multiListener) StateChanged(t Transition) {
	for _, l := range m {
		l.StateChanged(t)
	}
}

func NewMultiListener(listeners ...Listener) Listener {
	return multiListener(listeners)
}
