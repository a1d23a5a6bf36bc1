package cluster

import (
	log "github.com/sirupsen/logrus"
)

// Membership is the current view of a cluster's nodes.
// Not thread-safe; owners serialize access.
type Membership struct {
	nodes       map[NodeId]Node
	nopCheckCnt int
}

func NewMembership(nodes []Node) *Membership {
	m := &Membership{
		nodes: make(map[NodeId]Node),
	}
	m.SetAndDiff(nodes)
	return m
}

// SetAndDiff takes the new state as an argument and returns the
// node updates that lead from the old state to it, adds first.
func (m *Membership) SetAndDiff(newState []Node) []NodeUpdate {
	old := m.nodes
	added := []Node{}
	for _, n := range newState {
		if _, exists := old[n.Id()]; exists {
			// old ends up holding only the nodes removed in this diff
			delete(old, n.Id())
		} else {
			added = append(added, n)
		}
	}
	removed := []Node{}
	for _, n := range old {
		removed = append(removed, n)
	}
	sortById(added)
	sortById(removed)

	outgoing := []NodeUpdate{}
	for _, n := range added {
		outgoing = append(outgoing, NewAdd(n))
	}
	for _, n := range removed {
		outgoing = append(outgoing, NewRemove(n.Id()))
	}

	if len(added) > 0 || len(removed) > 0 {
		log.Infof("Cluster membership changed: %d added, %d removed, %d now (%d checks with no change)",
			len(added), len(removed), len(newState), m.nopCheckCnt)
		m.nopCheckCnt = 0
	} else {
		m.nopCheckCnt++
	}

	m.nodes = make(map[NodeId]Node)
	for _, n := range newState {
		m.nodes[n.Id()] = n
	}
	return outgoing
}

// Nodes returns the current members sorted by id.
func (m *Membership) Nodes() []Node {
	nodes := make([]Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		nodes = append(nodes, n)
	}
	sortById(nodes)
	return nodes
}

func (m *Membership) Len() int {
	return len(m.nodes)
}
