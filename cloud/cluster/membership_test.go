package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAndDiff(t *testing.T) {
	m := NewMembership(NewIdNodes("worker-", 2))
	assert.Equal(t, 2, m.Len())

	updates := m.SetAndDiff([]Node{NewIdNode("worker-2"), NewIdNode("worker-3"), NewIdNode("worker-4")})
	assert.Equal(t, []NodeUpdate{
		NewAdd(NewIdNode("worker-3")),
		NewAdd(NewIdNode("worker-4")),
		NewRemove("worker-1"),
	}, updates)

	assert.Empty(t, m.SetAndDiff(m.Nodes()))
	assert.Equal(t, 1, m.nopCheckCnt)
}

func TestNodesSorted(t *testing.T) {
	m := NewMembership([]Node{NewIdNode("b"), NewIdNode("a"), NewIdNode("c")})
	ids := []NodeId{}
	for _, n := range m.Nodes() {
		ids = append(ids, n.Id())
	}
	assert.Equal(t, []NodeId{"a", "b", "c"}, ids)
}
