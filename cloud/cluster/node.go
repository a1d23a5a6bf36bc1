package cluster

import (
	"fmt"
	"sort"
)

// NodeId names a substrate worker, like 'worker-3'.
type NodeId string

type Node interface {
	Id() NodeId
	// Where the node runs, "local" for in-process workers.
	Status() string
}

type node struct {
	id     NodeId
	status string
}

func (n node) Id() NodeId     { return n.id }
func (n node) Status() string { return n.status }
func (n node) String() string { return string(n.id) }

func NewIdNode(id string) Node {
	return NewIdStatusNode(id, "")
}

func NewIdStatusNode(id, status string) Node {
	return node{id: NodeId(id), status: status}
}

// NewIdNodes returns nodes named prefix1..prefixN.
func NewIdNodes(prefix string, num int) []Node {
	nodes := make([]Node, 0, num)
	for i := 1; i <= num; i++ {
		nodes = append(nodes, NewIdNode(fmt.Sprintf("%s%d", prefix, i)))
	}
	return nodes
}

func sortById(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Id() < nodes[j].Id() })
}
