package graph

import (
	"fmt"
	"strings"
)

// Elem is one element of a render graph: a leaf Node or a nested *Network.
// The variant set is closed.
type Elem interface {
	elem()
	key() string
}

// Node is a leaf with a unique id and a display label.
type Node struct {
	ID    string
	Label string
}

func (Node) elem() {}

func (n Node) key() string {
	return "node(" + n.ID + ")"
}

// Network is an ephemeral directed or undirected group of elements. A
// directed network chains its elements; an undirected one holds unordered
// siblings. A network may carry a cluster name and a label-placement hint
// for rendering.
type Network struct {
	elems    []Elem
	edges    [][2]int
	directed bool
	name     string
	labelLoc string
}

// NewNetwork returns an empty network.
func NewNetwork(directed bool) *Network {
	return &Network{directed: directed}
}

// WithCluster marks the network as a named labelled sub-graph.
func (n *Network) WithCluster(name, labelLoc string) *Network {
	n.name = name
	n.labelLoc = labelLoc
	return n
}

func (n *Network) elem() {}

// Append adds e unless an identical element is already present. Nodes are
// deduplicated by id, nested networks by reference identity.
func (n *Network) Append(e Elem) {
	if n.index(e) < 0 {
		n.elems = append(n.elems, e)
	}
}

// Link appends both elements if needed and records the edge between them.
func (n *Network) Link(a, b Elem) {
	n.Append(a)
	n.Append(b)
	edge := [2]int{n.index(a), n.index(b)}
	for _, e := range n.edges {
		if e == edge {
			return
		}
	}
	n.edges = append(n.edges, edge)
}

func (n *Network) index(e Elem) int {
	for i, have := range n.elems {
		if sameElem(have, e) {
			return i
		}
	}
	return -1
}

func sameElem(a, b Elem) bool {
	an, aok := a.(Node)
	bn, bok := b.(Node)
	if aok && bok {
		return an.ID == bn.ID
	}
	if !aok && !bok {
		return a == b
	}
	return false
}

// Elems returns the elements in insertion order.
func (n *Network) Elems() []Elem {
	return n.elems
}

// Edges returns the recorded element-index pairs.
func (n *Network) Edges() [][2]int {
	return n.edges
}

// Directed reports whether the network chains its elements.
func (n *Network) Directed() bool {
	return n.directed
}

// Name returns the cluster name, empty for anonymous groups.
func (n *Network) Name() string {
	return n.name
}

// LabelLoc returns the cluster label-placement hint.
func (n *Network) LabelLoc() string {
	return n.labelLoc
}

// key is the stable structural key used to cache sub-cluster emission.
func (n *Network) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "net(directed=%t,name=%q,[", n.directed, n.name)
	for i, e := range n.elems {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(e.key())
	}
	b.WriteString("],edges=")
	fmt.Fprintf(&b, "%v)", n.edges)
	return b.String()
}

// describe identifies the network in error messages.
func (n *Network) describe() string {
	if n.name != "" {
		return fmt.Sprintf("cluster %q", n.name)
	}
	kind := "union"
	if n.directed {
		kind = "chain"
	}
	return fmt.Sprintf("%s of %d elements", kind, len(n.elems))
}
