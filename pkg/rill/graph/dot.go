package graph

import "github.com/emicklei/dot"

// DotRenderer draws a render graph through github.com/emicklei/dot,
// producing graphviz DOT text.
type DotRenderer struct {
	g *dot.Graph
}

// NewDotRenderer returns a renderer backed by a fresh directed DOT graph.
func NewDotRenderer() *DotRenderer {
	return &DotRenderer{g: dot.NewGraph(dot.Directed)}
}

// Graph exposes the underlying DOT graph.
func (r *DotRenderer) Graph() *dot.Graph {
	return r.g
}

// String returns the DOT source.
func (r *DotRenderer) String() string {
	return r.g.String()
}

func (r *DotRenderer) AddNode(id, label string) {
	r.g.Node(id).Attr("label", label)
}

func (r *DotRenderer) AddEdge(fromID, toID string) {
	// Endpoints may live in a nested cluster, so resolve them recursively
	// before falling back to node creation.
	from, ok := r.g.FindNodeById(fromID)
	if !ok {
		from = r.g.Node(fromID)
	}
	to, ok := r.g.FindNodeById(toID)
	if !ok {
		to = r.g.Node(toID)
	}
	r.g.Edge(from, to)
}

func (r *DotRenderer) Cluster(name, labelLoc string) Renderer {
	sub := r.g.Subgraph(name, dot.ClusterOption{})
	if labelLoc != "" {
		sub.Attr("labelloc", labelLoc)
	}
	return &DotRenderer{g: sub}
}
