package compose

import (
	"fmt"
	"strconv"

	"github.com/rill-ml/rill/pkg/rill"
	"github.com/rill-ml/rill/pkg/rill/graph"
)

// idAlloc hands out leaf node ids in first-visit order, so two distinct
// stages sharing a label never merge into one node.
type idAlloc struct {
	n int
}

func (a *idAlloc) next() string {
	id := "n" + strconv.Itoa(a.n)
	a.n++
	return id
}

// Graph translates the nested stage structure into a fresh render graph,
// without touching any data. The graph starts at a synthetic input node and
// ends at a synthetic output node, linked through each top-level stage in
// order.
func (p *Pipeline) Graph() (*graph.Network, error) {
	ids := &idAlloc{}
	net := graph.NewNetwork(true)

	var prev graph.Elem = graph.Node{ID: "input", Label: "input"}
	for _, st := range p.reg.Steps() {
		cur, err := networkify(ids, st.Stage)
		if err != nil {
			return nil, err
		}
		net.Link(prev, cur)
		prev = cur
	}
	net.Link(prev, graph.Node{ID: "output", Label: "output"})
	return net, nil
}

// Draw builds the render graph and walks it into r.
func (p *Pipeline) Draw(r graph.Renderer) error {
	net, err := p.Graph()
	if err != nil {
		return err
	}
	return net.Render(r)
}

// networkify recursively converts one stage into a graph element: a union
// becomes an undirected sibling group, a nested sequence a directed chain,
// a wrapper a named cluster around its inner stage, and any other stage a
// labelled leaf.
func networkify(ids *idAlloc, s rill.Stage) (graph.Elem, error) {
	switch v := s.(type) {
	case rill.Union:
		net := graph.NewNetwork(false)
		for _, br := range v.Branches() {
			e, err := networkify(ids, br.Stage)
			if err != nil {
				return nil, err
			}
			net.Append(e)
		}
		return net, nil

	case rill.Sequence:
		net := graph.NewNetwork(true)
		var prev graph.Elem
		for _, st := range v.Steps() {
			cur, err := networkify(ids, st.Stage)
			if err != nil {
				return nil, err
			}
			if prev == nil {
				net.Append(cur)
			} else {
				net.Link(prev, cur)
			}
			prev = cur
		}
		return net, nil

	case rill.Wrapper:
		inner := v.Inner()
		if rill.IsNil(inner) {
			return nil, fmt.Errorf("rill: drawing wrapper %q: no inner stage", s.Label())
		}
		e, err := networkify(ids, inner)
		if err != nil {
			return nil, err
		}
		net := graph.NewNetwork(true).WithCluster(typeName(s), v.LabelLoc())
		net.Append(e)
		return net, nil

	default:
		return graph.Node{ID: ids.next(), Label: s.Label()}, nil
	}
}
