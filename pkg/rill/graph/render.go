package graph

import "fmt"

// Renderer is the minimal surface a drawing backend must provide.
type Renderer interface {
	AddNode(id, label string)
	AddEdge(fromID, toID string)
	// Cluster declares a named labelled sub-graph and returns the renderer
	// its content is drawn into.
	Cluster(name, labelLoc string) Renderer
}

// Render walks the network into r. Leaf nodes are declared where they
// live: named nested networks open a cluster, anonymous ones flatten into
// their parent. Edges between nested networks resolve to leaf endpoints —
// a directed network connects through its first/last element, an
// undirected one through every element. Sub-structure emission is cached
// by structural key so an identical sub-network is drawn only once.
func (n *Network) Render(r Renderer) error {
	if len(n.elems) == 0 {
		return fmt.Errorf("graph: rendering %s: no elements", n.describe())
	}
	return n.render(r, map[string]struct{}{})
}

func (n *Network) render(r Renderer, drawn map[string]struct{}) error {
	for _, e := range n.elems {
		switch v := e.(type) {
		case Node:
			r.AddNode(v.ID, v.Label)
		case *Network:
			key := v.key()
			if _, ok := drawn[key]; ok {
				continue
			}
			drawn[key] = struct{}{}

			target := r
			if v.name != "" {
				target = r.Cluster(v.name, v.labelLoc)
			}
			if len(v.elems) == 0 {
				return fmt.Errorf("graph: rendering %s: no elements", v.describe())
			}
			if err := v.render(target, drawn); err != nil {
				return err
			}
		}
	}

	for _, edge := range n.edges {
		srcs, err := outEndpoints(n.elems[edge[0]])
		if err != nil {
			return err
		}
		dsts, err := inEndpoints(n.elems[edge[1]])
		if err != nil {
			return err
		}
		for _, a := range srcs {
			for _, b := range dsts {
				r.AddEdge(a, b)
			}
		}
	}
	return nil
}

// outEndpoints resolves the leaf ids an edge leaving e connects from.
func outEndpoints(e Elem) ([]string, error) {
	switch v := e.(type) {
	case Node:
		return []string{v.ID}, nil
	case *Network:
		if len(v.elems) == 0 {
			return nil, fmt.Errorf("graph: linking %s: no elements", v.describe())
		}
		if v.directed {
			return outEndpoints(v.elems[len(v.elems)-1])
		}
		var ids []string
		for _, part := range v.elems {
			sub, err := outEndpoints(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, sub...)
		}
		return ids, nil
	}
	return nil, fmt.Errorf("graph: unknown element %T", e)
}

// inEndpoints resolves the leaf ids an edge entering e connects to.
func inEndpoints(e Elem) ([]string, error) {
	switch v := e.(type) {
	case Node:
		return []string{v.ID}, nil
	case *Network:
		if len(v.elems) == 0 {
			return nil, fmt.Errorf("graph: linking %s: no elements", v.describe())
		}
		if v.directed {
			return inEndpoints(v.elems[0])
		}
		var ids []string
		for _, part := range v.elems {
			sub, err := inEndpoints(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, sub...)
		}
		return ids, nil
	}
	return nil, fmt.Errorf("graph: unknown element %T", e)
}
