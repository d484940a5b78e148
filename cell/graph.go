package cell

import (
	"errors"
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/gammazero/deque"
)

func vertexHash(c *Cell) string {
	return c.Hash().String()
}

// TreeGraph builds directed acyclic graph of the cell tree, deduplicated by cell hash.
// It also returns vertex keys in breadth-first discovery order, root first
func TreeGraph(roots ...*Cell) (graph.Graph[string, *Cell], []string, error) {
	gr := graph.New(vertexHash, graph.Directed(), graph.Acyclic())
	order := make([]string, 0)

	queue := deque.New[*Cell]()
	for _, r := range roots {
		added, err := addVertex(gr, r)
		if err != nil {
			return nil, nil, err
		}
		if added {
			queue.PushBack(r)
			order = append(order, vertexHash(r))
		}
	}
	for queue.Len() > 0 {
		c := queue.PopFront()
		for i, r := range c.refs {
			added, err := addVertex(gr, r)
			if err != nil {
				return nil, nil, err
			}
			if added {
				queue.PushBack(r)
				order = append(order, vertexHash(r))
			}
			err = gr.AddEdge(vertexHash(c), vertexHash(r), graph.EdgeAttribute("label", fmt.Sprintf("%d", i)))
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, nil, err
			}
		}
	}
	return gr, order, nil
}

func addVertex(gr graph.Graph[string, *Cell], c *Cell) (bool, error) {
	label := fmt.Sprintf("%s\n%d bits, %d refs", c.Hash().StringShort(), c.BitsLen(), c.RefsLen())
	err := gr.AddVertex(c, graph.VertexAttribute("label", label), graph.VertexAttribute("shape", "box"))
	if errors.Is(err, graph.ErrVertexAlreadyExists) {
		return false, nil
	}
	return err == nil, err
}

// WriteDOT writes the cell tree in Graphviz DOT format
func WriteDOT(w io.Writer, root *Cell) error {
	gr, _, err := TreeGraph(root)
	if err != nil {
		return err
	}
	return draw.DOT(gr, w)
}
