package workflow

import (
	"github.com/weaveai/weave/errs"
)

// Graph is a validated, immutable workflow definition: nodes, edges, and a
// start node, topologically ordered at construction time.
type Graph struct {
	nodes map[string]*Node
	order []string
	pred  map[string][]string
	start string
}

// NewGraph validates structure — unique names, edges resolve, start exists,
// no cycles — and returns a ready-to-execute Graph. Every violation is a
// CONFIG_ERROR, since these are build-time authoring mistakes, never a
// runtime condition.
func NewGraph(nodes []*Node, edges []Edge, start string) (*Graph, error) {
	byName := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		if n.Name == "" {
			return nil, errs.Wrapf(errs.ConfigError, "workflow.NewGraph", "node has empty name")
		}
		if _, dup := byName[n.Name]; dup {
			return nil, errs.Wrapf(errs.ConfigError, "workflow.NewGraph", "duplicate node name %q", n.Name)
		}
		byName[n.Name] = n
	}

	if _, ok := byName[start]; !ok {
		return nil, errs.Wrapf(errs.ConfigError, "workflow.NewGraph", "start node %q not found", start)
	}

	succ := make(map[string][]string, len(nodes))
	pred := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if _, ok := byName[e.From]; !ok {
			return nil, errs.Wrapf(errs.ConfigError, "workflow.NewGraph", "edge references unknown node %q", e.From)
		}
		if _, ok := byName[e.To]; !ok {
			return nil, errs.Wrapf(errs.ConfigError, "workflow.NewGraph", "edge references unknown node %q", e.To)
		}
		succ[e.From] = append(succ[e.From], e.To)
		pred[e.To] = append(pred[e.To], e.From)
	}

	order, err := topoSort(byName, succ)
	if err != nil {
		return nil, err
	}

	return &Graph{nodes: byName, order: order, pred: pred, start: start}, nil
}

// topoSort runs Kahn's algorithm; a node count mismatch at the end means a
// cycle survived the edge set, which is invalid (loop/parallel constructs
// elaborate privately inside a single node and never appear as DAG edges).
func topoSort(nodes map[string]*Node, succ map[string][]string) ([]string, error) {
	indeg := make(map[string]int, len(nodes))
	for name := range nodes {
		indeg[name] = 0
	}
	for _, outs := range succ {
		for _, to := range outs {
			indeg[to]++
		}
	}

	var queue []string
	for name, d := range indeg {
		if d == 0 {
			queue = append(queue, name)
		}
	}

	var order []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, to := range succ[n] {
			indeg[to]--
			if indeg[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, errs.Wrapf(errs.ConfigError, "workflow.NewGraph", "cycle detected among workflow nodes")
	}
	return order, nil
}
