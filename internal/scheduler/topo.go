package scheduler

import "github.com/taskalign/scheduler-core/internal/validate"

// buildComponentIndex assigns each component a stable integer index (in
// the validator's topological order, so index order is already a valid
// topo order) and computes its topological level: leaves are level 0,
// every other component is one more than the maximum level among its
// prerequisites, per spec.md §4.2.
func buildComponentIndex(n *validate.Normalized) *componentIndex {
	idOf := append([]string(nil), n.TopoOrder...)
	indexOfID := make(map[string]int, len(idOf))
	for i, id := range idOf {
		indexOfID[id] = i
	}

	levelOf := make([]int, len(idOf))
	for _, id := range idOf {
		i := indexOfID[id]
		c := n.ComponentByID[id]
		level := 0
		for _, p := range c.Prerequisites {
			pl := levelOf[indexOfID[p]] + 1
			if pl > level {
				level = pl
			}
		}
		levelOf[i] = level
	}

	return &componentIndex{
		norm:      n,
		idOf:      idOf,
		indexOfID: indexOfID,
		levelOf:   levelOf,
	}
}

// maxLevel returns the highest topological level present, or -1 if
// there are no components.
func (ci *componentIndex) maxLevel() int {
	max := -1
	for _, l := range ci.levelOf {
		if l > max {
			max = l
		}
	}
	return max
}
