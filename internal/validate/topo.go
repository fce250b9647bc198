package validate

import (
	"sort"

	"github.com/taskalign/scheduler-core/internal/domain"
)

// detectCycle reports a VALIDATION_ERROR if the prerequisite graph is
// not a DAG, via Kahn's algorithm: if fewer nodes are ever dequeued
// than exist, a cycle remains among the undequeued nodes.
func detectCycle(components []domain.Component) error {
	inDegree := make(map[string]int, len(components))
	dependents := make(map[string][]string, len(components))
	for _, c := range components {
		if _, ok := inDegree[c.ID]; !ok {
			inDegree[c.ID] = 0
		}
		for _, p := range c.Prerequisites {
			inDegree[c.ID]++
			dependents[p] = append(dependents[p], c.ID)
		}
	}

	queue := make([]string, 0, len(components))
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		next := append([]string(nil), dependents[id]...)
		sort.Strings(next)
		for _, d := range next {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
		sort.Strings(queue)
	}

	if visited != len(inDegree) {
		return fail("component prerequisite graph contains a cycle")
	}
	return nil
}

// topologicalOrder computes a topological ordering over the
// prerequisite DAG using Kahn's algorithm, with ties among simultaneously
// available nodes broken by ascending due_day then ascending id, per
// spec.md §4.1.
func topologicalOrder(components []domain.Component, byID map[string]domain.Component) ([]string, error) {
	inDegree := make(map[string]int, len(components))
	dependents := make(map[string][]string, len(components))
	for _, c := range components {
		if _, ok := inDegree[c.ID]; !ok {
			inDegree[c.ID] = 0
		}
		for _, p := range c.Prerequisites {
			inDegree[c.ID]++
			dependents[p] = append(dependents[p], c.ID)
		}
	}

	ready := make([]string, 0, len(components))
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sortByDueDayThenID(ready, byID)

	order := make([]string, 0, len(components))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		newlyReady := make([]string, 0, len(dependents[id]))
		for _, d := range dependents[id] {
			inDegree[d]--
			if inDegree[d] == 0 {
				newlyReady = append(newlyReady, d)
			}
		}
		ready = append(ready, newlyReady...)
		sortByDueDayThenID(ready, byID)
	}

	if len(order) != len(components) {
		return nil, fail("component prerequisite graph contains a cycle")
	}
	return order, nil
}

func sortByDueDayThenID(ids []string, byID map[string]domain.Component) {
	sort.Slice(ids, func(i, j int) bool {
		ci, cj := byID[ids[i]], byID[ids[j]]
		if ci.DueDay != cj.DueDay {
			return ci.DueDay < cj.DueDay
		}
		return ci.ID < cj.ID
	})
}
