// Package scheduler implements the metaheuristic search and the
// deterministic decoder at the heart of the monthly production
// scheduler: a genetic algorithm over component priority permutations,
// feeding a greedy constructor that turns one permutation into a
// concrete, constraint-respecting timeline.
package scheduler

import (
	"github.com/taskalign/scheduler-core/internal/domain"
	"github.com/taskalign/scheduler-core/internal/validate"
)

// Genome is a permutation of component indices into
// componentIndex.idOf — the GA's chromosome, per spec.md §4.5. Integer
// indices are used instead of string ids so crossover and repair stay
// allocation-light.
type Genome []int

// clone returns an independent copy of g.
func (g Genome) clone() Genome {
	c := make(Genome, len(g))
	copy(c, g)
	return c
}

// Parameters are the GA driver's tuning knobs, spec.md §4.5 and §6.
type Parameters struct {
	PopSize      int
	NGenerations int
	MutationRate float64
	// EliteCount > 0 carries the single best genome of each generation
	// over unchanged; values above 1 still carry only that one genome.
	EliteCount   int
	TournamentK  int
}

// Result is what Scheduler.Schedule returns: the decoded schedule for
// the best genome found, its score, and whether the run was cut short
// by a time budget (spec.md §7, OVER_BUDGET).
type Result struct {
	Assignments []domain.Assignment
	Unmet       map[string]int
	Score       float64
	Partial     bool
}

// DefaultParameters returns the GA knobs that aren't part of a
// per-request ScheduleRequest: elitism count and tournament size.
// PopSize, NGenerations, and MutationRate are always taken from the
// normalized request in Scheduler.Schedule. TournamentK is 2, matching
// spec.md §4.5's binary tournament selection.
func DefaultParameters() Parameters {
	return Parameters{EliteCount: 1, TournamentK: 2}
}

// componentIndex resolves a normalized request's component list into
// the index-based representation the GA and decoder operate on.
type componentIndex struct {
	norm       *validate.Normalized
	idOf       []string       // index -> component id
	indexOfID  map[string]int // component id -> index
	levelOf    []int          // index -> topological level (spec.md §4.2)
}
