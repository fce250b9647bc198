package scheduler

import (
	"context"
	"time"

	"github.com/taskalign/scheduler-core/internal/domain"
	"github.com/taskalign/scheduler-core/internal/validate"
)

// Scheduler is the stateless entry point into the core: validate,
// derive prerequisite structure, run the GA, decode the winner. It
// holds no request-specific state between calls and does no I/O,
// per spec.md §5.
type Scheduler struct {
	params Parameters
}

// New builds a Scheduler with the given default GA parameters.
// pop_size/n_generations/mutation_rate always come from each request,
// replacing whatever params holds for them; the remaining knobs
// (elitism, tournament size) come from params.
func New(params Parameters) *Scheduler {
	return &Scheduler{params: params}
}

// Schedule runs the full pipeline of spec.md §4: validate and
// normalize, derive the prerequisite DAG, search permutations with the
// GA, and decode the best one into a concrete timeline.
func (s *Scheduler) Schedule(ctx context.Context, req domain.ScheduleRequest) (Result, error) {
	norm, err := validate.ValidateAndNormalize(req)
	if err != nil {
		return Result{}, err
	}
	if err := validate.CheckFeasibility(norm); err != nil {
		return Result{}, err
	}

	ci := buildComponentIndex(norm)

	params := s.params
	params.PopSize = norm.PopSize
	params.NGenerations = norm.NGenerations
	params.MutationRate = norm.MutationRate

	if norm.TimeBudgetSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(norm.TimeBudgetSeconds*float64(time.Second)))
		defer cancel()
	}

	g := newGA(norm, ci, params)
	_, out, sc, partial, err := g.run(ctx)
	if err != nil {
		return Result{}, err
	}

	sortAssignments(out.assignments)

	return Result{
		Assignments: out.assignments,
		Unmet:       out.unmet,
		Score:       sc,
		Partial:     partial,
	}, nil
}
