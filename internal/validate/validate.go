// Package validate implements the domain validator and referential
// integrity checks of spec.md §4.1: it turns a raw ScheduleRequest into
// a Normalized view with precomputed lookup tables and a topological
// ordering of components, or fails fast with the first offending item.
package validate

import (
	"fmt"
	"sort"

	"github.com/taskalign/scheduler-core/internal/domain"
)

// Normalized is the validator's output: everything downstream code
// (the prerequisite engine, the decoder, the GA driver) needs, with
// referential integrity already established.
type Normalized struct {
	MonthDays            int
	MoldChangeTimeHours  float64
	ColorChangeTimeHours float64

	Machines   []domain.Machine
	Molds      []domain.Mold
	Components []domain.Component

	MachineByID   map[string]domain.Machine
	MoldByID      map[string]domain.Mold
	ComponentByID map[string]domain.Component

	// AdmittingMachines maps a mold ID to the machines that admit it,
	// sorted by ascending tonnage then ascending machine ID.
	AdmittingMachines map[string][]domain.Machine

	// TopoOrder lists component IDs in a topological order over the
	// prerequisite DAG: Kahn's algorithm, ties broken by ascending
	// due_day then ascending id.
	TopoOrder []string

	PopSize      int
	NGenerations int
	MutationRate float64
	Weights      domain.Weights
	Seed         int64
	TimeBudgetSeconds float64
}

// ValidateAndNormalize performs every VALIDATION_ERROR check of
// spec.md §4.1 and, if they all pass, returns the normalized view.
func ValidateAndNormalize(req domain.ScheduleRequest) (*Normalized, error) {
	if req.MonthDays < 1 {
		return nil, fail("month_days must be >= 1, got %d", req.MonthDays)
	}
	if req.MoldChangeTimeHours < 0 {
		return nil, fail("mold_change_time_hours must be >= 0, got %v", req.MoldChangeTimeHours)
	}
	if req.ColorChangeTimeHours < 0 {
		return nil, fail("color_change_time_hours must be >= 0, got %v", req.ColorChangeTimeHours)
	}
	if req.PopSize < 2 {
		return nil, fail("pop_size must be >= 2, got %d", req.PopSize)
	}
	if req.NGenerations < 1 {
		return nil, fail("n_generations must be >= 1, got %d", req.NGenerations)
	}
	if req.MutationRate < 0 || req.MutationRate > 1 {
		return nil, fail("mutation_rate must be in [0,1], got %v", req.MutationRate)
	}

	machineByID, err := validateMachines(req.Machines)
	if err != nil {
		return nil, err
	}
	moldByID, err := validateMolds(req.Molds)
	if err != nil {
		return nil, err
	}
	componentByID, err := validateComponents(req.Components, moldByID)
	if err != nil {
		return nil, err
	}

	if err := detectCycle(req.Components); err != nil {
		return nil, err
	}

	topoOrder, err := topologicalOrder(req.Components, componentByID)
	if err != nil {
		return nil, err
	}

	weights := domain.DefaultWeights()
	if req.Weights != nil {
		weights = *req.Weights
	}
	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	}
	var timeBudget float64
	if req.TimeBudgetSeconds != nil {
		timeBudget = *req.TimeBudgetSeconds
	}

	n := &Normalized{
		MonthDays:            req.MonthDays,
		MoldChangeTimeHours:  req.MoldChangeTimeHours,
		ColorChangeTimeHours: req.ColorChangeTimeHours,
		Machines:             req.Machines,
		Molds:                req.Molds,
		Components:           req.Components,
		MachineByID:          machineByID,
		MoldByID:             moldByID,
		ComponentByID:        componentByID,
		AdmittingMachines:    admittingMachinesByMold(req.Machines, req.Molds),
		TopoOrder:            topoOrder,
		PopSize:              req.PopSize,
		NGenerations:         req.NGenerations,
		MutationRate:         req.MutationRate,
		Weights:              weights,
		Seed:                 seed,
		TimeBudgetSeconds:    timeBudget,
	}

	return n, nil
}

func fail(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...)
}

func validateMachines(machines []domain.Machine) (map[string]domain.Machine, error) {
	byID := make(map[string]domain.Machine, len(machines))
	for _, m := range machines {
		if m.ID == "" {
			return nil, fail("machine has empty id")
		}
		if _, dup := byID[m.ID]; dup {
			return nil, fail("duplicate machine id %q", m.ID)
		}
		if m.Group != domain.GroupSmall && m.Group != domain.GroupMedium && m.Group != domain.GroupLarge {
			return nil, fail("machine %q has invalid group %q", m.ID, m.Group)
		}
		if m.TonnageT <= 0 {
			return nil, fail("machine %q tonnage must be > 0", m.ID)
		}
		if m.HoursPerDay <= 0 {
			return nil, fail("machine %q hours_per_day must be > 0", m.ID)
		}
		if m.Efficiency <= 0 || m.Efficiency > 1.5 {
			return nil, fail("machine %q efficiency must be in (0, 1.5]", m.ID)
		}
		byID[m.ID] = m
	}
	return byID, nil
}

func validateMolds(molds []domain.Mold) (map[string]domain.Mold, error) {
	byID := make(map[string]domain.Mold, len(molds))
	for _, mo := range molds {
		if mo.ID == "" {
			return nil, fail("mold has empty id")
		}
		if _, dup := byID[mo.ID]; dup {
			return nil, fail("duplicate mold id %q", mo.ID)
		}
		if mo.Group != domain.GroupSmall && mo.Group != domain.GroupMedium && mo.Group != domain.GroupLarge {
			return nil, fail("mold %q has invalid group %q", mo.ID, mo.Group)
		}
		if mo.TonnageT <= 0 {
			return nil, fail("mold %q tonnage must be > 0", mo.ID)
		}
		byID[mo.ID] = mo
	}
	return byID, nil
}

func validateComponents(components []domain.Component, moldByID map[string]domain.Mold) (map[string]domain.Component, error) {
	byID := make(map[string]domain.Component, len(components))
	for _, c := range components {
		if c.ID == "" {
			return nil, fail("component has empty id")
		}
		if _, dup := byID[c.ID]; dup {
			return nil, fail("duplicate component id %q", c.ID)
		}
		if _, ok := moldByID[c.MoldID]; !ok {
			return nil, fail("component %q references unknown mold %q", c.ID, c.MoldID)
		}
		if c.CycleTimeSec <= 0 {
			return nil, fail("component %q cycle_time_sec must be > 0", c.ID)
		}
		if c.Quantity <= 0 {
			return nil, fail("component %q quantity must be > 0", c.ID)
		}
		if c.DueDay < 1 {
			return nil, fail("component %q due_day must be >= 1", c.ID)
		}
		if c.LeadTimeDays < 0 {
			return nil, fail("component %q lead_time_days must be >= 0", c.ID)
		}
		for _, p := range c.Prerequisites {
			if p == c.ID {
				return nil, fail("component %q lists itself as a prerequisite", c.ID)
			}
		}
		byID[c.ID] = c
	}
	// Second pass: prerequisite ids must resolve, now that byID is complete.
	for _, c := range components {
		for _, p := range c.Prerequisites {
			if _, ok := byID[p]; !ok {
				return nil, fail("component %q references unknown prerequisite %q", c.ID, p)
			}
		}
	}
	return byID, nil
}

func admittingMachinesByMold(machines []domain.Machine, molds []domain.Mold) map[string][]domain.Machine {
	result := make(map[string][]domain.Machine, len(molds))
	for _, mo := range molds {
		var admitting []domain.Machine
		for _, m := range machines {
			if m.Admits(mo) {
				admitting = append(admitting, m)
			}
		}
		sort.Slice(admitting, func(i, j int) bool {
			if admitting[i].TonnageT != admitting[j].TonnageT {
				return admitting[i].TonnageT < admitting[j].TonnageT
			}
			return admitting[i].ID < admitting[j].ID
		})
		result[mo.ID] = admitting
	}
	return result
}
