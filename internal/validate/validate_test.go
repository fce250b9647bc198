package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskalign/scheduler-core/internal/domain"
)

func baseRequest() domain.ScheduleRequest {
	return domain.ScheduleRequest{
		MonthDays:            30,
		MoldChangeTimeHours:  2,
		ColorChangeTimeHours: 1,
		PopSize:              10,
		NGenerations:         5,
		MutationRate:         0.1,
		Machines: []domain.Machine{
			{ID: "m1", Name: "Press 1", Group: domain.GroupMedium, TonnageT: 200, HoursPerDay: 20, Efficiency: 1},
		},
		Molds: []domain.Mold{
			{ID: "mold-a", Name: "Mold A", Group: domain.GroupMedium, TonnageT: 150},
		},
		Components: []domain.Component{
			{ID: "c1", Name: "Widget", MoldID: "mold-a", Color: "red", CycleTimeSec: 30, Quantity: 100, DueDay: 20},
		},
	}
}

func TestValidateAndNormalize_Valid(t *testing.T) {
	n, err := ValidateAndNormalize(baseRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, n.TopoOrder)
	assert.Contains(t, n.MachineByID, "m1")
	assert.Contains(t, n.AdmittingMachines["mold-a"], n.MachineByID["m1"])
}

func TestValidateAndNormalize_DuplicateComponentID(t *testing.T) {
	req := baseRequest()
	req.Components = append(req.Components, req.Components[0])

	_, err := ValidateAndNormalize(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidateAndNormalize_UnknownMold(t *testing.T) {
	req := baseRequest()
	req.Components[0].MoldID = "does-not-exist"

	_, err := ValidateAndNormalize(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidateAndNormalize_UnknownPrerequisite(t *testing.T) {
	req := baseRequest()
	req.Components[0].Prerequisites = []string{"ghost"}

	_, err := ValidateAndNormalize(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidateAndNormalize_SelfPrerequisite(t *testing.T) {
	req := baseRequest()
	req.Components[0].Prerequisites = []string{"c1"}

	_, err := ValidateAndNormalize(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidateAndNormalize_Cycle(t *testing.T) {
	req := baseRequest()
	req.Components = []domain.Component{
		{ID: "a", MoldID: "mold-a", Color: "red", CycleTimeSec: 30, Quantity: 1, DueDay: 5, Prerequisites: []string{"b"}},
		{ID: "b", MoldID: "mold-a", Color: "red", CycleTimeSec: 30, Quantity: 1, DueDay: 5, Prerequisites: []string{"a"}},
	}

	_, err := ValidateAndNormalize(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidateAndNormalize_RejectsBadNumericFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ScheduleRequest)
	}{
		{"month_days zero", func(r *domain.ScheduleRequest) { r.MonthDays = 0 }},
		{"negative mold change time", func(r *domain.ScheduleRequest) { r.MoldChangeTimeHours = -1 }},
		{"pop_size too small", func(r *domain.ScheduleRequest) { r.PopSize = 1 }},
		{"n_generations zero", func(r *domain.ScheduleRequest) { r.NGenerations = 0 }},
		{"mutation_rate out of range", func(r *domain.ScheduleRequest) { r.MutationRate = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)

			_, err := ValidateAndNormalize(req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestValidateAndNormalize_DefaultsWeightsAndSeed(t *testing.T) {
	n, err := ValidateAndNormalize(baseRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultWeights(), n.Weights)
	assert.Zero(t, n.Seed)
}

func TestValidateAndNormalize_HonorsExplicitSeedAndWeights(t *testing.T) {
	req := baseRequest()
	seed := int64(42)
	weights := domain.Weights{Unmet: 1, Tardy: 2, Setup: 3, Wait: 4}
	req.Seed = &seed
	req.Weights = &weights

	n, err := ValidateAndNormalize(req)
	require.NoError(t, err)
	assert.Equal(t, seed, n.Seed)
	assert.Equal(t, weights, n.Weights)
}
