package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskalign/scheduler-core/internal/domain"
	"github.com/taskalign/scheduler-core/internal/validate"
)

func normForFitness(weights domain.Weights) *validate.Normalized {
	return &validate.Normalized{
		Weights: weights,
		ComponentByID: map[string]domain.Component{
			"c1": {ID: "c1", DueDay: 5, Quantity: 3},
		},
	}
}

func TestScore_UnmetDominatesOtherTerms(t *testing.T) {
	weights := domain.DefaultWeights()
	n := normForFitness(weights)

	withUnmet := score(n, decodeOutput{unmet: map[string]int{"c1": 3}})
	withoutUnmet := score(n, decodeOutput{})

	assert.Greater(t, withUnmet, withoutUnmet)
	assert.Equal(t, weights.Unmet*3, withUnmet)
}

func TestScore_TardinessOnlyForFinishedComponents(t *testing.T) {
	weights := domain.DefaultWeights()
	n := normForFitness(weights)

	// c1 is due day 5, finishes day 8: 3 days late x 3 pieces.
	out := decodeOutput{finish: map[string]dayHour{"c1": {day: 8, hour: 2}}}
	got := score(n, out)
	assert.Equal(t, weights.Tardy*3*3, got)
}

func TestScore_NoTardinessWhenOnTimeOrEarly(t *testing.T) {
	weights := domain.DefaultWeights()
	n := normForFitness(weights)

	out := decodeOutput{finish: map[string]dayHour{"c1": {day: 5, hour: 2}}}
	assert.Zero(t, score(n, out))

	out = decodeOutput{finish: map[string]dayHour{"c1": {day: 2, hour: 0}}}
	assert.Zero(t, score(n, out))
}

func TestScore_SetupCountsMoldAndColorChanges(t *testing.T) {
	weights := domain.Weights{Setup: 1}
	n := &validate.Normalized{
		Weights:              weights,
		MoldChangeTimeHours:  2,
		ColorChangeTimeHours: 1,
		ComponentByID:        map[string]domain.Component{},
	}

	out := decodeOutput{assignments: []domain.Assignment{
		{TaskType: domain.TaskChangeMold},
		{TaskType: domain.TaskChangeColor},
		{TaskType: domain.TaskProduce},
	}}

	assert.Equal(t, 3.0, score(n, out))
}

func TestScore_WaitHoursWeighted(t *testing.T) {
	weights := domain.Weights{Wait: 0.5}
	n := normForFitness(weights)

	out := decodeOutput{waitHoursTotal: 4}
	assert.Equal(t, 2.0, score(n, out))
}
