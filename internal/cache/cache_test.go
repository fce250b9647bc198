package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskalign/scheduler-core/internal/domain"
)

func sampleRequest() domain.ScheduleRequest {
	return domain.ScheduleRequest{
		MonthDays:    30,
		PopSize:      10,
		NGenerations: 5,
		MutationRate: 0.1,
		Machines:     []domain.Machine{{ID: "m1"}},
		Molds:        []domain.Mold{{ID: "mold-a"}},
		Components:   []domain.Component{{ID: "c1"}},
	}
}

func TestKey_DeterministicForSameInputAndSeed(t *testing.T) {
	req := sampleRequest()

	k1, err := Key(req, 42)
	require.NoError(t, err)
	k2, err := Key(req, 42)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
}

func TestKey_DiffersOnDifferentSeed(t *testing.T) {
	req := sampleRequest()

	k1, err := Key(req, 1)
	require.NoError(t, err)
	k2, err := Key(req, 2)
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestKey_IgnoresMachineTemplateID(t *testing.T) {
	req := sampleRequest()
	id := int64(5)
	req.MachineTemplateID = &id

	withTemplate, err := Key(req, 1)
	require.NoError(t, err)

	req.MachineTemplateID = nil
	withoutTemplate, err := Key(req, 1)
	require.NoError(t, err)

	assert.Equal(t, withTemplate, withoutTemplate)
}

func TestKey_HasStablePrefix(t *testing.T) {
	k, err := Key(sampleRequest(), 1)
	require.NoError(t, err)
	assert.Regexp(t, `^schedule:[0-9a-f]{64}$`, k)
}
