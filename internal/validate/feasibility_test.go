package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskalign/scheduler-core/internal/domain"
)

func TestCheckFeasibility_Passes(t *testing.T) {
	n, err := ValidateAndNormalize(baseRequest())
	require.NoError(t, err)
	assert.NoError(t, CheckFeasibility(n))
}

func TestCheckFeasibility_MoldAdmittedByNoMachine(t *testing.T) {
	req := baseRequest()
	req.Machines[0].TonnageT = 10 // below the mold's 150T requirement

	n, err := ValidateAndNormalize(req)
	require.NoError(t, err)

	err = CheckFeasibility(n)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInfeasible)
}

func TestCheckFeasibility_GroupMismatchIsInfeasible(t *testing.T) {
	req := baseRequest()
	req.Machines[0].Group = domain.GroupLarge // mold is medium

	n, err := ValidateAndNormalize(req)
	require.NoError(t, err)

	err = CheckFeasibility(n)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInfeasible)
}
