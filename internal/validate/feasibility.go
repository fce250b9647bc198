package validate

import (
	"fmt"

	"github.com/taskalign/scheduler-core/internal/domain"
)

// CheckFeasibility reports INFEASIBLE_INPUT when a mold admits no
// machine at all, or a component's mold cannot run on any machine,
// per spec.md §7. This is deliberately separate from
// ValidateAndNormalize: the request can be structurally well-formed
// (spec.md §4.1) and still be infeasible to schedule.
func CheckFeasibility(n *Normalized) error {
	for _, mo := range n.Molds {
		if len(n.AdmittingMachines[mo.ID]) == 0 {
			return fmt.Errorf("%w: mold %q is admitted by no machine", domain.ErrInfeasible, mo.ID)
		}
	}
	for _, c := range n.Components {
		if len(n.AdmittingMachines[c.MoldID]) == 0 {
			return fmt.Errorf("%w: component %q needs mold %q which no machine admits", domain.ErrInfeasible, c.ID, c.MoldID)
		}
	}
	return nil
}
