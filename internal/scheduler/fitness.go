package scheduler

import "github.com/taskalign/scheduler-core/internal/validate"

// score implements spec.md §4.4's weighted sum over a decoded
// schedule. Lower is better. Tardiness only accrues for a component
// that actually finished — a component left fully unmet already pays
// the (much larger) unmet penalty, and has no finish day to be tardy
// against.
func score(norm *validate.Normalized, out decodeOutput) float64 {
	w := norm.Weights

	var unmetTotal int
	for _, r := range out.unmet {
		unmetTotal += r
	}

	var tardy float64
	for id, fh := range out.finish {
		c := norm.ComponentByID[id]
		if d := fh.day - c.DueDay; d > 0 {
			tardy += float64(d) * float64(c.Quantity)
		}
	}

	setupHours := 0.0
	for _, a := range out.assignments {
		switch a.TaskType {
		case "CHANGE_MOLD":
			setupHours += norm.MoldChangeTimeHours
		case "CHANGE_COLOR":
			setupHours += norm.ColorChangeTimeHours
		}
	}

	return w.Unmet*float64(unmetTotal) +
		w.Setup*setupHours +
		w.Tardy*tardy +
		w.Wait*out.waitHoursTotal
}
