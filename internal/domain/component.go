package domain

// Component is a demand line: a quantity of a single molded part, in a
// single color, due by a given day, optionally gated on other
// components having finished first.
type Component struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	MoldID         string   `json:"moldID"`
	Color          string   `json:"color"`
	CycleTimeSec   float64  `json:"cycleTimeSec"`
	Quantity       int      `json:"quantity"`
	DueDay         int      `json:"dueDay"`
	LeadTimeDays   int      `json:"leadTimeDays"`
	Prerequisites  []string `json:"prerequisites"`
}

// CycleHours is the per-piece production time in hours.
func (c Component) CycleHours() float64 {
	return c.CycleTimeSec / 3600.0
}

// RequiredFinishDay is DueDay minus LeadTimeDays, per spec.md §4.2. The
// scheduler's tardiness score is measured against DueDay, not this day.
func (c Component) RequiredFinishDay() int {
	return c.DueDay - c.LeadTimeDays
}
