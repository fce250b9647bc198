package domain

// MachineGroup is the tonnage class a machine and the molds it can hold
// belong to. A mold only ever runs on a machine of the same group.
type MachineGroup string

const (
	GroupSmall  MachineGroup = "small"
	GroupMedium MachineGroup = "medium"
	GroupLarge  MachineGroup = "large"
)

// Machine is an injection-molding press on the shop floor.
type Machine struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Group         MachineGroup `json:"group"`
	TonnageT      float64      `json:"tonnage"`
	HoursPerDay   float64      `json:"hoursPerDay"`
	Efficiency    float64      `json:"efficiency"`
}

// Capacity returns the effective daily production capacity in hours.
func (m Machine) Capacity() float64 {
	return m.HoursPerDay * m.Efficiency
}

// Admits reports whether the machine can physically hold the mold.
func (m Machine) Admits(mold Mold) bool {
	return m.Group == mold.Group && mold.TonnageT <= m.TonnageT
}
