package domain

import "time"

// MachineTemplate is a saved, named machine+mold roster a planner can
// reuse across schedule requests instead of resending the full fleet
// every month.
type MachineTemplate struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Machines    []Machine `json:"machines"`
	Molds       []Mold    `json:"molds"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}
