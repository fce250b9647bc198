package domain

import "time"

type Role string

const (
	RolePlanner Role = "planner"
	RoleAdmin   Role = "admin"
)

// Planner is a human operator of the scheduling service.
type Planner struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
