// Package users holds owner records. There is no user-management surface
// here; the sales modules only read owners and accumulate their recorded
// sales on approval.
package users

import "time"

// Roles recognized by the capability gate.
const (
	RoleAdmin = "admin"
	RoleSales = "sales"
)

// User is an API actor and quote owner.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	TotalSell    float64   `json:"totalSell"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
