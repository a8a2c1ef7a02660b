package models

import "time"

// Account roles.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Account is a login credential. Client accounts are bound to exactly one
// project; admin accounts see everything.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	ProjectID    string    `json:"project_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
