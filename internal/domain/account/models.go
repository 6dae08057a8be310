package account

import "time"

// Account is a portal login. Contractors submit timesheets, supervisors
// and admins approve them, employers get read access to their company's
// sheets.
type Account struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Role         string     `json:"role"`
	Company      string     `json:"company,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Active       bool       `json:"active"`
	MFAEnabled   bool       `json:"mfaEnabled"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	PasswordHash string     `json:"-"`
}

// CreateInput carries the fields an admin supplies when provisioning
// a new account.
type CreateInput struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}
