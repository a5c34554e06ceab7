package domain

import "time"

// User represents an authenticated account in the system.
type User struct {
	Record
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Name         string    `json:"name"`                    // Display name, free-form
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// CanLogIn returns true if the account may authenticate.
// Deactivated and soft-deleted accounts are locked out but their rows
// remain so owned recipes keep a valid author.
func (u *User) CanLogIn() bool {
	return u.IsActive && !u.IsDeleted()
}

// IsAdmin returns true if the user has administrative privileges.
// Superusers are automatically staff, regardless of the flag.
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// DisplayName returns the best available name for the user.
// Prefers Name, falls back to the email address.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
