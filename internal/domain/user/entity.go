package user

import "time"

// User represents a user entity in the system.
type User struct {
	ID        string  // ID is the store-assigned identifier, immutable once set
	Name      string  // Name is the title-cased full name
	Email     string  // Email is unique across all users
	BirthDate Moment  // BirthDate is a calendar date, never in the future
	City      string  // City is the title-cased city of residence
	CreatedAt Moment  // CreatedAt is set once on creation
	UpdatedAt *Moment // UpdatedAt is set on every update, nil before the first one
}

// Patch holds the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Name      *string
	Email     *string
	BirthDate *time.Time
	City      *string
	UpdatedAt time.Time
}
