package user

import "time"

const (
	// DefaultLimit is the page size used when a list request does not set one.
	DefaultLimit int64 = 100
	// MaxLimit is the largest page size a list request may ask for.
	MaxLimit int64 = 1000
)

// CreateUserRequest represents the request payload for creating a new user.
// Every field is required.
type CreateUserRequest struct {
	Name      string `json:"name" validate:"notblank,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	BirthDate string `json:"birth_date" validate:"required,datetime=2006-01-02,notfuture"`
	City      string `json:"city" validate:"notblank,min=2,max=100"`
}

// UpdateUserRequest represents a partial update. Nil fields are left untouched;
// present fields obey the same rules as CreateUserRequest.
type UpdateUserRequest struct {
	ID        string  `json:"-"`
	Name      *string `json:"name" validate:"omitnil,notblank,min=2,max=100"`
	Email     *string `json:"email" validate:"omitnil,email"`
	BirthDate *string `json:"birth_date" validate:"omitnil,datetime=2006-01-02,notfuture"`
	City      *string `json:"city" validate:"omitnil,notblank,min=2,max=100"`
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID string
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID string
}

// DeleteUserResponse acknowledges a successful deletion.
type DeleteUserResponse struct {
	ID      string `json:"-"`
	Message string `json:"message"`
}

// ListUsersRequest represents an offset/limit page request.
type ListUsersRequest struct {
	Skip  int64 `json:"skip" validate:"min=0"`
	Limit int64 `json:"limit" validate:"min=1,max=1000"`
}

// SearchUsersRequest represents a case-insensitive substring search over name, email and city.
type SearchUsersRequest struct {
	Query string
	Skip  int64 `json:"skip" validate:"min=0"`
	Limit int64 `json:"limit" validate:"min=1,max=1000"`
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users []User
}

// User is the API-facing representation of a stored user.
type User struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	BirthDate *string `json:"birth_date"`
	City      string  `json:"city"`
	CreatedAt *string `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

// Event types published after successful writes.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event describes a completed write on a user.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
	User       *User     `json:"user,omitempty"`
}
