package user

import (
	"time"

	domain "user-crud-service/internal/domain/user"
)

// toResponse shapes a stored user for the API. Dates render as YYYY-MM-DD, timestamps as
// RFC 3339 in UTC; legacy string values pass through and a temporal field with no stored
// value renders as null.
func toResponse(u *domain.User) *User {
	resp := &User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		BirthDate: render(u.BirthDate, time.DateOnly),
		City:      u.City,
		CreatedAt: render(u.CreatedAt, time.RFC3339Nano),
	}

	if u.UpdatedAt != nil {
		resp.UpdatedAt = render(*u.UpdatedAt, time.RFC3339Nano)
	}

	return resp
}

func render(m domain.Moment, layout string) *string {
	if m.IsZero() {
		return nil
	}
	s := m.Format(layout)
	return &s
}

func toResponses(users []domain.User) []User {
	out := make([]User, len(users))
	for i := range users {
		out[i] = *toResponse(&users[i])
	}
	return out
}
