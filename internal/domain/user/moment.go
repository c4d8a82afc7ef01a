package user

import "time"

// Moment is a temporal value read from the store.
// Older documents may carry a plain string instead of a native date; Raw keeps it verbatim,
// empty strings included.
type Moment struct {
	Time     time.Time
	Raw      string
	IsString bool
}

// At returns a Moment holding a native time value.
func At(t time.Time) Moment {
	return Moment{Time: t}
}

// Legacy returns a Moment holding a plain string value.
func Legacy(raw string) Moment {
	return Moment{Raw: raw, IsString: true}
}

// IsZero reports whether the moment carries no stored value at all.
func (m Moment) IsZero() bool {
	return !m.IsString && m.Time.IsZero()
}

// Format renders native values in UTC with layout; legacy strings are returned unchanged.
func (m Moment) Format(layout string) string {
	if m.IsString {
		return m.Raw
	}
	return m.Time.UTC().Format(layout)
}
