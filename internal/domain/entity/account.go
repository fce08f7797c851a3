package entity

import (
	"time"
)

// Account is the aggregate root for the account domain.
// Password holds a bcrypt hash, never the plain text.
//
// Exactly one of IsTeacher/IsStudent is true after any create or
// update that sets a role. Subjects is only meaningful for teachers.
type Account struct {
	ID             string
	Username       string
	Password       string
	Email          string
	FirstName      string
	LastName       string
	About          string
	ProfilePicture string
	IsTeacher      bool
	IsStudent      bool
	Subjects       []Subject
	DateJoined     time.Time
	UpdatedAt      time.Time
}

// SubjectNames returns the names of the attached subjects in stored order.
func (a *Account) SubjectNames() []string {
	names := make([]string, 0, len(a.Subjects))
	for _, s := range a.Subjects {
		names = append(names, s.Name)
	}
	return names
}
