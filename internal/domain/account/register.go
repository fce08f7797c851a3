package account

import (
	"regexp"
	"strings"

	"github.com/testskool/backend/internal/domain/entity"
)

// MinPasswordLen is the minimum accepted password length, for both
// registration and password change.
const MinPasswordLen = 8

// usernamePattern matches the allowed username charset: letters,
// numbers, and @ . + - _ characters.
var usernamePattern = regexp.MustCompile(`^[0-9A-Za-z@.+_-]+$`)

// RegisterInput is the parsed registration payload. Email is optional;
// when present it receives the welcome mail.
type RegisterInput struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Confirm   string    `json:"confirm"`
	Email     string    `json:"email"`
	IsTeacher BoolField `json:"is_teacher"`
	Subject   []string  `json:"subject"`
}

// RegisterFacts carries the lookups the rules need but cannot perform
// themselves: whether the username is taken and which of the requested
// subject names resolved to existing rows. The caller gathers them up
// front so the rules stay pure and every failure is reported in one
// pass.
type RegisterFacts struct {
	UsernameTaken    bool
	ResolvedSubjects []entity.Subject
}

type registerRule func(in RegisterInput, facts RegisterFacts, errs FieldErrors)

// registerRules is the ordered validation pipeline for registration.
var registerRules = []registerRule{
	checkUsername,
	checkPassword,
	checkConfirmation,
	checkRole,
	checkRegisterSubjects,
}

// ValidateRegister runs every registration rule and aggregates the
// failures. An empty result means the input may be persisted as-is.
func ValidateRegister(in RegisterInput, facts RegisterFacts) FieldErrors {
	errs := FieldErrors{}
	for _, rule := range registerRules {
		rule(in, facts, errs)
	}
	return errs
}

func checkUsername(in RegisterInput, facts RegisterFacts, errs FieldErrors) {
	switch {
	case strings.TrimSpace(in.Username) == "":
		errs.Add("username", Message(MissingUsername))
	case strings.Contains(in.Username, " "):
		errs.Add("username", Message(SpaceNotAllowed))
	case !usernamePattern.MatchString(in.Username):
		errs.Add("username", Message(InvalidUsername))
	case facts.UsernameTaken:
		errs.Add("username", Message(UsernameExists))
	}
}

func checkPassword(in RegisterInput, _ RegisterFacts, errs FieldErrors) {
	switch {
	case in.Password == "":
		errs.Add("password", Message(MissingPassword))
	case len(in.Password) < MinPasswordLen:
		errs.Add("password", Message(ShortPassword))
	}
}

func checkConfirmation(in RegisterInput, _ RegisterFacts, errs FieldErrors) {
	if in.Password != in.Confirm {
		errs.Add("confirm", Message(PasswordMismatch))
	}
}

func checkRole(in RegisterInput, _ RegisterFacts, errs FieldErrors) {
	if !in.IsTeacher.Present || !in.IsTeacher.Valid {
		errs.Add("is_teacher", Message(MissingRole))
	}
}

func checkRegisterSubjects(in RegisterInput, facts RegisterFacts, errs FieldErrors) {
	if !in.IsTeacher.Present || !in.IsTeacher.Valid {
		return
	}
	if !in.IsTeacher.Value {
		if len(in.Subject) > 0 {
			errs.Add("subject", Message(OnlyTeachers))
		}
		return
	}
	if len(in.Subject) == 0 || !allResolved(in.Subject, facts.ResolvedSubjects) {
		errs.Add("subject", Message(MissingSubject))
	}
}

// allResolved reports whether every requested name has a matching row.
func allResolved(names []string, resolved []entity.Subject) bool {
	found := make(map[string]bool, len(resolved))
	for _, s := range resolved {
		found[s.Name] = true
	}
	for _, n := range names {
		if !found[n] {
			return false
		}
	}
	return true
}
