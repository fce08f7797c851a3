package account

import (
	"unicode/utf8"

	"github.com/testskool/backend/internal/domain/entity"
)

// MaxAboutLen bounds the free-text biography, counted in characters.
const MaxAboutLen = 2048

// PictureUpload is a profile picture received alongside an update.
// It arrives through multipart form data, never JSON.
type PictureUpload struct {
	Filename string
	Data     []byte
}

// UpdateInput is a sparse profile update. Every field is optional;
// only present fields are validated and applied. A present-but-empty
// subject list is meaningful (it clears a student's set or, for a
// teacher, fails validation), so Optional rather than pointers.
type UpdateInput struct {
	FirstName       Optional[string]   `json:"first_name"`
	LastName        Optional[string]   `json:"last_name"`
	About           Optional[string]   `json:"about"`
	OldPassword     Optional[string]   `json:"old_password"`
	Password        Optional[string]   `json:"password"`
	ConfirmPassword Optional[string]   `json:"confirm_password"`
	Subject         Optional[[]string] `json:"subject"`

	Picture *PictureUpload `json:"-"`
}

// WantsPasswordChange reports whether any of the three password-change
// fields is present.
func (in UpdateInput) WantsPasswordChange() bool {
	return in.OldPassword.Present || in.Password.Present || in.ConfirmPassword.Present
}

// UpdateFacts carries the context the update rules need: the account
// being edited, a verifier for the stored password hash, and the
// subject rows that resolved from the requested names.
type UpdateFacts struct {
	Account          *entity.Account
	VerifyPassword   func(plain string) bool
	ResolvedSubjects []entity.Subject
}

type updateRule func(in UpdateInput, facts UpdateFacts, errs FieldErrors)

var updateRules = []updateRule{
	checkPasswordChange,
	checkUpdateSubjects,
	checkAbout,
	checkPicture,
}

// ValidateUpdate runs every update rule and aggregates the failures.
func ValidateUpdate(in UpdateInput, facts UpdateFacts) FieldErrors {
	errs := FieldErrors{}
	for _, rule := range updateRules {
		rule(in, facts, errs)
	}
	return errs
}

// checkPasswordChange enforces the all-or-nothing password trio: old,
// new and confirmation must arrive together, the new pair must match,
// the new password must be long enough, and the old one must verify
// against the stored hash.
func checkPasswordChange(in UpdateInput, facts UpdateFacts, errs FieldErrors) {
	if !in.WantsPasswordChange() {
		return
	}
	if !in.OldPassword.Present || !in.Password.Present || !in.ConfirmPassword.Present {
		errs.Add("confirm_password", Message(FillAllPasswordFields))
		return
	}
	if in.Password.Value != in.ConfirmPassword.Value {
		errs.Add("confirm_password", Message(NewPasswordMismatch))
	}
	if len(in.Password.Value) < MinPasswordLen {
		errs.Add("new_password", Message(ShortNewPassword))
	}
	if facts.VerifyPassword != nil && !facts.VerifyPassword(in.OldPassword.Value) {
		errs.Add("password", Message(WrongOldPassword))
	}
}

// checkUpdateSubjects applies the replacement semantics: a present
// subject field swaps the whole set. Students may only clear; teachers
// must keep at least one subject and every name must resolve.
func checkUpdateSubjects(in UpdateInput, facts UpdateFacts, errs FieldErrors) {
	if !in.Subject.Present {
		return
	}
	names := in.Subject.Value
	if !facts.Account.IsTeacher {
		if len(names) > 0 {
			errs.Add("subject", Message(OnlyTeachers))
		}
		return
	}
	if len(names) == 0 {
		errs.Add("subject", Message(TeacherNeedsSubject))
		return
	}
	found := make(map[string]bool, len(facts.ResolvedSubjects))
	for _, s := range facts.ResolvedSubjects {
		found[s.Name] = true
	}
	for _, n := range names {
		if !found[n] {
			errs.Add("subject", SubjectNotFound(n))
		}
	}
}

func checkAbout(in UpdateInput, _ UpdateFacts, errs FieldErrors) {
	if in.About.Present && utf8.RuneCountInString(in.About.Value) > MaxAboutLen {
		errs.Add("about", Message(AboutTooLong))
	}
}

func checkPicture(in UpdateInput, _ UpdateFacts, errs FieldErrors) {
	if in.Picture == nil {
		return
	}
	ValidatePicture(in.Picture.Data, errs)
}
