package account

import "fmt"

// Kind identifies one user-facing notification or validation message.
type Kind string

const (
	UserCreated    Kind = "user_created"
	ProfileUpdated Kind = "profile_updated"
	AccountDeleted Kind = "account_deleted"

	MissingUsername Kind = "missing_username"
	SpaceNotAllowed Kind = "space_not_allowed"
	InvalidUsername Kind = "invalid_username"
	UsernameExists  Kind = "username_exists"

	MissingPassword  Kind = "missing_password"
	ShortPassword    Kind = "short_password"
	PasswordMismatch Kind = "password_mismatch"

	MissingRole    Kind = "missing_role"
	MissingSubject Kind = "missing_subject"
	OnlyTeachers   Kind = "only_teachers"

	FillAllPasswordFields Kind = "fill_all_password_fields"
	NewPasswordMismatch   Kind = "new_password_mismatch"
	ShortNewPassword      Kind = "short_new_password"
	WrongOldPassword      Kind = "wrong_old_password"
	IncorrectPassword     Kind = "incorrect_password"

	TeacherNeedsSubject Kind = "teacher_needs_subject"
	AboutTooLong        Kind = "about_too_long"

	ImageTooLarge  Kind = "image_too_large"
	NotAnImage     Kind = "not_an_image"
	BadImageFormat Kind = "bad_image_format"
)

// messages is the immutable key-to-text table built once at process
// start. Handlers and rules look text up by Kind; the raw strings are
// never duplicated at call sites.
var messages = map[Kind]string{
	UserCreated:    "Account registered successfully. You are ready to log in!",
	ProfileUpdated: "Profile updated successfully.",
	AccountDeleted: "Account deleted successfully.",

	MissingUsername: "Please provide a username.",
	SpaceNotAllowed: "Space is not allowed on username.",
	InvalidUsername: "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.",
	UsernameExists:  "A user with that username already exists.",

	MissingPassword:  "Please provide a password.",
	ShortPassword:    "Password must be at least 8 characters.",
	PasswordMismatch: "Password and confirmation must match.",

	MissingRole:    "Choose one field: student or teacher.",
	MissingSubject: "Please select your subject(s).",
	OnlyTeachers:   "Only teachers can choose a subject.",

	FillAllPasswordFields: "Please fill all fields to change your password.",
	NewPasswordMismatch:   "New Password and Confirm New Password are not same.",
	ShortNewPassword:      "Must be at least 8 characters.",
	WrongOldPassword:      "Password is not correct.",
	IncorrectPassword:     "Incorrect password.",

	TeacherNeedsSubject: "Teachers must have at least one subject.",
	AboutTooLong:        "Ensure this field has no more than 2048 characters.",

	ImageTooLarge:  "The maximum image size can be 300 KB.",
	NotAnImage:     "Upload a valid image. The file you uploaded was either not an image or a corrupted image.",
	BadImageFormat: "Only JPEG, PNG and GIF images are allowed.",
}

// Message returns the human-readable text for a Kind.
func Message(k Kind) string {
	if m, ok := messages[k]; ok {
		return m
	}
	return "Unknown notification."
}

// SubjectNotFound builds the per-name message for an unresolvable
// subject reference.
func SubjectNotFound(name string) string {
	return fmt.Sprintf("Object with name=%s does not exist.", name)
}
