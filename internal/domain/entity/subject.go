package entity

// Subject is a teachable topic. Many-to-many with Account via
// account_subjects; only teachers carry associations by convention,
// enforced in the validation layer rather than the schema.
type Subject struct {
	ID   int64
	Name string
}
