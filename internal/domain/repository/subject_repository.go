package repository

import (
	"context"

	"github.com/testskool/backend/internal/domain/entity"
)

// SubjectRepository reads subjects. Subjects are administered out of
// band (see cmd/seed); account flows never create or modify them.
type SubjectRepository interface {
	// List returns all subjects ordered by name ascending.
	List(ctx context.Context) ([]entity.Subject, error)
	// GetByNames resolves names to existing rows. Names with no row are
	// simply absent from the result; the caller decides whether that is
	// an error.
	GetByNames(ctx context.Context, names []string) ([]entity.Subject, error)
}
