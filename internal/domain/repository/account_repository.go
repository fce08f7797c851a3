package repository

import (
	"context"

	"github.com/testskool/backend/internal/domain/entity"
)

// AccountRepository defines the interface for account persistence.
// Create attaches the given subjects atomically with the row insert.
// Update writes the changed columns and, when replaceSubjects is true,
// swaps the whole association set in the same transaction; a failure
// leaves neither half applied.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account, subjectIDs []int64) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByUsername(ctx context.Context, username string) (*entity.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, a *entity.Account, subjectIDs []int64, replaceSubjects bool) error
	Delete(ctx context.Context, id string) error
}
