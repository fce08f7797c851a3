package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/testskool/backend/internal/domain/entity"
	"github.com/testskool/backend/internal/domain/repository"
)

var errNotFound = errors.New("not found")

// ErrNotFound reports whether err is the repository's not-found error.
func ErrNotFound(err error) bool { return errors.Is(err, errNotFound) }

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts the account and its subject associations in one
// transaction; a rejected account never leaves partial rows behind.
func (r *AccountRepository) Create(ctx context.Context, a *entity.Account, subjectIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO accounts (username, password_hash, email, first_name, last_name, about, profile_picture, is_teacher, is_student)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, date_joined, updated_at
	`, a.Username, a.Password, a.Email, a.FirstName, a.LastName, a.About, a.ProfilePicture, a.IsTeacher, a.IsStudent)
	if err := row.Scan(&a.ID, &a.DateJoined, &a.UpdatedAt); err != nil {
		return err
	}

	for _, sid := range subjectIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO account_subjects (account_id, subject_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, a.ID, sid); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.getBy(ctx, "id", id)
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*entity.Account, error) {
	return r.getBy(ctx, "username", username)
}

func (r *AccountRepository) getBy(ctx context.Context, column, value string) (*entity.Account, error) {
	a := &entity.Account{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, email, first_name, last_name, about, profile_picture, is_teacher, is_student, date_joined, updated_at
		FROM accounts
		WHERE `+column+` = $1
	`, value)

	if err := row.Scan(&a.ID, &a.Username, &a.Password, &a.Email, &a.FirstName, &a.LastName,
		&a.About, &a.ProfilePicture, &a.IsTeacher, &a.IsStudent, &a.DateJoined, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, err
	}

	subjects, err := r.subjectsFor(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Subjects = subjects
	return a, nil
}

func (r *AccountRepository) subjectsFor(ctx context.Context, accountID string) ([]entity.Subject, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.name
		FROM subjects s
		JOIN account_subjects m ON m.subject_id = s.id
		WHERE m.account_id = $1
		ORDER BY s.name ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []entity.Subject{}
	for rows.Next() {
		var s entity.Subject
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (r *AccountRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)
	`, username).Scan(&exists)
	return exists, err
}

// Update writes the account columns and, when replaceSubjects is true,
// swaps the association set inside the same transaction. An interrupted
// update never leaves the row changed with the old subject set.
func (r *AccountRepository) Update(ctx context.Context, a *entity.Account, subjectIDs []int64, replaceSubjects bool) error {
	a.UpdatedAt = time.Now()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := tx.Exec(ctx, `
		UPDATE accounts
		SET username = $1, password_hash = $2, email = $3, first_name = $4, last_name = $5,
		    about = $6, profile_picture = $7, is_teacher = $8, is_student = $9, updated_at = $10
		WHERE id = $11
	`, a.Username, a.Password, a.Email, a.FirstName, a.LastName,
		a.About, a.ProfilePicture, a.IsTeacher, a.IsStudent, a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errNotFound
	}

	if replaceSubjects {
		if _, err := tx.Exec(ctx, `DELETE FROM account_subjects WHERE account_id = $1`, a.ID); err != nil {
			return err
		}
		for _, sid := range subjectIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO account_subjects (account_id, subject_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, a.ID, sid); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
