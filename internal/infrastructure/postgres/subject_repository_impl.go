package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/testskool/backend/internal/domain/entity"
	"github.com/testskool/backend/internal/domain/repository"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

func (r *SubjectRepository) List(ctx context.Context) ([]entity.Subject, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name
		FROM subjects
		ORDER BY name ASC
	`)
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

func (r *SubjectRepository) GetByNames(ctx context.Context, names []string) ([]entity.Subject, error) {
	if len(names) == 0 {
		return []entity.Subject{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name
		FROM subjects
		WHERE name = ANY($1)
		ORDER BY name ASC
	`, names)
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

var _ repository.SubjectRepository = (*SubjectRepository)(nil)
