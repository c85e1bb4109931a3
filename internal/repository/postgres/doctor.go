package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/pkg/metrics"
)

type doctorRepository struct {
	ext     sqlx.ExtContext
	metrics *metrics.Metrics
}

const doctorColumns = `id, first_name, last_name, email, created_at, updated_at`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) (err error) {
	defer func() { r.metrics.ObserveDB("doctor_create", err) }()

	query := `
		INSERT INTO doctors (` + doctorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.ext.ExecContext(ctx, query,
		doctor.ID,
		doctor.FirstName,
		doctor.LastName,
		doctor.Email,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", mapError(err))
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	var doctor model.Doctor
	if err := sqlx.GetContext(ctx, r.ext, &doctor, query, id); err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", notFound(err))
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) (err error) {
	defer func() { r.metrics.ObserveDB("doctor_update", err) }()

	query := `
		UPDATE doctors
		SET first_name = $1, last_name = $2, email = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.ext.ExecContext(ctx, query,
		doctor.FirstName,
		doctor.LastName,
		doctor.Email,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", mapError(err))
	}
	return expectRows(result)
}

// Delete cascades to the doctor's appointments through the foreign key.
func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { r.metrics.ObserveDB("doctor_delete", err) }()

	result, err := r.ext.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	return expectRows(result)
}

func (r *doctorRepository) List(ctx context.Context, page model.Page) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY created_at, id OFFSET $1`
	args := []interface{}{page.Skip}
	if page.Limit > 0 {
		query += ` LIMIT $2`
		args = append(args, page.Limit)
	}

	doctors := []*model.Doctor{}
	if err := sqlx.SelectContext(ctx, r.ext, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) Lock(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := sqlx.GetContext(ctx, r.ext, &locked, `SELECT id FROM doctors WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return fmt.Errorf("failed to lock doctor: %w", notFound(err))
	}
	return nil
}
