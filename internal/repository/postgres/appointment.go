package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/pkg/metrics"
)

type appointmentRepository struct {
	ext     sqlx.ExtContext
	metrics *metrics.Metrics
}

const appointmentColumns = `id, patient_name, comment, start_dt, end_dt, doctor_id, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) (err error) {
	defer func() { r.metrics.ObserveDB("appointment_create", err) }()

	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.ext.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientName,
		appointment.Comment,
		appointment.StartDT,
		appointment.EndDT,
		appointment.DoctorID,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", mapError(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := sqlx.GetContext(ctx, r.ext, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", notFound(err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) (err error) {
	defer func() { r.metrics.ObserveDB("appointment_update", err) }()

	query := `
		UPDATE appointments
		SET patient_name = $1, comment = $2, start_dt = $3, end_dt = $4, doctor_id = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.ext.ExecContext(ctx, query,
		appointment.PatientName,
		appointment.Comment,
		appointment.StartDT,
		appointment.EndDT,
		appointment.DoctorID,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", mapError(err))
	}
	return expectRows(result)
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { r.metrics.ObserveDB("appointment_delete", err) }()

	result, err := r.ext.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return expectRows(result)
}

func (r *appointmentRepository) List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error) {
	if filter == nil {
		filter = &model.AppointmentFilter{}
	}

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.DoctorID != nil {
		conditions = append(conditions, "doctor_id = "+arg(*filter.DoctorID))
	}
	if filter.From != nil {
		conditions = append(conditions, "start_dt >= "+arg(model.NewDateTime(*filter.From)))
	}
	if filter.Until != nil {
		conditions = append(conditions, "end_dt < "+arg(model.NewDateTime(*filter.Until)))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_dt, id OFFSET " + arg(filter.Skip)
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	appointments := []*model.Appointment{}
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE doctor_id = $1 ORDER BY start_dt, id`

	appointments := []*model.Appointment{}
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByDoctors(ctx context.Context, doctorIDs []uuid.UUID) (map[uuid.UUID][]*model.Appointment, error) {
	grouped := make(map[uuid.UUID][]*model.Appointment)
	if len(doctorIDs) == 0 {
		return grouped, nil
	}

	ids := make([]string, len(doctorIDs))
	for i, id := range doctorIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = ANY($1::uuid[])
		ORDER BY start_dt, id
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext, &appointments, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to list appointments for doctors: %w", err)
	}

	for _, a := range appointments {
		grouped[a.DoctorID] = append(grouped[a.DoctorID], a)
	}
	return grouped, nil
}
