package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/aleisley/ta-backend/internal/repository"
	"github.com/aleisley/ta-backend/pkg/metrics"
)

// Store implements repository.Store on PostgreSQL. Outside WithTx it runs
// statements on the pool; inside, on the transaction.
type Store struct {
	db      *sqlx.DB
	ext     sqlx.ExtContext
	inTx    bool
	metrics *metrics.Metrics
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sqlx.DB, m *metrics.Metrics) *Store {
	return &Store{db: db, ext: db, metrics: m}
}

func (s *Store) Doctors() repository.DoctorRepository {
	return &doctorRepository{ext: s.ext, metrics: s.metrics}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{ext: s.ext, metrics: s.metrics}
}

func (s *Store) Outbox() repository.OutboxRepository {
	return &outboxRepository{ext: s.ext, metrics: s.metrics}
}

// WithTx executes a function within a transaction
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, ext: tx, inTx: true, metrics: s.metrics}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func expectRows(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
