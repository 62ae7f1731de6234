package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores confirmations in the booking_confirmations table.
type PostgresRepository struct {
	pool querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithExec(q querier) *PostgresRepository {
	if q == nil {
		panic("bookings: querier required")
	}
	return &PostgresRepository{pool: q}
}

const recordColumns = `id, reference, session_id, channel, department_id, department, hospital_id, hospital,
		appointment_date, doctor_id, doctor, time_slot, patient_first_name, patient_last_name,
		patient_email, patient_mobile, patient_country_code, created_at`

// Save inserts the record and fills its id and created_at.
func (r *PostgresRepository) Save(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	id := uuid.New()
	if rec.ID != "" {
		parsed, err := uuid.Parse(rec.ID)
		if err != nil {
			return fmt.Errorf("bookings: invalid id %q: %w", rec.ID, err)
		}
		id = parsed
	}

	query := `
		INSERT INTO booking_confirmations (id, reference, session_id, channel, department_id, department,
			hospital_id, hospital, appointment_date, doctor_id, doctor, time_slot, patient_first_name,
			patient_last_name, patient_email, patient_mobile, patient_country_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		strings.ToUpper(rec.Reference),
		rec.SessionID,
		string(rec.Channel),
		rec.DepartmentID,
		rec.Department,
		rec.HospitalID,
		rec.Hospital,
		rec.Date,
		rec.DoctorID,
		rec.Doctor,
		rec.TimeSlot,
		rec.Patient.FirstName,
		rec.Patient.LastName,
		rec.Patient.Email,
		rec.Patient.Mobile,
		rec.Patient.CountryCode,
	).Scan(&createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateReference
		}
		return fmt.Errorf("bookings: insert failed: %w", err)
	}

	rec.ID = id.String()
	rec.CreatedAt = createdAt
	return nil
}

// GetByReference loads one confirmation.
func (r *PostgresRepository) GetByReference(ctx context.Context, reference string) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM booking_confirmations WHERE reference = $1`
	rec, err := scanRecord(r.pool.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(reference))))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: get by reference: %w", err)
	}
	return rec, nil
}

// List returns confirmations newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	filter = filter.normalized()
	query := `SELECT ` + recordColumns + `
		FROM booking_confirmations
		ORDER BY created_at DESC, reference ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	out := make([]*Record, 0, filter.Limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate rows: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec     Record
		id      uuid.UUID
		channel string
	)
	if err := row.Scan(
		&id,
		&rec.Reference,
		&rec.SessionID,
		&channel,
		&rec.DepartmentID,
		&rec.Department,
		&rec.HospitalID,
		&rec.Hospital,
		&rec.Date,
		&rec.DoctorID,
		&rec.Doctor,
		&rec.TimeSlot,
		&rec.Patient.FirstName,
		&rec.Patient.LastName,
		&rec.Patient.Email,
		&rec.Patient.Mobile,
		&rec.Patient.CountryCode,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.ID = id.String()
	rec.Channel = Channel(channel)
	return &rec, nil
}
