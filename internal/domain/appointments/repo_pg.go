package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const apptCols = `id, user_id, title, appointment_date, appointment_time, doctor_name,
	location, notes, status, appointment_type, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.UserID, &a.Title, &a.AppointmentDate, &a.AppointmentTime, &a.DoctorName,
		&a.Location, &a.Notes, &a.Status, &a.AppointmentType, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (p *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, user_id, title, appointment_date, appointment_time,
			doctor_name, location, notes, status, appointment_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.Title, a.AppointmentDate, a.AppointmentTime,
		a.DoctorName, a.Location, a.Notes, a.Status, a.AppointmentType)
	return row.Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (p *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(p.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (p *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := p.pool.Query(ctx,
		`SELECT `+apptCols+` FROM appointments
		 WHERE user_id = $1
		 ORDER BY appointment_date ASC, appointment_time ASC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (p *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE appointments
		SET title=$2, appointment_date=$3, appointment_time=$4, doctor_name=$5,
			location=$6, notes=$7, status=$8, appointment_type=$9, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Title, a.AppointmentDate, a.AppointmentTime, a.DoctorName,
		a.Location, a.Notes, a.Status, a.AppointmentType)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *repoPG) CountUpcoming(ctx context.Context, userID uuid.UUID, from time.Time) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE user_id = $1 AND appointment_date >= $2 AND status NOT IN ('cancelled', 'completed')`,
		userID, from).Scan(&n)
	return n, err
}
