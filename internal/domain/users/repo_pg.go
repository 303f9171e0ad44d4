package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const userCols = `id, med_id, first_name, last_name, email, phone, date_of_birth, gender,
	blood_group, address, emergency_contact_name, emergency_contact_phone,
	medical_conditions, medications, allergies, user_type, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.MedID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.DateOfBirth, &u.Gender,
		&u.BloodGroup, &u.Address, &u.EmergencyContactName, &u.EmergencyContactPhone,
		&u.MedicalConditions, &u.Medications, &u.Allergies, &u.UserType, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &u, err
}

func (p *repoPG) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (id, med_id, first_name, last_name, email, phone, date_of_birth, gender,
			blood_group, address, emergency_contact_name, emergency_contact_phone,
			medical_conditions, medications, allergies, user_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, updated_at`,
		u.ID, u.MedID, u.FirstName, u.LastName, u.Email, u.Phone, u.DateOfBirth, u.Gender,
		u.BloodGroup, u.Address, u.EmergencyContactName, u.EmergencyContactPhone,
		u.MedicalConditions, u.Medications, u.Allergies, u.UserType)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (p *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(p.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (p *repoPG) GetByMedID(ctx context.Context, medID string) (*User, error) {
	return scanUser(p.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE med_id = $1`, medID))
}

func (p *repoPG) Update(ctx context.Context, u *User) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE users
		SET first_name=$2, last_name=$3, phone=$4, date_of_birth=$5, gender=$6,
			blood_group=$7, address=$8, emergency_contact_name=$9,
			emergency_contact_phone=$10, medical_conditions=$11, medications=$12,
			allergies=$13, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Phone, u.DateOfBirth, u.Gender,
		u.BloodGroup, u.Address, u.EmergencyContactName,
		u.EmergencyContactPhone, u.MedicalConditions, u.Medications, u.Allergies)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *repoPG) SearchPatients(ctx context.Context, term string, limit int) ([]*User, error) {
	pattern := "%" + term + "%"
	rows, err := p.pool.Query(ctx,
		`SELECT `+userCols+` FROM users
		 WHERE user_type = 'citizen'
		   AND (first_name ILIKE $1 OR last_name ILIKE $1 OR med_id ILIKE $1 OR email ILIKE $1)
		 ORDER BY created_at DESC LIMIT $2`,
		pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}
