package qrcodes

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

const qrCols = `id, user_id, qr_code_data, is_active, expires_at, scan_count, last_scanned, created_at`

func scanQRCode(row pgx.Row) (*QRCode, error) {
	var q QRCode
	err := row.Scan(&q.ID, &q.UserID, &q.Data, &q.IsActive, &q.ExpiresAt, &q.ScanCount, &q.LastScanned, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &q, err
}

func (p *repoPG) Create(ctx context.Context, code *QRCode) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO qr_codes (id, user_id, qr_code_data, is_active, expires_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		code.ID, code.UserID, code.Data, code.IsActive, code.ExpiresAt)
	return row.Scan(&code.CreatedAt)
}

func (p *repoPG) ListActive(ctx context.Context, userID uuid.UUID) ([]*QRCode, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+qrCols+` FROM qr_codes
		 WHERE user_id = $1 AND is_active ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []*QRCode
	for rows.Next() {
		q, err := scanQRCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, q)
	}
	return codes, rows.Err()
}

func (p *repoPG) GetByData(ctx context.Context, data string) (*QRCode, error) {
	return scanQRCode(p.pool.QueryRow(ctx,
		`SELECT `+qrCols+` FROM qr_codes WHERE qr_code_data = $1`, data))
}

func (p *repoPG) RecordScan(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE qr_codes SET scan_count = scan_count + 1, last_scanned = $2
		WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE qr_codes SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
