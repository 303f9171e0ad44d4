package vault

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

const itemCols = `id, user_id, document_type, title, description, file_name, file_path,
	file_url, file_size, file_type, vault_password_hash, is_shared, shared_with,
	share_expiry, created_at, updated_at`

// shared_with is NOT NULL; a nil slice would write SQL NULL.
func uuidArray(in []uuid.UUID) []uuid.UUID {
	if in == nil {
		return []uuid.UUID{}
	}
	return in
}

func scanItem(row pgx.Row) (*Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.UserID, &i.DocumentType, &i.Title, &i.Description, &i.FileName, &i.FilePath,
		&i.FileURL, &i.FileSize, &i.FileType, &i.PasswordHash, &i.IsShared, &i.SharedWith,
		&i.ShareExpiry, &i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &i, err
}

func (p *repoPG) Create(ctx context.Context, item *Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO personal_vault (id, user_id, document_type, title, description,
			file_name, file_path, file_url, file_size, file_type,
			vault_password_hash, is_shared, shared_with, share_expiry)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		item.ID, item.UserID, item.DocumentType, item.Title, item.Description,
		item.FileName, item.FilePath, item.FileURL, item.FileSize, item.FileType,
		item.PasswordHash, item.IsShared, uuidArray(item.SharedWith), item.ShareExpiry)
	return row.Scan(&item.CreatedAt, &item.UpdatedAt)
}

func (p *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(p.pool.QueryRow(ctx,
		`SELECT `+itemCols+` FROM personal_vault WHERE id = $1`, id))
}

func (p *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Item, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+itemCols+` FROM personal_vault
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (p *repoPG) UpdateShare(ctx context.Context, id uuid.UUID, sharedWith []uuid.UUID, expiry *time.Time) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE personal_vault
		SET is_shared=$2, shared_with=$3, share_expiry=$4, updated_at=NOW()
		WHERE id = $1`,
		id, len(sharedWith) > 0, uuidArray(sharedWith), expiry)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM personal_vault WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
