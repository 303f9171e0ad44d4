package records

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const recordCols = `id, user_id, title, category, description, summary, ai_analysis,
	key_findings, medications, recommendations, urgency_level,
	file_name, file_path, file_url, file_size, file_type, created_at, updated_at`

// The array columns are NOT NULL; a nil slice would write SQL NULL.
func textArray(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var r MedicalRecord
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Category, &r.Description, &r.Summary, &r.AIAnalysis,
		&r.KeyFindings, &r.Medications, &r.Recommendations, &r.UrgencyLevel,
		&r.FileName, &r.FilePath, &r.FileURL, &r.FileSize, &r.FileType, &r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (p *repoPG) Create(ctx context.Context, r *MedicalRecord) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO medical_records (id, user_id, title, category, description, summary, ai_analysis,
			key_findings, medications, recommendations, urgency_level,
			file_name, file_path, file_url, file_size, file_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, updated_at`,
		r.ID, r.UserID, r.Title, r.Category, r.Description, r.Summary, r.AIAnalysis,
		textArray(r.KeyFindings), textArray(r.Medications), textArray(r.Recommendations), r.UrgencyLevel,
		r.FileName, r.FilePath, r.FileURL, r.FileSize, r.FileType)
	return row.Scan(&r.CreatedAt, &r.UpdatedAt)
}

func (p *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return scanRecord(p.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_records WHERE id = $1`, id))
}

func (p *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_records WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := p.pool.Query(ctx,
		`SELECT `+recordCols+` FROM medical_records
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*MedicalRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, rows.Err()
}

func (p *repoPG) Update(ctx context.Context, r *MedicalRecord) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE medical_records
		SET title=$2, category=$3, description=$4, updated_at=NOW()
		WHERE id = $1`,
		r.ID, r.Title, r.Category, r.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *repoPG) UpdateAnalysis(ctx context.Context, id uuid.UUID, upd AnalysisUpdate) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE medical_records
		SET summary=$2, ai_analysis=$3, key_findings=$4, medications=$5,
			recommendations=$6, urgency_level=$7, updated_at=NOW()
		WHERE id = $1`,
		id, upd.Summary, upd.AIAnalysis, textArray(upd.KeyFindings), textArray(upd.Medications),
		textArray(upd.Recommendations), upd.UrgencyLevel)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *repoPG) StatsByUser(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT category, urgency_level, COUNT(*)
		FROM medical_records WHERE user_id = $1
		GROUP BY category, urgency_level`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &Stats{ByCategory: make(map[string]int)}
	for rows.Next() {
		var category, urgency string
		var count int
		if err := rows.Scan(&category, &urgency, &count); err != nil {
			return nil, err
		}
		stats.TotalRecords += count
		stats.ByCategory[category] += count
		if urgency == "high" {
			stats.UrgentRecords += count
		}
	}
	return stats, rows.Err()
}
