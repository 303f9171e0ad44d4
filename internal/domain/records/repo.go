package records

import (
	"context"

	"github.com/google/uuid"
)

// AnalysisUpdate carries the fields overwritten by a re-analysis.
type AnalysisUpdate struct {
	Summary         string
	AIAnalysis      string
	KeyFindings     []string
	Medications     []string
	Recommendations []string
	UrgencyLevel    string
}

type Repository interface {
	Create(ctx context.Context, r *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error)
	Update(ctx context.Context, r *MedicalRecord) error
	UpdateAnalysis(ctx context.Context, id uuid.UUID, upd AnalysisUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
	StatsByUser(ctx context.Context, userID uuid.UUID) (*Stats, error)
}
