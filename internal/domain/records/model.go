package records

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/medrecord/medrecord/internal/platform/ai"
)

// MedicalRecord maps to the medical_records table.
type MedicalRecord struct {
	ID              uuid.UUID `db:"id" json:"id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	Title           string    `db:"title" json:"title"`
	Category        string    `db:"category" json:"category"`
	Description     *string   `db:"description" json:"description,omitempty"`
	Summary         *string   `db:"summary" json:"summary,omitempty"`
	AIAnalysis      *string   `db:"ai_analysis" json:"ai_analysis,omitempty"`
	KeyFindings     []string  `db:"key_findings" json:"key_findings"`
	Medications     []string  `db:"medications" json:"medications"`
	Recommendations []string  `db:"recommendations" json:"recommendations"`
	UrgencyLevel    string    `db:"urgency_level" json:"urgency_level"`
	FileName        *string   `db:"file_name" json:"file_name,omitempty"`
	FilePath        *string   `db:"file_path" json:"file_path,omitempty"`
	FileURL         *string   `db:"file_url" json:"file_url,omitempty"`
	FileSize        *int64    `db:"file_size" json:"file_size,omitempty"`
	FileType        *string   `db:"file_type" json:"file_type,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ValidCategories lists the accepted record categories.
var ValidCategories = map[string]bool{
	"prescription": true,
	"lab-report":   true,
	"medical-bill": true,
	"scan-report":  true,
	"consultation": true,
	"vaccination":  true,
	"vital-signs":  true,
	"other":        true,
}

// applyAnalysis copies an analysis result onto the record, serialising the
// full result into ai_analysis.
func (r *MedicalRecord) applyAnalysis(a *ai.Result) {
	summary := a.Summary
	r.Summary = &summary
	r.KeyFindings = a.KeyFindings
	r.Medications = a.Medications
	r.Recommendations = a.Recommendations
	r.UrgencyLevel = a.UrgencyLevel

	if raw, err := json.Marshal(a); err == nil {
		s := string(raw)
		r.AIAnalysis = &s
	}
}

// Stats summarises a user's records for the dashboard.
type Stats struct {
	TotalRecords  int            `json:"total_records"`
	UrgentRecords int            `json:"urgent_records"`
	ByCategory    map[string]int `json:"records_by_category"`
}
