package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

// Appointment meeting types.
const (
	TypeInPerson = "in-person"
	TypeVideo    = "video"
	TypePhone    = "phone"
)

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

var validTypes = map[string]bool{
	TypeInPerson: true,
	TypeVideo:    true,
	TypePhone:    true,
}

// Appointment maps to the appointments table. Date and time are stored
// separately, mirroring how the booking form submits them.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	Title           string    `db:"title" json:"title"`
	AppointmentDate time.Time `db:"appointment_date" json:"appointment_date"`
	AppointmentTime string    `db:"appointment_time" json:"appointment_time"`
	DoctorName      *string   `db:"doctor_name" json:"doctor_name,omitempty"`
	Location        *string   `db:"location" json:"location,omitempty"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	Status          string    `db:"status" json:"status"`
	AppointmentType string    `db:"appointment_type" json:"appointment_type"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
