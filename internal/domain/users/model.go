package users

import (
	"time"

	"github.com/google/uuid"
)

// User types. Doctors get patient-search and record-review access.
const (
	TypeCitizen = "citizen"
	TypeDoctor  = "doctor"
)

// User maps to the users table.
type User struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	MedID                 string     `db:"med_id" json:"med_id"`
	FirstName             string     `db:"first_name" json:"first_name"`
	LastName              string     `db:"last_name" json:"last_name"`
	Email                 string     `db:"email" json:"email"`
	Phone                 *string    `db:"phone" json:"phone,omitempty"`
	DateOfBirth           *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender                *string    `db:"gender" json:"gender,omitempty"`
	BloodGroup            *string    `db:"blood_group" json:"blood_group,omitempty"`
	Address               *string    `db:"address" json:"address,omitempty"`
	EmergencyContactName  *string    `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string    `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	MedicalConditions     *string    `db:"medical_conditions" json:"medical_conditions,omitempty"`
	Medications           *string    `db:"medications" json:"medications,omitempty"`
	Allergies             *string    `db:"allergies" json:"allergies,omitempty"`
	UserType              string     `db:"user_type" json:"user_type"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins the name parts for display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
