package models

import (
	"time"
)

// Attendance is the RSVP answer recorded on a guest.
type Attendance string

const (
	AttendancePending Attendance = "pending"
	AttendanceYes     Attendance = "yes"
	AttendanceNo      Attendance = "no"
)

// Valid reports whether a is one of the known attendance values.
func (a Attendance) Valid() bool {
	switch a {
	case AttendancePending, AttendanceYes, AttendanceNo:
		return true
	}
	return false
}

// GuestRecord is the authoritative invitee identity. Created by the
// directory-management side (Notion or a seed script), mutated only through
// the RSVP submission path.
//
// Invariants: HasConfirmed true implies Attendance is yes or no; TotalGuests
// is meaningful only when Attendance is yes and stays within [1, 2].
type GuestRecord struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// RecordID is the opaque stable id exposed to callers. In notion mode
	// this is the Notion page id; in mysql mode it is assigned at import.
	RecordID string `gorm:"column:record_id;size:64;uniqueIndex" json:"id"`

	// Code is the human-entered invite token, stored normalized
	// (uppercase, trimmed) and unique across all records.
	Code string `gorm:"column:code;size:32;uniqueIndex" json:"code"`

	Name           string `gorm:"size:255" json:"name"`
	PlusOneAllowed bool   `json:"plusOneAllowed"`
	PlusOneName    string `gorm:"size:255" json:"plusOneName,omitempty"`

	HasConfirmed bool       `json:"hasConfirmed"`
	Attendance   Attendance `gorm:"size:16;default:pending" json:"attendance"`
	TotalGuests  int        `json:"totalGuests"`

	Song  string `gorm:"size:255" json:"song,omitempty"`
	Email string `gorm:"size:150" json:"email,omitempty"`
}

func (GuestRecord) TableName() string { return "guests" }

// GuestUpdate carries the fields the RSVP state machine may change. Nil
// means "leave untouched" — a blank song never clears a recorded one.
type GuestUpdate struct {
	HasConfirmed *bool
	Attendance   *Attendance
	TotalGuests  *int
	Song         *string
}
