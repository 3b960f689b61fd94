package models

import (
	"time"

	"gorm.io/datatypes"
)

// RsvpOutcome is the payload stored under a submission fingerprint. It is
// written once, on the first accepted submission for an identity, and never
// mutated afterwards.
type RsvpOutcome struct {
	Identity    string     `json:"identity"`
	Name        string     `json:"name,omitempty"`
	Attendance  Attendance `json:"attendance"`
	TotalGuests int        `json:"totalGuests"`
	Song        string     `json:"song,omitempty"`
	IP          string     `json:"ip,omitempty"`
	RecordedAt  time.Time  `json:"recordedAt"`
}

// KVRecord backs the MySQL implementation of the key-value store. The
// unique index on kv_key is what makes SetIfAbsent atomic.
type KVRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time

	Key       string         `gorm:"column:kv_key;size:191;uniqueIndex"`
	Value     datatypes.JSON `gorm:"column:kv_value"`
	ExpiresAt *time.Time     `gorm:"index"`
}

func (KVRecord) TableName() string { return "kv_records" }
