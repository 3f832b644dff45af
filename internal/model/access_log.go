package model

import "time"

// AccessType distinguishes entries from exits. Persisted as a string.
type AccessType string

const (
	AccessEntry AccessType = "Entry"
	AccessExit  AccessType = "Exit"
)

// Valid reports whether t is one of the two known access types.
func (t AccessType) Valid() bool {
	return t == AccessEntry || t == AccessExit
}

// AccessLog is the immutable audit record of one processed access attempt,
// successful or not. Exactly one row is written per attempt and no row is
// ever updated after creation.
type AccessLog struct {
	ID           string     `gorm:"primaryKey;size:36"`
	VehiclePlate string     `gorm:"size:20;not null;index"`
	UserID       string     `gorm:"size:36;not null;index"`
	AccessType   AccessType `gorm:"type:varchar(10);not null"`
	// Timestamp is the caller-supplied event time; CreatedAt is when the
	// row was recorded.
	Timestamp     time.Time `gorm:"not null;index"`
	Success       bool      `gorm:"not null"`
	FailureReason *string   `gorm:"size:500"`
	CreatedAt     time.Time `gorm:"not null"`

	// VehicleID is nil when the attempt failed before any vehicle row existed.
	VehicleID *string `gorm:"size:36;index"`
}
