package model

import "time"

// Vehicle tracks the presence state of one plate. A row is created on the
// first successful entry and mutated in place afterwards; rows are never
// deleted while access logs reference them.
type Vehicle struct {
	ID            string `gorm:"primaryKey;size:36"`
	Plate         string `gorm:"uniqueIndex;size:20;not null"`
	CurrentUserID string `gorm:"size:36;not null;index:idx_vehicles_user_inside"`
	IsInside      bool   `gorm:"not null;index:idx_vehicles_user_inside"`
	LastEntry     *time.Time
	LastExit      *time.Time
	// Version is the optimistic-concurrency token. Every committed update
	// bumps it; an update against a stale version affects zero rows.
	Version   int64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	AccessLogs []AccessLog `gorm:"foreignKey:VehicleID;constraint:OnDelete:RESTRICT"`
}
