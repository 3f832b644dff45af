package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey;size:512"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Plates []SubscriptionPlate `gorm:"foreignKey:SubscriptionEndpoint;constraint:OnDelete:CASCADE"`
}

// SubscriptionPlate maps a subscription to one watched plate. Plates are
// stored normalized (upper case) so they match vehicle records; a watch may
// exist before the plate has ever been seen by the facility.
type SubscriptionPlate struct {
	SubscriptionEndpoint string `gorm:"primaryKey;size:512"`
	Plate                string `gorm:"primaryKey;size:20"`
}
