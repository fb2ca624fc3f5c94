package database

import "time"

// Transfer is one terminal retrieval outcome. Content is never stored.
type Transfer struct {
	ID        uint      `gorm:"primaryKey"`
	ActorID   int64     `gorm:"index;not null"`
	Host      string    `gorm:"size:255"`
	Tier      string    `gorm:"size:16"`
	Bytes     int64     `gorm:"not null;default:0"`
	Outcome   string    `gorm:"size:32;index;not null"`
	CreatedAt time.Time `gorm:"index"`
}

const OutcomeDelivered = "delivered"
