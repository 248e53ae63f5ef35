package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	SubscriptionTrial   SubscriptionStatus = "Trial"
	SubscriptionActive  SubscriptionStatus = "Active"
	SubscriptionExpired SubscriptionStatus = "Expired"
)

type Church struct {
	ID                 string             `gorm:"type:uuid;primaryKey"`
	Name               string             `gorm:"size:150;not null;unique"`
	SubscriptionStatus SubscriptionStatus `gorm:"size:20;not null"`
	SubscriptionEndsAt time.Time          `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Sections []Section
}

func (ch *Church) BeforeCreate(tx *gorm.DB) error {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	return nil
}
