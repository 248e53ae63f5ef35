package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlatformActivityCategory string

const (
	PlatformActivityNewChurch    PlatformActivityCategory = "NEW_CHURCH"
	PlatformActivitySubscription PlatformActivityCategory = "SUBSCRIPTION"
	PlatformActivitySystem       PlatformActivityCategory = "SYSTEM"
)

type PlatformActivity struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Category    PlatformActivityCategory `gorm:"size:20;not null"`
	Description string                   `gorm:"size:255;not null"`
	CreatedAt   time.Time                `gorm:"index"`
}

func (p *PlatformActivity) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
