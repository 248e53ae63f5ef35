package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Section struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	ChurchID  string `gorm:"type:uuid;index;not null"`
	Name      string `gorm:"size:100;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Departments []Department
}

func (s *Section) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type Department struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	SectionID string `gorm:"type:uuid;index;not null"`
	Name      string `gorm:"size:100;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
