package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerDirection string

const (
	LedgerIn  LedgerDirection = "in"
	LedgerOut LedgerDirection = "out"
)

// LedgerEntry is the section-level cash book the summaries aggregate.
// Disbursements append an "out" entry; inflows are recorded by Finance.
type LedgerEntry struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	ChurchID      string `gorm:"type:uuid;index;not null"`
	SectionID     string `gorm:"type:uuid;index;not null"`
	Direction     LedgerDirection `gorm:"size:5;not null"`
	Amount        float64         `gorm:"not null"`
	Description   string          `gorm:"size:255"`
	Date          time.Time       `gorm:"index;not null"`
	RecordedByID  string          `gorm:"type:uuid;not null"`
	RequisitionID *string         `gorm:"type:uuid;index"` // set for disbursement entries
	CreatedAt     time.Time
}

func (l *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
