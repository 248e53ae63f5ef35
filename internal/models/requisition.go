package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequisitionStatus string

const (
	StatusPending                    RequisitionStatus = "Pending"
	StatusApprovedByDeptHead         RequisitionStatus = "Approved by Dept. Head"
	StatusApprovedBySectionPresident RequisitionStatus = "Approved by Section President"
	StatusAwaitingReceipt            RequisitionStatus = "Awaiting Receipt"
	StatusPendingFinanceVerification RequisitionStatus = "Pending Finance Verification"
	StatusCompleted                  RequisitionStatus = "Completed"
	StatusRejected                   RequisitionStatus = "Rejected"
	StatusChangesRequested           RequisitionStatus = "Changes Requested"
	StatusReceiptCorrectionRequested RequisitionStatus = "Receipt Correction Requested"
)

// Terminal states are immutable except for audit reads.
func (s RequisitionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

type ApprovalStatus string

const (
	ApprovalApproved         ApprovalStatus = "APPROVED"
	ApprovalRejected         ApprovalStatus = "REJECTED"
	ApprovalRequestedChanges ApprovalStatus = "REQUESTED_CHANGES"
)

type PaymentMethod string

const (
	PaymentTransfer PaymentMethod = "Bank Transfer"
	PaymentCash     PaymentMethod = "Cash"
	PaymentCheque   PaymentMethod = "Cheque"
)

type Requisition struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	ChurchID        string `gorm:"type:uuid;index;not null"`
	SectionID       string `gorm:"type:uuid;index;not null"`
	DepartmentID    string `gorm:"type:uuid;index;not null"`
	RequestedByID   string `gorm:"type:uuid;index;not null"`
	Title           string `gorm:"size:200;not null"`
	AmountRequested float64 `gorm:"not null"`
	Category        string  `gorm:"size:100;not null"`
	Purpose         string  `gorm:"size:1000"`
	DateNeeded      time.Time         `gorm:"not null"`
	Status          RequisitionStatus `gorm:"size:40;index;not null"`

	// ApprovalStage increments on resubmission after "Changes Requested";
	// the double-act check only looks at approvals of the current stage.
	ApprovalStage int `gorm:"not null;default:1"`

	// Version backs the optimistic conflict check on transitions.
	Version int `gorm:"not null;default:0"`

	// Final receipt, set once the requester uploads proof of expenditure.
	ReceiptName       *string `gorm:"size:255"`
	ReceiptURL        *string `gorm:"size:500"`
	ReceiptUploadedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Approvals   []Approval         `gorm:"constraint:OnDelete:CASCADE"`
	ActivityLog []ActivityLogEntry `gorm:"constraint:OnDelete:CASCADE"`
	Attachments []Attachment       `gorm:"constraint:OnDelete:CASCADE"`
	Payment     *Payment           `gorm:"constraint:OnDelete:CASCADE"`
}

func (r *Requisition) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type Approval struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	RequisitionID string `gorm:"type:uuid;index;not null"`
	ApproverID    string `gorm:"type:uuid;not null"`
	ApproverName  string `gorm:"size:100"`
	Status        ApprovalStatus `gorm:"size:20;not null"`
	Comments      *string        `gorm:"size:1000"`
	Stage         int            `gorm:"not null;default:1"`
	CreatedAt     time.Time
}

func (a *Approval) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type ActivityLogEntry struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	RequisitionID string `gorm:"type:uuid;index;not null"`
	UserID        string `gorm:"type:uuid;not null"`
	UserName      string `gorm:"size:100"` // denormalized, names survive user deletion
	Action        string `gorm:"size:60;not null"`
	Details       *string `gorm:"size:1000"`
	Timestamp     time.Time `gorm:"index;not null"`
}

func (e *ActivityLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

type Attachment struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	RequisitionID string `gorm:"type:uuid;index;not null"`
	Name          string `gorm:"size:255;not null"`
	URL           string `gorm:"size:500;not null"`
	CreatedAt     time.Time
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Payment is attached at most once per requisition and never edited;
// corrections go through the receipt-verification flow.
type Payment struct {
	ID              string  `gorm:"type:uuid;primaryKey"`
	RequisitionID   string  `gorm:"type:uuid;uniqueIndex;not null"`
	AmountPaid      float64 `gorm:"not null"`
	Method          PaymentMethod `gorm:"size:30;not null"`
	PaymentDate     time.Time     `gorm:"not null"`
	ReferenceNumber *string       `gorm:"size:100"`
	ProofName       *string       `gorm:"size:255"`
	ProofURL        *string       `gorm:"size:500"`
	RecordedByID    string        `gorm:"type:uuid;not null"`
	CreatedAt       time.Time
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
