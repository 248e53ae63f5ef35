package requisition

import (
	"time"

	"churchflow-backend/internal/models"
)

type AttachmentDTO struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required"`
}

type ApprovalResponse struct {
	ID           string                `json:"id"`
	ApproverID   string                `json:"approver_id"`
	ApproverName string                `json:"approver_name"`
	Status       models.ApprovalStatus `json:"status"`
	Comments     *string               `json:"comments"`
	Stage        int                   `json:"stage"`
	Timestamp    time.Time             `json:"timestamp"`
}

type ActivityLogResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Action    string    `json:"action"`
	Details   *string   `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

type PaymentResponse struct {
	AmountPaid      float64              `json:"amount_paid"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	PaymentDate     string               `json:"payment_date"`
	ReferenceNumber *string              `json:"reference_number"`
	ProofFile       *AttachmentDTO       `json:"proof_file"`
	RecordedByID    string               `json:"recorded_by_id"`
	Timestamp       time.Time            `json:"timestamp"`
}

type FinalReceiptResponse struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type RequisitionResponse struct {
	ID              string                   `json:"id"`
	Title           string                   `json:"title"`
	RequestedByID   string                   `json:"requested_by_id"`
	DepartmentID    string                   `json:"department_id"`
	SectionID       string                   `json:"section_id"`
	ChurchID        string                   `json:"church_id"`
	AmountRequested float64                  `json:"amount_requested"`
	Category        string                   `json:"category"`
	Purpose         string                   `json:"purpose"`
	DateNeeded      string                   `json:"date_needed"`
	CreatedAt       time.Time                `json:"created_at"`
	Status          models.RequisitionStatus `json:"status"`
	ApprovalStage   int                      `json:"approval_stage"`
	Approvals       []ApprovalResponse       `json:"approvals"`
	ActivityLog     []ActivityLogResponse    `json:"activity_log"`
	Attachments     []AttachmentDTO          `json:"attachments"`
	Payment         *PaymentResponse         `json:"payment"`
	FinalReceipt    *FinalReceiptResponse    `json:"final_receipt"`
}

func NewRequisitionResponse(r *models.Requisition) RequisitionResponse {
	resp := RequisitionResponse{
		ID:              r.ID,
		Title:           r.Title,
		RequestedByID:   r.RequestedByID,
		DepartmentID:    r.DepartmentID,
		SectionID:       r.SectionID,
		ChurchID:        r.ChurchID,
		AmountRequested: r.AmountRequested,
		Category:        r.Category,
		Purpose:         r.Purpose,
		DateNeeded:      r.DateNeeded.Format("2006-01-02"),
		CreatedAt:       r.CreatedAt,
		Status:          r.Status,
		ApprovalStage:   r.ApprovalStage,
		Approvals:       make([]ApprovalResponse, 0, len(r.Approvals)),
		ActivityLog:     make([]ActivityLogResponse, 0, len(r.ActivityLog)),
		Attachments:     make([]AttachmentDTO, 0, len(r.Attachments)),
	}

	for _, a := range r.Approvals {
		resp.Approvals = append(resp.Approvals, ApprovalResponse{
			ID:           a.ID,
			ApproverID:   a.ApproverID,
			ApproverName: a.ApproverName,
			Status:       a.Status,
			Comments:     a.Comments,
			Stage:        a.Stage,
			Timestamp:    a.CreatedAt,
		})
	}
	for _, e := range r.ActivityLog {
		resp.ActivityLog = append(resp.ActivityLog, ActivityLogResponse{
			ID:        e.ID,
			UserID:    e.UserID,
			UserName:  e.UserName,
			Action:    e.Action,
			Details:   e.Details,
			Timestamp: e.Timestamp,
		})
	}
	for _, att := range r.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentDTO{Name: att.Name, URL: att.URL})
	}

	if r.Payment != nil {
		p := PaymentResponse{
			AmountPaid:      r.Payment.AmountPaid,
			PaymentMethod:   r.Payment.Method,
			PaymentDate:     r.Payment.PaymentDate.Format("2006-01-02"),
			ReferenceNumber: r.Payment.ReferenceNumber,
			RecordedByID:    r.Payment.RecordedByID,
			Timestamp:       r.Payment.CreatedAt,
		}
		if r.Payment.ProofName != nil {
			url := ""
			if r.Payment.ProofURL != nil {
				url = *r.Payment.ProofURL
			}
			p.ProofFile = &AttachmentDTO{Name: *r.Payment.ProofName, URL: url}
		}
		resp.Payment = &p
	}

	if r.ReceiptName != nil && r.ReceiptUploadedAt != nil {
		url := ""
		if r.ReceiptURL != nil {
			url = *r.ReceiptURL
		}
		resp.FinalReceipt = &FinalReceiptResponse{
			Name:       *r.ReceiptName,
			URL:        url,
			UploadedAt: *r.ReceiptUploadedAt,
		}
	}

	return resp
}
