package workflow

import (
	"strings"
	"time"

	"churchflow-backend/internal/models"
)

// TransitionInput carries everything a single workflow step needs. The
// caller identity arrives explicitly; there is no ambient session
// state.
type TransitionInput struct {
	Actor     models.User
	Requester models.User
	Action    Action
	Comments  string
	Now       time.Time

	// Disburse only.
	Payment *PaymentDetails

	// UploadReceipt only.
	ReceiptName string
	ReceiptURL  string
}

type PaymentDetails struct {
	AmountPaid      float64
	Method          models.PaymentMethod
	PaymentDate     time.Time
	ReferenceNumber *string
	ProofName       *string
	ProofURL        *string
}

// Result describes the mutation a transition produces. The store
// persists all of it in one transaction or none of it.
type Result struct {
	NewStatus     models.RequisitionStatus
	NewStage      int
	Approval      *models.Approval
	LogEntry      models.ActivityLogEntry
	Payment       *models.Payment
	ReceiptName   *string
	ReceiptURL    *string
	ReceiptUpload *time.Time
}

func logEntry(req models.Requisition, in TransitionInput, action string) models.ActivityLogEntry {
	var details *string
	if s := strings.TrimSpace(in.Comments); s != "" {
		details = &s
	}
	return models.ActivityLogEntry{
		RequisitionID: req.ID,
		UserID:        in.Actor.ID,
		UserName:      in.Actor.Name,
		Action:        action,
		Details:       details,
		Timestamp:     in.Now,
	}
}

func approvalEntry(req models.Requisition, in TransitionInput, status models.ApprovalStatus) *models.Approval {
	var comments *string
	if s := strings.TrimSpace(in.Comments); s != "" {
		comments = &s
	}
	return &models.Approval{
		RequisitionID: req.ID,
		ApproverID:    in.Actor.ID,
		ApproverName:  in.Actor.Name,
		Status:        status,
		Comments:      comments,
		Stage:         req.ApprovalStage,
		CreatedAt:     in.Now,
	}
}

// Apply validates a transition against the state machine and returns
// the resulting mutation. It never touches storage; failures leave the
// requisition untouched.
func Apply(req models.Requisition, in TransitionInput) (*Result, error) {
	if req.Status.Terminal() {
		return nil, InvalidTransition("requisition is " + string(req.Status) + " and can no longer change")
	}

	switch in.Action {
	case ActionApprove, ActionReject, ActionRequestChanges:
		return applyReview(req, in)
	case ActionDisburse:
		return applyDisburse(req, in)
	case ActionUploadReceipt:
		return applyUploadReceipt(req, in)
	case ActionVerify, ActionRequestCorrection:
		return applyVerify(req, in)
	case ActionResubmit:
		return applyResubmit(req, in)
	}
	return nil, Validation("unknown workflow action")
}

func applyReview(req models.Requisition, in TransitionInput) (*Result, error) {
	if req.Status != models.StatusPending && req.Status != models.StatusApprovedByDeptHead {
		return nil, InvalidTransition("requisition is not awaiting review")
	}
	if HasActed(req, in.Actor.ID) {
		return nil, Forbidden("you have already acted on this requisition")
	}
	if !CanAct(in.Actor, in.Requester, req, in.Action) {
		return nil, Forbidden("you are not eligible to review this requisition")
	}

	res := &Result{NewStage: req.ApprovalStage}

	switch in.Action {
	case ActionApprove:
		if req.Status == models.StatusPending && in.Actor.Role == models.RoleDepartmentHead {
			res.NewStatus = models.StatusApprovedByDeptHead
		} else {
			// Section President approval, either the second stage or the
			// skipped first stage when the requester heads a department.
			res.NewStatus = models.StatusApprovedBySectionPresident
		}
		res.Approval = approvalEntry(req, in, models.ApprovalApproved)
		res.LogEntry = logEntry(req, in, "Approved")

	case ActionReject:
		if strings.TrimSpace(in.Comments) == "" {
			return nil, Validation("comments are required for rejection")
		}
		res.NewStatus = models.StatusRejected
		res.Approval = approvalEntry(req, in, models.ApprovalRejected)
		res.LogEntry = logEntry(req, in, "Rejected")

	case ActionRequestChanges:
		if strings.TrimSpace(in.Comments) == "" {
			return nil, Validation("comments are required when requesting changes")
		}
		res.NewStatus = models.StatusChangesRequested
		res.Approval = approvalEntry(req, in, models.ApprovalRequestedChanges)
		res.LogEntry = logEntry(req, in, "Requested Changes")
	}

	return res, nil
}

func applyDisburse(req models.Requisition, in TransitionInput) (*Result, error) {
	if req.Status != models.StatusApprovedBySectionPresident {
		return nil, InvalidTransition("requisition is not approved for disbursement")
	}
	if !CanAct(in.Actor, in.Requester, req, ActionDisburse) {
		return nil, Forbidden("only Finance of the requisition's section may disburse")
	}
	if req.Payment != nil {
		return nil, InvalidTransition("payment has already been recorded")
	}
	if in.Payment == nil {
		return nil, Validation("payment details are required")
	}
	if in.Payment.AmountPaid <= 0 {
		return nil, Validation("amount paid must be greater than zero")
	}
	switch in.Payment.Method {
	case models.PaymentTransfer, models.PaymentCash, models.PaymentCheque:
	default:
		return nil, Validation("payment method must be set")
	}

	payment := &models.Payment{
		RequisitionID:   req.ID,
		AmountPaid:      in.Payment.AmountPaid,
		Method:          in.Payment.Method,
		PaymentDate:     in.Payment.PaymentDate,
		ReferenceNumber: in.Payment.ReferenceNumber,
		ProofName:       in.Payment.ProofName,
		ProofURL:        in.Payment.ProofURL,
		RecordedByID:    in.Actor.ID,
		CreatedAt:       in.Now,
	}

	return &Result{
		NewStatus: models.StatusAwaitingReceipt,
		NewStage:  req.ApprovalStage,
		Payment:   payment,
		LogEntry:  logEntry(req, in, "Disbursed"),
	}, nil
}

func applyUploadReceipt(req models.Requisition, in TransitionInput) (*Result, error) {
	if req.Status != models.StatusAwaitingReceipt && req.Status != models.StatusReceiptCorrectionRequested {
		return nil, InvalidTransition("requisition is not awaiting a receipt")
	}
	if in.Actor.ID != req.RequestedByID {
		return nil, Forbidden("only the original requester may upload the receipt")
	}
	name := strings.TrimSpace(in.ReceiptName)
	if name == "" {
		return nil, Validation("a receipt file reference is required")
	}
	url := strings.TrimSpace(in.ReceiptURL)

	now := in.Now
	return &Result{
		NewStatus:     models.StatusPendingFinanceVerification,
		NewStage:      req.ApprovalStage,
		ReceiptName:   &name,
		ReceiptURL:    &url,
		ReceiptUpload: &now,
		LogEntry:      logEntry(req, in, "Receipt Uploaded"),
	}, nil
}

func applyVerify(req models.Requisition, in TransitionInput) (*Result, error) {
	if req.Status != models.StatusPendingFinanceVerification {
		return nil, InvalidTransition("requisition is not pending finance verification")
	}
	if !CanAct(in.Actor, in.Requester, req, in.Action) {
		return nil, Forbidden("only Finance of the requisition's section may verify the receipt")
	}

	if in.Action == ActionVerify {
		return &Result{
			NewStatus: models.StatusCompleted,
			NewStage:  req.ApprovalStage,
			LogEntry:  logEntry(req, in, "Receipt Verified"),
		}, nil
	}

	if strings.TrimSpace(in.Comments) == "" {
		return nil, Validation("comments are required when requesting a receipt correction")
	}
	return &Result{
		NewStatus: models.StatusReceiptCorrectionRequested,
		NewStage:  req.ApprovalStage,
		LogEntry:  logEntry(req, in, "Receipt Correction Requested"),
	}, nil
}

func applyResubmit(req models.Requisition, in TransitionInput) (*Result, error) {
	if req.Status != models.StatusChangesRequested {
		return nil, InvalidTransition("requisition is not awaiting changes")
	}
	if in.Actor.ID != req.RequestedByID {
		return nil, Forbidden("only the original requester may resubmit")
	}

	// New pending stage: earlier approvals no longer block re-review.
	return &Result{
		NewStatus: models.StatusPending,
		NewStage:  req.ApprovalStage + 1,
		LogEntry:  logEntry(req, in, "Resubmitted"),
	}, nil
}
