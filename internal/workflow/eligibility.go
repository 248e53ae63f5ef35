package workflow

import (
	"churchflow-backend/internal/models"
)

type Action string

const (
	ActionApprove           Action = "APPROVE"
	ActionReject            Action = "REJECT"
	ActionRequestChanges    Action = "REQUEST_CHANGES"
	ActionDisburse          Action = "DISBURSE"
	ActionUploadReceipt     Action = "UPLOAD_RECEIPT"
	ActionVerify            Action = "VERIFY"
	ActionRequestCorrection Action = "REQUEST_CORRECTION"
	ActionResubmit          Action = "RESUBMIT"
)

func sameSection(u models.User, req models.Requisition) bool {
	return u.SectionID != nil && *u.SectionID == req.SectionID
}

func sameDepartment(u models.User, req models.Requisition) bool {
	return u.DepartmentID != nil && *u.DepartmentID == req.DepartmentID
}

// HasActed reports whether the approver already acted during the
// current approval stage. Resubmission bumps the stage, so earlier
// approvals stop counting.
func HasActed(req models.Requisition, approverID string) bool {
	for _, a := range req.Approvals {
		if a.ApproverID == approverID && a.Stage == req.ApprovalStage {
			return true
		}
	}
	return false
}

// CanAct is the single eligibility decision table. It is a pure
// function of (actor, requester, requisition, action); handlers and the
// engine both consult it instead of re-deriving role checks.
func CanAct(actor models.User, requester models.User, req models.Requisition, action Action) bool {
	switch action {
	case ActionApprove, ActionReject, ActionRequestChanges:
		if HasActed(req, actor.ID) {
			return false
		}
		switch req.Status {
		case models.StatusPending:
			// A requisition raised by a Department Head skips the
			// department stage: only the Section President may act.
			if requester.Role == models.RoleDepartmentHead {
				return actor.Role == models.RoleSectionPresident && sameSection(actor, req)
			}
			return actor.Role == models.RoleDepartmentHead && sameDepartment(actor, req)
		case models.StatusApprovedByDeptHead:
			return actor.Role == models.RoleSectionPresident && sameSection(actor, req)
		}
		return false

	case ActionDisburse:
		return req.Status == models.StatusApprovedBySectionPresident &&
			actor.Role == models.RoleFinance && sameSection(actor, req)

	case ActionUploadReceipt:
		return (req.Status == models.StatusAwaitingReceipt || req.Status == models.StatusReceiptCorrectionRequested) &&
			actor.ID == req.RequestedByID

	case ActionVerify, ActionRequestCorrection:
		return req.Status == models.StatusPendingFinanceVerification &&
			actor.Role == models.RoleFinance && sameSection(actor, req)

	case ActionResubmit:
		return req.Status == models.StatusChangesRequested && actor.ID == req.RequestedByID
	}

	return false
}

// CanView implements the read-side visibility rules: Members see their
// own requisitions, Department Heads their department, Section
// Presidents and Finance their section, scoped Auditors their section,
// unscoped Auditors and Super Admins their church, App Owners all.
func CanView(actor models.User, req models.Requisition) bool {
	switch actor.Role {
	case models.RoleAppOwner:
		return true
	case models.RoleSuperAdmin:
		return actor.ChurchID != nil && *actor.ChurchID == req.ChurchID
	case models.RoleAuditor:
		if actor.SectionID != nil {
			return *actor.SectionID == req.SectionID
		}
		return actor.ChurchID != nil && *actor.ChurchID == req.ChurchID
	case models.RoleSectionPresident, models.RoleFinance:
		return sameSection(actor, req)
	case models.RoleDepartmentHead:
		return sameDepartment(actor, req)
	case models.RoleMember:
		return actor.ID == req.RequestedByID
	}
	return false
}
