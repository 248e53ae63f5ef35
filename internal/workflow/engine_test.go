package workflow

import (
	"testing"
	"time"

	"churchflow-backend/internal/models"
)

var (
	churchID  = "11111111-1111-1111-1111-111111111111"
	sectionID = "22222222-2222-2222-2222-222222222222"
	deptID    = "33333333-3333-3333-3333-333333333333"
)

func member(id string) models.User {
	return models.User{ID: id, Name: "Member " + id, Role: models.RoleMember, ChurchID: &churchID, SectionID: &sectionID, DepartmentID: &deptID}
}

func deptHead(id string) models.User {
	return models.User{ID: id, Name: "Head " + id, Role: models.RoleDepartmentHead, ChurchID: &churchID, SectionID: &sectionID, DepartmentID: &deptID}
}

func sectionPresident(id string) models.User {
	return models.User{ID: id, Name: "President " + id, Role: models.RoleSectionPresident, ChurchID: &churchID, SectionID: &sectionID}
}

func financeOfficer(id string) models.User {
	return models.User{ID: id, Name: "Finance " + id, Role: models.RoleFinance, ChurchID: &churchID, SectionID: &sectionID}
}

func pendingRequisition(requester models.User) models.Requisition {
	return models.Requisition{
		ID:              "req-1",
		ChurchID:        churchID,
		SectionID:       sectionID,
		DepartmentID:    deptID,
		RequestedByID:   requester.ID,
		Title:           "Sound equipment",
		AmountRequested: 5000,
		Category:        "Equipment",
		Status:          models.StatusPending,
		ApprovalStage:   1,
	}
}

// advance applies a step and folds the result back into the requisition
// the way the store persists it.
func advance(t *testing.T, req *models.Requisition, in TransitionInput) *Result {
	t.Helper()
	res, err := Apply(*req, in)
	if err != nil {
		t.Fatalf("Apply(%s) failed: %v", in.Action, err)
	}
	req.Status = res.NewStatus
	req.ApprovalStage = res.NewStage
	if res.Approval != nil {
		req.Approvals = append(req.Approvals, *res.Approval)
	}
	req.ActivityLog = append(req.ActivityLog, res.LogEntry)
	if res.Payment != nil {
		req.Payment = res.Payment
	}
	if res.ReceiptName != nil {
		req.ReceiptName = res.ReceiptName
		req.ReceiptURL = res.ReceiptURL
		req.ReceiptUploadedAt = res.ReceiptUpload
	}
	return res
}

func expectCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	code, ok := CodeOf(err)
	if !ok {
		t.Fatalf("expected a workflow error, got %v", err)
	}
	if code != want {
		t.Fatalf("expected code %s, got %s (%v)", want, code, err)
	}
}

func TestFullLifecycle(t *testing.T) {
	requester := member("u-member")
	head := deptHead("u-head")
	president := sectionPresident("u-president")
	officer := financeOfficer("u-finance")

	req := pendingRequisition(requester)
	now := time.Now()

	advance(t, &req, TransitionInput{Actor: head, Requester: requester, Action: ActionApprove, Now: now})
	if req.Status != models.StatusApprovedByDeptHead {
		t.Fatalf("after head approval status = %s", req.Status)
	}
	if len(req.Approvals) != 1 || req.Approvals[0].Status != models.ApprovalApproved {
		t.Fatalf("unexpected approvals: %+v", req.Approvals)
	}

	advance(t, &req, TransitionInput{Actor: president, Requester: requester, Action: ActionApprove, Now: now.Add(time.Minute)})
	if req.Status != models.StatusApprovedBySectionPresident {
		t.Fatalf("after president approval status = %s", req.Status)
	}

	advance(t, &req, TransitionInput{
		Actor: officer, Requester: requester, Action: ActionDisburse, Now: now.Add(2 * time.Minute),
		Payment: &PaymentDetails{AmountPaid: 5000, Method: models.PaymentTransfer, PaymentDate: now},
	})
	if req.Status != models.StatusAwaitingReceipt {
		t.Fatalf("after disbursement status = %s", req.Status)
	}
	if req.Payment == nil || req.Payment.AmountPaid != 5000 {
		t.Fatalf("payment not recorded: %+v", req.Payment)
	}

	advance(t, &req, TransitionInput{
		Actor: requester, Requester: requester, Action: ActionUploadReceipt, Now: now.Add(3 * time.Minute),
		ReceiptName: "receipt.pdf", ReceiptURL: "https://files.example/receipt.pdf",
	})
	if req.Status != models.StatusPendingFinanceVerification {
		t.Fatalf("after receipt upload status = %s", req.Status)
	}

	advance(t, &req, TransitionInput{Actor: officer, Requester: requester, Action: ActionVerify, Now: now.Add(4 * time.Minute)})
	if req.Status != models.StatusCompleted {
		t.Fatalf("after verification status = %s", req.Status)
	}

	// Terminal: nothing moves anymore.
	_, err := Apply(req, TransitionInput{Actor: officer, Requester: requester, Action: ActionVerify, Now: now})
	expectCode(t, err, CodeInvalidTransition)

	// Every step landed in the activity log, in order.
	if len(req.ActivityLog) != 5 {
		t.Fatalf("expected 5 activity entries, got %d", len(req.ActivityLog))
	}
	for i := 1; i < len(req.ActivityLog); i++ {
		if req.ActivityLog[i].Timestamp.Before(req.ActivityLog[i-1].Timestamp) {
			t.Fatalf("activity log out of order at %d", i)
		}
	}
}

func TestDeptHeadRequesterSkipsDeptStage(t *testing.T) {
	requester := deptHead("u-head-requester")
	president := sectionPresident("u-president")
	otherHead := deptHead("u-other-head")

	req := pendingRequisition(requester)

	// Another department head may not act on a head's own requisition.
	_, err := Apply(req, TransitionInput{Actor: otherHead, Requester: requester, Action: ActionApprove, Now: time.Now()})
	expectCode(t, err, CodeForbidden)

	// The section president's first approval jumps the dept-head stage.
	advance(t, &req, TransitionInput{Actor: president, Requester: requester, Action: ActionApprove, Now: time.Now()})
	if req.Status != models.StatusApprovedBySectionPresident {
		t.Fatalf("expected Approved by Section President, got %s", req.Status)
	}
}

func TestApproverActsAtMostOnce(t *testing.T) {
	requester := member("u-member")
	head := deptHead("u-head")

	req := pendingRequisition(requester)
	advance(t, &req, TransitionInput{Actor: head, Requester: requester, Action: ActionApprove, Now: time.Now()})

	_, err := Apply(req, TransitionInput{Actor: head, Requester: requester, Action: ActionApprove, Now: time.Now()})
	expectCode(t, err, CodeForbidden)
}

func TestRejectRequiresComment(t *testing.T) {
	requester := member("u-member")
	head := deptHead("u-head")

	req := pendingRequisition(requester)
	_, err := Apply(req, TransitionInput{Actor: head, Requester: requester, Action: ActionReject, Comments: "   ", Now: time.Now()})
	expectCode(t, err, CodeValidation)
	if req.Status != models.StatusPending {
		t.Fatalf("failed transition mutated status to %s", req.Status)
	}

	_, err = Apply(req, TransitionInput{Actor: head, Requester: requester, Action: ActionRequestChanges, Now: time.Now()})
	expectCode(t, err, CodeValidation)
}

func TestResubmitOpensNewStage(t *testing.T) {
	requester := member("u-member")
	head := deptHead("u-head")

	req := pendingRequisition(requester)
	advance(t, &req, TransitionInput{Actor: head, Requester: requester, Action: ActionRequestChanges, Comments: "add quotes", Now: time.Now()})
	if req.Status != models.StatusChangesRequested {
		t.Fatalf("expected Changes Requested, got %s", req.Status)
	}

	// Only the requester may resubmit.
	_, err := Apply(req, TransitionInput{Actor: head, Requester: requester, Action: ActionResubmit, Now: time.Now()})
	expectCode(t, err, CodeForbidden)

	advance(t, &req, TransitionInput{Actor: requester, Requester: requester, Action: ActionResubmit, Now: time.Now()})
	if req.Status != models.StatusPending {
		t.Fatalf("expected Pending after resubmit, got %s", req.Status)
	}
	if req.ApprovalStage != 2 {
		t.Fatalf("expected stage 2 after resubmit, got %d", req.ApprovalStage)
	}

	// The head acted in stage 1 and is eligible again in stage 2.
	advance(t, &req, TransitionInput{Actor: head, Requester: requester, Action: ActionApprove, Now: time.Now()})
	if req.Status != models.StatusApprovedByDeptHead {
		t.Fatalf("expected Approved by Dept. Head, got %s", req.Status)
	}
}

func TestDisbursePreconditions(t *testing.T) {
	requester := member("u-member")
	head := deptHead("u-head")
	president := sectionPresident("u-president")
	officer := financeOfficer("u-finance")
	now := time.Now()

	req := pendingRequisition(requester)

	// Not yet approved.
	_, err := Apply(req, TransitionInput{
		Actor: officer, Requester: requester, Action: ActionDisburse,
		Payment: &PaymentDetails{AmountPaid: 100, Method: models.PaymentCash, PaymentDate: now},
	})
	expectCode(t, err, CodeInvalidTransition)

	advance(t, &req, TransitionInput{Actor: head, Requester: requester, Action: ActionApprove, Now: now})
	advance(t, &req, TransitionInput{Actor: president, Requester: requester, Action: ActionApprove, Now: now})

	// Only Finance of the section.
	_, err = Apply(req, TransitionInput{
		Actor: president, Requester: requester, Action: ActionDisburse,
		Payment: &PaymentDetails{AmountPaid: 100, Method: models.PaymentCash, PaymentDate: now},
	})
	expectCode(t, err, CodeForbidden)

	// Amount and method are mandatory.
	_, err = Apply(req, TransitionInput{
		Actor: officer, Requester: requester, Action: ActionDisburse,
		Payment: &PaymentDetails{AmountPaid: 0, Method: models.PaymentCash, PaymentDate: now},
	})
	expectCode(t, err, CodeValidation)

	_, err = Apply(req, TransitionInput{
		Actor: officer, Requester: requester, Action: ActionDisburse,
		Payment: &PaymentDetails{AmountPaid: 100, PaymentDate: now},
	})
	expectCode(t, err, CodeValidation)
}

func TestReceiptCorrectionRoundTrip(t *testing.T) {
	requester := member("u-member")
	head := deptHead("u-head")
	president := sectionPresident("u-president")
	officer := financeOfficer("u-finance")
	now := time.Now()

	req := pendingRequisition(requester)
	advance(t, &req, TransitionInput{Actor: head, Requester: requester, Action: ActionApprove, Now: now})
	advance(t, &req, TransitionInput{Actor: president, Requester: requester, Action: ActionApprove, Now: now})
	advance(t, &req, TransitionInput{
		Actor: officer, Requester: requester, Action: ActionDisburse, Now: now,
		Payment: &PaymentDetails{AmountPaid: 5000, Method: models.PaymentCheque, PaymentDate: now},
	})

	// Only the requester uploads.
	_, err := Apply(req, TransitionInput{Actor: officer, Requester: requester, Action: ActionUploadReceipt, ReceiptName: "r.pdf", Now: now})
	expectCode(t, err, CodeForbidden)

	advance(t, &req, TransitionInput{Actor: requester, Requester: requester, Action: ActionUploadReceipt, ReceiptName: "r.pdf", Now: now})

	// Correction requires a comment.
	_, err = Apply(req, TransitionInput{Actor: officer, Requester: requester, Action: ActionRequestCorrection, Now: now})
	expectCode(t, err, CodeValidation)

	advance(t, &req, TransitionInput{Actor: officer, Requester: requester, Action: ActionRequestCorrection, Comments: "receipt is unreadable", Now: now})
	if req.Status != models.StatusReceiptCorrectionRequested {
		t.Fatalf("expected Receipt Correction Requested, got %s", req.Status)
	}

	// Re-upload replaces the receipt and goes back to verification.
	advance(t, &req, TransitionInput{Actor: requester, Requester: requester, Action: ActionUploadReceipt, ReceiptName: "r2.pdf", Now: now})
	if req.Status != models.StatusPendingFinanceVerification {
		t.Fatalf("expected Pending Finance Verification, got %s", req.Status)
	}
	if req.ReceiptName == nil || *req.ReceiptName != "r2.pdf" {
		t.Fatalf("receipt was not replaced: %+v", req.ReceiptName)
	}

	advance(t, &req, TransitionInput{Actor: officer, Requester: requester, Action: ActionVerify, Now: now})
	if req.Status != models.StatusCompleted {
		t.Fatalf("expected Completed, got %s", req.Status)
	}
}
