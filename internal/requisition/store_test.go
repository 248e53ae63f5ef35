package requisition

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"churchflow-backend/internal/models"
	"churchflow-backend/internal/workflow"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db        *gorm.DB
	church    models.Church
	section   models.Section
	dept      models.Department
	requester models.User
	head      models.User
	president models.User
	officer   models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.Church{}, &models.Section{}, &models.Department{}, &models.User{},
		&models.Requisition{}, &models.Approval{}, &models.ActivityLogEntry{},
		&models.Attachment{}, &models.Payment{}, &models.LedgerEntry{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{db: db}
	f.church = models.Church{Name: "Grace Chapel", SubscriptionStatus: models.SubscriptionActive, SubscriptionEndsAt: time.Now().AddDate(1, 0, 0)}
	if err := db.Create(&f.church).Error; err != nil {
		t.Fatalf("seed church: %v", err)
	}
	f.section = models.Section{ChurchID: f.church.ID, Name: "Youth"}
	if err := db.Create(&f.section).Error; err != nil {
		t.Fatalf("seed section: %v", err)
	}
	f.dept = models.Department{SectionID: f.section.ID, Name: "Music"}
	if err := db.Create(&f.dept).Error; err != nil {
		t.Fatalf("seed department: %v", err)
	}

	f.requester = f.newUser(t, "requester@example.com", models.RoleMember, &f.section.ID, &f.dept.ID)
	f.head = f.newUser(t, "head@example.com", models.RoleDepartmentHead, &f.section.ID, &f.dept.ID)
	f.president = f.newUser(t, "president@example.com", models.RoleSectionPresident, &f.section.ID, nil)
	f.officer = f.newUser(t, "finance@example.com", models.RoleFinance, &f.section.ID, nil)
	return f
}

func (f *fixture) newUser(t *testing.T, email string, role models.UserRole, sectionID, deptID *string) models.User {
	t.Helper()
	u := models.User{
		ChurchID:     &f.church.ID,
		SectionID:    sectionID,
		DepartmentID: deptID,
		Name:         email,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
	}
	if err := f.db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func (f *fixture) newRequisition(t *testing.T, requester models.User) *models.Requisition {
	t.Helper()
	req := &models.Requisition{
		ChurchID:        f.church.ID,
		SectionID:       f.section.ID,
		DepartmentID:    f.dept.ID,
		RequestedByID:   requester.ID,
		Title:           "Microphone stands",
		AmountRequested: 1200,
		Category:        "Equipment",
		Purpose:         "Replace broken stands",
		DateNeeded:      time.Now().AddDate(0, 0, 14),
	}
	if err := Create(f.db, req, &requester); err != nil {
		t.Fatalf("create requisition: %v", err)
	}
	return req
}

func TestCreateOpensPendingWithLogEntry(t *testing.T) {
	f := newFixture(t)
	req := f.newRequisition(t, f.requester)

	got, err := GetByID(f.db, req.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Fatalf("status = %s, want Pending", got.Status)
	}
	if got.ApprovalStage != 1 {
		t.Fatalf("stage = %d, want 1", got.ApprovalStage)
	}
	if len(got.ActivityLog) != 1 || got.ActivityLog[0].Action != "Created" {
		t.Fatalf("unexpected activity log: %+v", got.ActivityLog)
	}
	if got.ActivityLog[0].UserName != f.requester.Name {
		t.Fatalf("log entry lost the requester's name: %+v", got.ActivityLog[0])
	}
}

func TestGetByIDUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := GetByID(f.db, "00000000-0000-0000-0000-000000000000")
	code, ok := workflow.CodeOf(err)
	if !ok || code != workflow.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	first := f.newRequisition(t, f.requester)
	f.newRequisition(t, f.head)

	all, err := List(f.db, Filter{ChurchID: f.church.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 requisitions, got %d", len(all))
	}

	mine, err := List(f.db, Filter{RequestedByID: f.requester.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != first.ID {
		t.Fatalf("requester filter returned %+v", mine)
	}

	none, err := List(f.db, Filter{Status: string(models.StatusCompleted)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no completed requisitions, got %d", len(none))
	}
}

func TestTransitionPersistsApprovalAndLog(t *testing.T) {
	f := newFixture(t)
	req := f.newRequisition(t, f.requester)

	got, err := ApplyTransition(f.db, req.ID, &f.head, workflow.TransitionInput{Action: workflow.ActionApprove})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != models.StatusApprovedByDeptHead {
		t.Fatalf("status = %s", got.Status)
	}
	if got.Version != req.Version+1 {
		t.Fatalf("version = %d, want %d", got.Version, req.Version+1)
	}
	if len(got.Approvals) != 1 || got.Approvals[0].ApproverName != f.head.Name {
		t.Fatalf("approvals = %+v", got.Approvals)
	}
	if len(got.ActivityLog) != 2 || got.ActivityLog[1].Action != "Approved" {
		t.Fatalf("activity log = %+v", got.ActivityLog)
	}
}

func TestDisbursementWritesLedger(t *testing.T) {
	f := newFixture(t)
	req := f.newRequisition(t, f.requester)

	if _, err := ApplyTransition(f.db, req.ID, &f.head, workflow.TransitionInput{Action: workflow.ActionApprove}); err != nil {
		t.Fatalf("head approve: %v", err)
	}
	if _, err := ApplyTransition(f.db, req.ID, &f.president, workflow.TransitionInput{Action: workflow.ActionApprove}); err != nil {
		t.Fatalf("president approve: %v", err)
	}

	got, err := ApplyTransition(f.db, req.ID, &f.officer, workflow.TransitionInput{
		Action: workflow.ActionDisburse,
		Payment: &workflow.PaymentDetails{
			AmountPaid:  1150,
			Method:      models.PaymentTransfer,
			PaymentDate: time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("disburse: %v", err)
	}
	if got.Status != models.StatusAwaitingReceipt {
		t.Fatalf("status = %s", got.Status)
	}
	if got.Payment == nil || got.Payment.AmountPaid != 1150 {
		t.Fatalf("payment = %+v", got.Payment)
	}

	var entries []models.LedgerEntry
	if err := f.db.Where("requisition_id = ?", req.ID).Find(&entries).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].Direction != models.LedgerOut || entries[0].Amount != 1150 {
		t.Fatalf("ledger entry = %+v", entries[0])
	}
	if entries[0].SectionID != f.section.ID {
		t.Fatalf("ledger entry recorded against section %s", entries[0].SectionID)
	}
}

func TestResubmitRestartsApprovalStage(t *testing.T) {
	f := newFixture(t)
	req := f.newRequisition(t, f.requester)

	if _, err := ApplyTransition(f.db, req.ID, &f.head, workflow.TransitionInput{
		Action:   workflow.ActionRequestChanges,
		Comments: "attach two quotes",
	}); err != nil {
		t.Fatalf("request changes: %v", err)
	}

	got, err := ApplyTransition(f.db, req.ID, &f.requester, workflow.TransitionInput{Action: workflow.ActionResubmit})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if got.Status != models.StatusPending || got.ApprovalStage != 2 {
		t.Fatalf("after resubmit: status=%s stage=%d", got.Status, got.ApprovalStage)
	}

	// Same head reviews again in the new stage.
	got, err = ApplyTransition(f.db, req.ID, &f.head, workflow.TransitionInput{Action: workflow.ActionApprove})
	if err != nil {
		t.Fatalf("second review: %v", err)
	}
	if got.Status != models.StatusApprovedByDeptHead {
		t.Fatalf("status = %s", got.Status)
	}
	// The stage-1 record stays for the audit trail.
	if len(got.Approvals) != 2 {
		t.Fatalf("approvals = %+v", got.Approvals)
	}
}

func TestConcurrentApprovalsExactlyOneWins(t *testing.T) {
	f := newFixture(t)

	// A department head's own requisition goes straight to the section
	// president, so two presidents racing is the tightest case.
	secondPresident := f.newUser(t, "president2@example.com", models.RoleSectionPresident, &f.section.ID, nil)
	req := f.newRequisition(t, f.head)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, actor := range []models.User{f.president, secondPresident} {
		wg.Add(1)
		go func(i int, actor models.User) {
			defer wg.Done()
			_, errs[i] = ApplyTransition(f.db, req.ID, &actor, workflow.TransitionInput{Action: workflow.ActionApprove})
		}(i, actor)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err == nil {
			continue
		}
		failures++
		code, ok := workflow.CodeOf(err)
		if !ok {
			t.Fatalf("loser got a non-workflow error: %v", err)
		}
		if code != workflow.CodeInvalidTransition && code != workflow.CodeConflict {
			t.Fatalf("loser got code %s: %v", code, err)
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly one loser, got %d failures (%v)", failures, errs)
	}

	got, err := GetByID(f.db, req.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.StatusApprovedBySectionPresident {
		t.Fatalf("final status = %s", got.Status)
	}
	if len(got.Approvals) != 1 {
		t.Fatalf("expected a single approval, got %d", len(got.Approvals))
	}
}

func TestTerminalRequisitionRejectsAllActions(t *testing.T) {
	f := newFixture(t)
	req := f.newRequisition(t, f.requester)

	if _, err := ApplyTransition(f.db, req.ID, &f.head, workflow.TransitionInput{
		Action:   workflow.ActionReject,
		Comments: "outside this quarter's budget",
	}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, err := ApplyTransition(f.db, req.ID, &f.requester, workflow.TransitionInput{Action: workflow.ActionResubmit})
	code, ok := workflow.CodeOf(err)
	if !ok || code != workflow.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition on a rejected requisition, got %v", err)
	}
}
