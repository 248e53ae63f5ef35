package requisition

import (
	"errors"
	"sync"
	"time"

	"churchflow-backend/internal/models"
	"churchflow-backend/internal/workflow"

	"gorm.io/gorm"
)

// Transitions on the same requisition are serialized through a per-id
// mutex; different requisitions proceed in parallel. The version column
// check inside the transaction is the backstop for writers outside this
// process.
var (
	locksMu sync.Mutex
	locks   = make(map[string]*sync.Mutex)
)

func lockFor(id string) *sync.Mutex {
	locksMu.Lock()
	defer locksMu.Unlock()
	l, ok := locks[id]
	if !ok {
		l = &sync.Mutex{}
		locks[id] = l
	}
	return l
}

func preloaded(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("ActivityLog", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp asc, id asc") }).
		Preload("Attachments").
		Preload("Payment")
}

func GetByID(db *gorm.DB, id string) (*models.Requisition, error) {
	var req models.Requisition
	if err := preloaded(db).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.NotFound("requisition not found")
		}
		return nil, err
	}
	return &req, nil
}

type Filter struct {
	ChurchID      string
	SectionID     string
	DepartmentID  string
	RequestedByID string
	Status        string
}

func List(db *gorm.DB, f Filter) ([]models.Requisition, error) {
	dbq := preloaded(db).Model(&models.Requisition{})

	if f.ChurchID != "" {
		dbq = dbq.Where("church_id = ?", f.ChurchID)
	}
	if f.SectionID != "" {
		dbq = dbq.Where("section_id = ?", f.SectionID)
	}
	if f.DepartmentID != "" {
		dbq = dbq.Where("department_id = ?", f.DepartmentID)
	}
	if f.RequestedByID != "" {
		dbq = dbq.Where("requested_by_id = ?", f.RequestedByID)
	}
	if f.Status != "" {
		dbq = dbq.Where("status = ?", f.Status)
	}

	var rows []models.Requisition
	if err := dbq.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create persists a new Pending requisition together with its
// attachments and the opening activity-log entry.
func Create(db *gorm.DB, req *models.Requisition, requester *models.User) error {
	now := time.Now()
	req.Status = models.StatusPending
	req.ApprovalStage = 1
	req.CreatedAt = now

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return err
		}
		entry := models.ActivityLogEntry{
			RequisitionID: req.ID,
			UserID:        requester.ID,
			UserName:      requester.Name,
			Action:        "Created",
			Timestamp:     now,
		}
		return tx.Create(&entry).Error
	})
}

// ApplyTransition runs one workflow step atomically: load, validate
// through the engine, persist status + approval + activity log (and
// payment plus its ledger entry on disbursement) in a single
// transaction. Either all of it commits or none of it does.
func ApplyTransition(db *gorm.DB, id string, actor *models.User, in workflow.TransitionInput) (*models.Requisition, error) {
	l := lockFor(id)
	l.Lock()
	defer l.Unlock()

	var result *workflow.Result

	err := db.Transaction(func(tx *gorm.DB) error {
		req, err := GetByID(tx, id)
		if err != nil {
			return err
		}

		var requester models.User
		if err := tx.First(&requester, "id = ?", req.RequestedByID).Error; err != nil {
			return workflow.NotFound("the requisition's requester no longer exists")
		}

		in.Actor = *actor
		in.Requester = requester
		if in.Now.IsZero() {
			in.Now = time.Now()
		}

		result, err = workflow.Apply(*req, in)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":         result.NewStatus,
			"approval_stage": result.NewStage,
			"version":        req.Version + 1,
			"updated_at":     in.Now,
		}
		if result.ReceiptName != nil {
			updates["receipt_name"] = *result.ReceiptName
			updates["receipt_url"] = *result.ReceiptURL
			updates["receipt_uploaded_at"] = *result.ReceiptUpload
		}

		res := tx.Model(&models.Requisition{}).
			Where("id = ? AND version = ?", req.ID, req.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return workflow.Conflict("the requisition was changed by a concurrent request, try again")
		}

		if result.Approval != nil {
			if err := tx.Create(result.Approval).Error; err != nil {
				return err
			}
		}
		if result.Payment != nil {
			if err := tx.Create(result.Payment).Error; err != nil {
				return err
			}
			ledger := models.LedgerEntry{
				ChurchID:      req.ChurchID,
				SectionID:     req.SectionID,
				Direction:     models.LedgerOut,
				Amount:        result.Payment.AmountPaid,
				Description:   "Disbursement: " + req.Title,
				Date:          result.Payment.PaymentDate,
				RecordedByID:  actor.ID,
				RequisitionID: &req.ID,
			}
			if err := tx.Create(&ledger).Error; err != nil {
				return err
			}
		}

		entry := result.LogEntry
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	return GetByID(db, id)
}
