package requisition

import (
	"time"

	"churchflow-backend/internal/auth"
	"churchflow-backend/internal/database"
	"churchflow-backend/internal/models"
	"churchflow-backend/internal/subscription"
	"churchflow-backend/internal/workflow"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

type CreateRequisitionRequest struct {
	Title           string          `json:"title" validate:"required"`
	AmountRequested float64         `json:"amount_requested" validate:"required,gt=0"`
	Category        string          `json:"category" validate:"required"`
	Purpose         string          `json:"purpose"`
	DateNeeded      string          `json:"date_needed" validate:"required"` // "2025-12-09"
	DepartmentID    string          `json:"department_id"`
	Attachments     []AttachmentDTO `json:"attachments" validate:"dive"`
}

type UpdateRequisitionRequest struct {
	Title           *string         `json:"title"`
	AmountRequested *float64        `json:"amount_requested"`
	Category        *string         `json:"category"`
	Purpose         *string         `json:"purpose"`
	DateNeeded      *string         `json:"date_needed"`
	Attachments     []AttachmentDTO `json:"attachments"`
}

func httpError(err error) error {
	if _, ok := workflow.CodeOf(err); ok {
		return fiber.NewError(workflow.HTTPStatus(err), err.Error())
	}
	return err
}

// POST /api/requisitions — Members and Department Heads submit spending
// requests for their own department. Blocked when the church's
// subscription has lapsed.
func CreateRequisitionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		if user.Role != models.RoleMember && user.Role != models.RoleDepartmentHead {
			return fiber.NewError(fiber.StatusForbidden, "Only Members and Department Heads may submit requisitions")
		}
		if user.ChurchID == nil || user.SectionID == nil || user.DepartmentID == nil {
			return fiber.NewError(fiber.StatusForbidden, "Your account is not assigned to a department")
		}

		var body CreateRequisitionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Title, category and a positive amount are required")
		}
		if body.DepartmentID != "" && body.DepartmentID != *user.DepartmentID {
			return fiber.NewError(fiber.StatusForbidden, "You may only submit requisitions for your own department")
		}

		dateNeeded, err := time.Parse("2006-01-02", body.DateNeeded)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date_needed must be 'YYYY-MM-DD'")
		}

		var church models.Church
		if err := database.DB.First(&church, "id = ?", *user.ChurchID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load your church")
		}
		if err := subscription.RequireActive(church, time.Now()); err != nil {
			return httpError(err)
		}

		req := models.Requisition{
			ChurchID:        *user.ChurchID,
			SectionID:       *user.SectionID,
			DepartmentID:    *user.DepartmentID,
			RequestedByID:   user.ID,
			Title:           body.Title,
			AmountRequested: body.AmountRequested,
			Category:        body.Category,
			Purpose:         body.Purpose,
			DateNeeded:      dateNeeded,
		}
		for _, att := range body.Attachments {
			req.Attachments = append(req.Attachments, models.Attachment{Name: att.Name, URL: att.URL})
		}

		if err := Create(database.DB, &req, user); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save the requisition")
		}

		created, err := GetByID(database.DB, req.ID)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(NewRequisitionResponse(created))
	}
}

// visibilityFilter narrows the list to what the caller's role may see.
func visibilityFilter(user *models.User) (Filter, error) {
	f := Filter{}
	switch user.Role {
	case models.RoleAppOwner:
		// platform-wide
	case models.RoleSuperAdmin:
		if user.ChurchID == nil {
			return f, fiber.NewError(fiber.StatusForbidden, "Your account is not assigned to a church")
		}
		f.ChurchID = *user.ChurchID
	case models.RoleAuditor:
		if user.SectionID != nil {
			f.SectionID = *user.SectionID
		} else if user.ChurchID != nil {
			f.ChurchID = *user.ChurchID
		} else {
			return f, fiber.NewError(fiber.StatusForbidden, "Your account is not assigned to a church")
		}
	case models.RoleSectionPresident, models.RoleFinance:
		if user.SectionID == nil {
			return f, fiber.NewError(fiber.StatusForbidden, "Your account is not assigned to a section")
		}
		f.SectionID = *user.SectionID
	case models.RoleDepartmentHead:
		if user.DepartmentID == nil {
			return f, fiber.NewError(fiber.StatusForbidden, "Your account is not assigned to a department")
		}
		f.DepartmentID = *user.DepartmentID
	case models.RoleMember:
		f.RequestedByID = user.ID
	default:
		return f, fiber.NewError(fiber.StatusForbidden, "Your role may not list requisitions")
	}
	return f, nil
}

// GET /api/requisitions?status=...
func ListRequisitionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		f, err := visibilityFilter(user)
		if err != nil {
			return err
		}
		f.Status = c.Query("status")

		rows, err := List(database.DB, f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list requisitions")
		}

		resp := make([]RequisitionResponse, 0, len(rows))
		for i := range rows {
			resp = append(resp, NewRequisitionResponse(&rows[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/requisitions/:id
func GetRequisitionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		req, err := GetByID(database.DB, c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		if !workflow.CanView(*user, *req) {
			return fiber.NewError(fiber.StatusForbidden, "You may not view this requisition")
		}

		return c.JSON(NewRequisitionResponse(req))
	}
}

// PUT /api/requisitions/:id — the requester edits a Pending
// requisition, or edits and resubmits one in Changes Requested.
func UpdateRequisitionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body UpdateRequisitionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		updated, err := Update(database.DB, c.Params("id"), user, body)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(NewRequisitionResponse(updated))
	}
}

// Update applies requester edits under the same per-id serialization as
// workflow transitions; an edit of a Changes Requested requisition is
// the Edit & Resubmit transition back to Pending.
func Update(db *gorm.DB, id string, actor *models.User, body UpdateRequisitionRequest) (*models.Requisition, error) {
	l := lockFor(id)
	l.Lock()
	defer l.Unlock()

	err := db.Transaction(func(tx *gorm.DB) error {
		req, err := GetByID(tx, id)
		if err != nil {
			return err
		}
		if actor.ID != req.RequestedByID {
			return workflow.Forbidden("only the original requester may edit a requisition")
		}
		if req.Status != models.StatusPending && req.Status != models.StatusChangesRequested {
			return workflow.InvalidTransition("requisition can only be edited while Pending or in Changes Requested")
		}

		now := time.Now()
		updates := map[string]interface{}{
			"version":    req.Version + 1,
			"updated_at": now,
		}
		if body.Title != nil {
			updates["title"] = *body.Title
		}
		if body.AmountRequested != nil {
			if *body.AmountRequested <= 0 {
				return workflow.Validation("amount_requested must be greater than zero")
			}
			updates["amount_requested"] = *body.AmountRequested
		}
		if body.Category != nil {
			updates["category"] = *body.Category
		}
		if body.Purpose != nil {
			updates["purpose"] = *body.Purpose
		}
		if body.DateNeeded != nil {
			d, err := time.Parse("2006-01-02", *body.DateNeeded)
			if err != nil {
				return workflow.Validation("date_needed must be 'YYYY-MM-DD'")
			}
			updates["date_needed"] = d
		}

		action := "Updated"
		if req.Status == models.StatusChangesRequested {
			res, err := workflow.Apply(*req, workflow.TransitionInput{
				Actor:     *actor,
				Requester: *actor,
				Action:    workflow.ActionResubmit,
				Now:       now,
			})
			if err != nil {
				return err
			}
			updates["status"] = res.NewStatus
			updates["approval_stage"] = res.NewStage
			action = res.LogEntry.Action
		}

		dbres := tx.Model(&models.Requisition{}).
			Where("id = ? AND version = ?", req.ID, req.Version).
			Updates(updates)
		if dbres.Error != nil {
			return dbres.Error
		}
		if dbres.RowsAffected == 0 {
			return workflow.Conflict("the requisition was changed by a concurrent request, try again")
		}

		if body.Attachments != nil {
			if err := tx.Delete(&models.Attachment{}, "requisition_id = ?", req.ID).Error; err != nil {
				return err
			}
			for _, att := range body.Attachments {
				a := models.Attachment{RequisitionID: req.ID, Name: att.Name, URL: att.URL}
				if err := tx.Create(&a).Error; err != nil {
					return err
				}
			}
		}

		entry := models.ActivityLogEntry{
			RequisitionID: req.ID,
			UserID:        actor.ID,
			UserName:      actor.Name,
			Action:        action,
			Timestamp:     now,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	return GetByID(db, id)
}
