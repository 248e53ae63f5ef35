package ledger

import (
	"time"

	"churchflow-backend/internal/auth"
	"churchflow-backend/internal/database"
	"churchflow-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateLedgerEntryRequest struct {
	Direction   models.LedgerDirection `json:"direction"`
	Amount      float64                `json:"amount"`
	Description string                 `json:"description"`
	Date        string                 `json:"date"` // "2025-12-09"
}

type LedgerEntryResponse struct {
	ID            string                 `json:"id"`
	SectionID     string                 `json:"section_id"`
	Direction     models.LedgerDirection `json:"direction"`
	Amount        float64                `json:"amount"`
	Description   string                 `json:"description"`
	Date          string                 `json:"date"`
	RecordedByID  string                 `json:"recorded_by_id"`
	RequisitionID *string                `json:"requisition_id"`
}

func newResponse(e *models.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:            e.ID,
		SectionID:     e.SectionID,
		Direction:     e.Direction,
		Amount:        e.Amount,
		Description:   e.Description,
		Date:          e.Date.Format("2006-01-02"),
		RecordedByID:  e.RecordedByID,
		RequisitionID: e.RequisitionID,
	}
}

// POST /api/ledger-entries — Finance records inflows (offerings,
// transfers in) and manual outflows for their section. Disbursement
// outflows are appended automatically by the workflow.
func CreateLedgerEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if user.Role != models.RoleFinance || user.SectionID == nil || user.ChurchID == nil {
			return fiber.NewError(fiber.StatusForbidden, "Only Finance officers may record ledger entries")
		}

		var body CreateLedgerEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Direction != models.LedgerIn && body.Direction != models.LedgerOut {
			return fiber.NewError(fiber.StatusBadRequest, "direction must be 'in' or 'out'")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount must be greater than zero")
		}

		d, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
		}

		entry := models.LedgerEntry{
			ChurchID:     *user.ChurchID,
			SectionID:    *user.SectionID,
			Direction:    body.Direction,
			Amount:       body.Amount,
			Description:  body.Description,
			Date:         d,
			RecordedByID: user.ID,
		}
		if err := database.DB.Create(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save the ledger entry")
		}

		return c.Status(fiber.StatusCreated).JSON(newResponse(&entry))
	}
}

// GET /api/ledger-entries?from=...&to=...
func ListLedgerEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if user.SectionID == nil {
			return fiber.NewError(fiber.StatusForbidden, "Your account is not assigned to a section")
		}
		switch user.Role {
		case models.RoleFinance, models.RoleSectionPresident, models.RoleAuditor:
		default:
			return fiber.NewError(fiber.StatusForbidden, "Your role may not read the ledger")
		}

		dbq := database.DB.Model(&models.LedgerEntry{}).
			Where("section_id = ?", *user.SectionID)

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from is invalid")
			}
			dbq = dbq.Where("date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to is invalid")
			}
			dbq = dbq.Where("date <= ?", to)
		}

		var rows []models.LedgerEntry
		if err := dbq.Order("date asc, created_at asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list ledger entries")
		}

		resp := make([]LedgerEntryResponse, 0, len(rows))
		for i := range rows {
			resp = append(resp, newResponse(&rows[i]))
		}
		return c.JSON(resp)
	}
}
