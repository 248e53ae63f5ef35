package finance

import (
	"churchflow-backend/internal/auth"
	"churchflow-backend/internal/database"
	"churchflow-backend/internal/models"
	"churchflow-backend/internal/requisition"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type FinancialSummaryResponse struct {
	Balance      float64 `json:"balance"`
	TotalInflow  float64 `json:"total_inflow"`
	TotalOutflow float64 `json:"total_outflow"`
}

type FinanceOverviewResponse struct {
	AwaitingDisbursement []requisition.RequisitionResponse `json:"awaiting_disbursement"`
	PendingVerification  []requisition.RequisitionResponse `json:"pending_verification"`
	RecentlyCompleted    []requisition.RequisitionResponse `json:"recently_completed"`
	TotalDisbursed       float64                           `json:"total_disbursed"`
}

// canReadSection gates the finance projections: Finance and the Section
// President of the section, scoped or church-wide Auditors, and the
// church's Super Admin.
func canReadSection(user *models.User, sectionID string) bool {
	switch user.Role {
	case models.RoleAppOwner:
		return true
	case models.RoleSuperAdmin:
		var count int64
		database.DB.Model(&models.Section{}).
			Where("id = ? AND church_id = ?", sectionID, user.ChurchID).
			Count(&count)
		return count > 0
	case models.RoleAuditor:
		if user.SectionID != nil {
			return *user.SectionID == sectionID
		}
		var count int64
		database.DB.Model(&models.Section{}).
			Where("id = ? AND church_id = ?", sectionID, user.ChurchID).
			Count(&count)
		return count > 0
	case models.RoleFinance, models.RoleSectionPresident:
		return user.SectionID != nil && *user.SectionID == sectionID
	}
	return false
}

// Summary aggregates the section ledger. The bookkeeping itself is the
// ledger's concern; this only sums it.
func Summary(db *gorm.DB, sectionID string) (*FinancialSummaryResponse, error) {
	type row struct {
		Direction models.LedgerDirection `gorm:"column:direction"`
		Total     float64                `gorm:"column:total"`
	}
	var rows []row

	if err := db.Model(&models.LedgerEntry{}).
		Select("direction, SUM(amount) as total").
		Where("section_id = ?", sectionID).
		Group("direction").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	resp := &FinancialSummaryResponse{}
	for _, r := range rows {
		switch r.Direction {
		case models.LedgerIn:
			resp.TotalInflow = r.Total
		case models.LedgerOut:
			resp.TotalOutflow = r.Total
		}
	}
	resp.Balance = resp.TotalInflow - resp.TotalOutflow
	return resp, nil
}

// GET /api/financial-summary/:sectionId
func FinancialSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		sectionID := c.Params("sectionId")
		if !canReadSection(user, sectionID) {
			return fiber.NewError(fiber.StatusForbidden, "You may not read this section's finances")
		}

		resp, err := Summary(database.DB, sectionID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute the financial summary")
		}
		return c.JSON(resp)
	}
}

const recentlyCompletedLimit = 10

// GET /api/finance-overview/:sectionId
func FinanceOverviewHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		sectionID := c.Params("sectionId")
		if !canReadSection(user, sectionID) {
			return fiber.NewError(fiber.StatusForbidden, "You may not read this section's finances")
		}

		awaiting, err := requisition.List(database.DB, requisition.Filter{
			SectionID: sectionID,
			Status:    string(models.StatusApprovedBySectionPresident),
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load the finance overview")
		}

		pending, err := requisition.List(database.DB, requisition.Filter{
			SectionID: sectionID,
			Status:    string(models.StatusPendingFinanceVerification),
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load the finance overview")
		}

		completed, err := requisition.List(database.DB, requisition.Filter{
			SectionID: sectionID,
			Status:    string(models.StatusCompleted),
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load the finance overview")
		}
		if len(completed) > recentlyCompletedLimit {
			completed = completed[:recentlyCompletedLimit]
		}

		var totalDisbursed float64
		if err := database.DB.Model(&models.Payment{}).
			Joins("JOIN requisitions ON requisitions.id = payments.requisition_id").
			Where("requisitions.section_id = ?", sectionID).
			Select("COALESCE(SUM(payments.amount_paid), 0)").
			Scan(&totalDisbursed).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute the disbursed total")
		}

		resp := FinanceOverviewResponse{
			AwaitingDisbursement: toResponses(awaiting),
			PendingVerification:  toResponses(pending),
			RecentlyCompleted:    toResponses(completed),
			TotalDisbursed:       totalDisbursed,
		}
		return c.JSON(resp)
	}
}

func toResponses(rows []models.Requisition) []requisition.RequisitionResponse {
	resp := make([]requisition.RequisitionResponse, 0, len(rows))
	for i := range rows {
		resp = append(resp, requisition.NewRequisitionResponse(&rows[i]))
	}
	return resp
}
