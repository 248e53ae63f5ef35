package audit

import (
	"fmt"

	"churchflow-backend/internal/auth"
	"churchflow-backend/internal/database"
	"churchflow-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// resolveQuery checks that the caller may read the church's audit trail
// and narrows section-scoped auditors to their section.
func resolveQuery(c *fiber.Ctx) (*Query, error) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return nil, err
	}

	churchID := c.Params("id")
	q := Query{ChurchID: churchID}

	switch user.Role {
	case models.RoleAppOwner:
	case models.RoleSuperAdmin:
		if user.ChurchID == nil || *user.ChurchID != churchID {
			return nil, fiber.NewError(fiber.StatusForbidden, "You may only read your own church's audit trail")
		}
	case models.RoleAuditor:
		if user.ChurchID == nil || *user.ChurchID != churchID {
			return nil, fiber.NewError(fiber.StatusForbidden, "You may only read your own church's audit trail")
		}
		if user.SectionID != nil {
			q.SectionID = *user.SectionID
		}
	default:
		return nil, fiber.NewError(fiber.StatusForbidden, "Only admins and auditors may read the audit trail")
	}

	return &q, nil
}

// GET /api/churches/:id/audit-logs
func ListChurchAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := resolveQuery(c)
		if err != nil {
			return err
		}

		entries, err := List(database.DB, *q)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load the audit trail")
		}
		return c.JSON(entries)
	}
}

// GET /api/churches/:id/audit-logs/export — the same projection as an
// XLSX workbook for offline review.
func ExportChurchAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := resolveQuery(c)
		if err != nil {
			return err
		}

		entries, err := List(database.DB, *q)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load the audit trail")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Audit Trail"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{"Timestamp", "Requisition", "Requisition ID", "User", "Action", "Details"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for row, e := range entries {
			details := ""
			if e.Details != nil {
				details = *e.Details
			}
			values := []interface{}{
				e.Timestamp.Format("2006-01-02 15:04:05"),
				e.RequisitionTitle,
				e.RequisitionID,
				e.UserName,
				e.Action,
				details,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build the export file")
		}

		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=audit-trail-%s.xlsx", c.Params("id")))
		return c.Send(buf.Bytes())
	}
}
