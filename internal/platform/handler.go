package platform

import (
	"time"

	"churchflow-backend/internal/admin"
	"churchflow-backend/internal/database"
	"churchflow-backend/internal/models"
	"churchflow-backend/internal/subscription"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ExtendSubscriptionRequest struct {
	Months int `json:"months"`
}

type PlatformActivityResponse struct {
	ID          string                          `json:"id"`
	Description string                          `json:"description"`
	Category    models.PlatformActivityCategory `json:"category"`
	Timestamp   time.Time                       `json:"timestamp"`
}

type PlatformDataResponse struct {
	Churches                 []admin.ChurchResponse     `json:"churches"`
	TotalUsers               int64                      `json:"total_users"`
	TotalRequisitions        int64                      `json:"total_requisitions"`
	TotalAmountRequested     float64                    `json:"total_amount_requested"`
	RequisitionStatusCounts  map[string]int64           `json:"requisition_status_counts"`
	SubscriptionStatusCounts map[string]int64           `json:"subscription_status_counts"`
	RecentActivities         []PlatformActivityResponse `json:"recent_activities"`
}

const recentActivityLimit = 20

// GET /api/platform-data (App Owner) — cross-church snapshot.
func PlatformDataHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()

		var churches []models.Church
		if err := database.DB.
			Preload("Sections.Departments").
			Order("name asc").
			Find(&churches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load churches")
		}

		resp := PlatformDataResponse{
			Churches:                 make([]admin.ChurchResponse, 0, len(churches)),
			RequisitionStatusCounts:  make(map[string]int64),
			SubscriptionStatusCounts: make(map[string]int64),
			RecentActivities:         make([]PlatformActivityResponse, 0, recentActivityLimit),
		}

		for i := range churches {
			resp.Churches = append(resp.Churches, admin.NewChurchResponse(&churches[i], now))
			status := subscription.StatusOf(churches[i], now)
			resp.SubscriptionStatusCounts[string(status)]++
		}

		// Exclude the platform owner itself from the user count.
		if err := database.DB.Model(&models.User{}).
			Where("role <> ?", models.RoleAppOwner).
			Count(&resp.TotalUsers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not count users")
		}

		if err := database.DB.Model(&models.Requisition{}).
			Count(&resp.TotalRequisitions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not count requisitions")
		}

		if err := database.DB.Model(&models.Requisition{}).
			Select("COALESCE(SUM(amount_requested), 0)").
			Scan(&resp.TotalAmountRequested).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not sum requested amounts")
		}

		type statusRow struct {
			Status models.RequisitionStatus `gorm:"column:status"`
			Count  int64                    `gorm:"column:count"`
		}
		var statusRows []statusRow
		if err := database.DB.Model(&models.Requisition{}).
			Select("status, COUNT(*) as count").
			Group("status").
			Scan(&statusRows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not count requisition statuses")
		}
		for _, r := range statusRows {
			resp.RequisitionStatusCounts[string(r.Status)] = r.Count
		}

		var activities []models.PlatformActivity
		if err := database.DB.
			Order("created_at desc").
			Limit(recentActivityLimit).
			Find(&activities).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load recent activities")
		}
		for _, a := range activities {
			resp.RecentActivities = append(resp.RecentActivities, PlatformActivityResponse{
				ID:          a.ID,
				Description: a.Description,
				Category:    a.Category,
				Timestamp:   a.CreatedAt,
			})
		}

		return c.JSON(resp)
	}
}

// POST /api/churches/:id/extend-subscription (App Owner) — adds months
// from the later of now and the current expiry, so remaining paid time
// is never lost.
func ExtendSubscriptionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ExtendSubscriptionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Months < 1 || body.Months > 36 {
			return fiber.NewError(fiber.StatusBadRequest, "months must be between 1 and 36")
		}

		var church models.Church
		if err := database.DB.First(&church, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Church not found")
		}

		now := time.Now()
		subscription.Extend(&church, body.Months, now)

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Church{}).
				Where("id = ?", church.ID).
				Updates(map[string]interface{}{
					"subscription_status":  church.SubscriptionStatus,
					"subscription_ends_at": church.SubscriptionEndsAt,
				}).Error; err != nil {
				return err
			}
			activity := models.PlatformActivity{
				Category:    models.PlatformActivitySubscription,
				Description: "Subscription extended for " + church.Name,
			}
			return tx.Create(&activity).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not extend the subscription")
		}

		return c.JSON(admin.NewChurchResponse(&church, now))
	}
}
