package auth

import (
	"strings"
	"time"

	"churchflow-backend/internal/config"
	"churchflow-backend/internal/database"
	"churchflow-backend/internal/models"
	"churchflow-backend/internal/subscription"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterChurchRequest struct {
	ChurchName    string `json:"church_name"`
	AdminName     string `json:"admin_name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Role         models.UserRole `json:"role"`
	ChurchID     *string         `json:"church_id"`
	SectionID    *string         `json:"section_id"`
	DepartmentID *string         `json:"department_id"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		ChurchID:     u.ChurchID,
		SectionID:    u.SectionID,
		DepartmentID: u.DepartmentID,
	}
}

// POST /api/register — creates a church on a trial subscription and its
// Super Admin in one transaction.
func RegisterChurchHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterChurchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.ChurchName = strings.TrimSpace(body.ChurchName)
		body.AdminName = strings.TrimSpace(body.AdminName)
		body.AdminEmail = strings.TrimSpace(strings.ToLower(body.AdminEmail))

		if body.ChurchName == "" || body.AdminName == "" || body.AdminEmail == "" || body.AdminPassword == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Church name, admin name, email and password are required")
		}

		var count int64
		database.DB.Model(&models.User{}).
			Where("email = ?", body.AdminEmail).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "An account with this email already exists")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash the password")
		}

		now := time.Now()
		church := models.Church{
			Name:               body.ChurchName,
			SubscriptionStatus: models.SubscriptionTrial,
			SubscriptionEndsAt: now.AddDate(0, 0, cfg.TrialDays),
		}
		admin := models.User{
			Name:         body.AdminName,
			Email:        body.AdminEmail,
			PasswordHash: string(hash),
			Role:         models.RoleSuperAdmin,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&church).Error; err != nil {
				return err
			}
			admin.ChurchID = &church.ID
			if err := tx.Create(&admin).Error; err != nil {
				return err
			}
			activity := models.PlatformActivity{
				Category:    models.PlatformActivityNewChurch,
				Description: "New church registered: " + church.Name,
			}
			return tx.Create(&activity).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not register the church")
		}

		return c.Status(fiber.StatusCreated).JSON(NewUserResponse(&admin))
	}
}

// POST /api/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email or password is incorrect")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email or password is incorrect")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not issue a token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  NewUserResponse(&user),
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}

		response := fiber.Map{"user": NewUserResponse(user)}

		if user.ChurchID != nil {
			var church models.Church
			if err := database.DB.First(&church, "id = ?", *user.ChurchID).Error; err == nil {
				response["church"] = fiber.Map{
					"id":                   church.ID,
					"name":                 church.Name,
					"subscription_status":  subscription.StatusOf(church, time.Now()),
					"subscription_ends_at": church.SubscriptionEndsAt,
				}
			}
		}

		return c.JSON(response)
	}
}
