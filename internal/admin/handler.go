package admin

import (
	"strings"
	"time"

	"churchflow-backend/internal/auth"
	"churchflow-backend/internal/database"
	"churchflow-backend/internal/models"
	"churchflow-backend/internal/subscription"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type CreateSectionRequest struct {
	Name string `json:"name" validate:"required"`
}

type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required"`
}

type CreateUserRequest struct {
	Name         string          `json:"name" validate:"required"`
	Email        string          `json:"email" validate:"required,email"`
	Password     string          `json:"password" validate:"required,min=8"`
	Role         models.UserRole `json:"role" validate:"required"`
	SectionID    *string         `json:"section_id"`
	DepartmentID *string         `json:"department_id"`
}

type DepartmentResponse struct {
	ID        string `json:"id"`
	SectionID string `json:"section_id"`
	Name      string `json:"name"`
}

type SectionResponse struct {
	ID          string               `json:"id"`
	ChurchID    string               `json:"church_id"`
	Name        string               `json:"name"`
	Departments []DepartmentResponse `json:"departments"`
}

type ChurchResponse struct {
	ID                 string                    `json:"id"`
	Name               string                    `json:"name"`
	SubscriptionStatus models.SubscriptionStatus `json:"subscription_status"`
	SubscriptionEndsAt time.Time                 `json:"subscription_ends_at"`
	Sections           []SectionResponse         `json:"sections"`
}

func NewChurchResponse(ch *models.Church, now time.Time) ChurchResponse {
	resp := ChurchResponse{
		ID:                 ch.ID,
		Name:               ch.Name,
		SubscriptionStatus: subscription.StatusOf(*ch, now),
		SubscriptionEndsAt: ch.SubscriptionEndsAt,
		Sections:           make([]SectionResponse, 0, len(ch.Sections)),
	}
	for _, s := range ch.Sections {
		sr := SectionResponse{
			ID:          s.ID,
			ChurchID:    s.ChurchID,
			Name:        s.Name,
			Departments: make([]DepartmentResponse, 0, len(s.Departments)),
		}
		for _, d := range s.Departments {
			sr.Departments = append(sr.Departments, DepartmentResponse{
				ID:        d.ID,
				SectionID: d.SectionID,
				Name:      d.Name,
			})
		}
		resp.Sections = append(resp.Sections, sr)
	}
	return resp
}

// requireOwnChurch lets a church-scoped caller act only on their own
// church; the App Owner may act on any.
func requireOwnChurch(c *fiber.Ctx, churchID string) (*models.User, error) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAppOwner {
		return user, nil
	}
	if user.ChurchID == nil || *user.ChurchID != churchID {
		return nil, fiber.NewError(fiber.StatusForbidden, "You may only manage your own church")
	}
	return user, nil
}

// GET /api/churches/:id
func GetChurchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := requireOwnChurch(c, c.Params("id")); err != nil {
			return err
		}

		var church models.Church
		if err := database.DB.
			Preload("Sections.Departments").
			First(&church, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Church not found")
		}

		return c.JSON(NewChurchResponse(&church, time.Now()))
	}
}

// POST /api/churches/:id/sections (Super Admin)
func CreateSectionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		churchID := c.Params("id")
		if _, err := requireOwnChurch(c, churchID); err != nil {
			return err
		}

		var body CreateSectionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Section name is required")
		}

		var church models.Church
		if err := database.DB.First(&church, "id = ?", churchID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Church not found")
		}

		section := models.Section{ChurchID: church.ID, Name: body.Name}
		if err := database.DB.Create(&section).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create the section")
		}

		return c.Status(fiber.StatusCreated).JSON(SectionResponse{
			ID:          section.ID,
			ChurchID:    section.ChurchID,
			Name:        section.Name,
			Departments: []DepartmentResponse{},
		})
	}
}

// POST /api/sections/:id/departments (Super Admin)
func CreateDepartmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var section models.Section
		if err := database.DB.First(&section, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Section not found")
		}
		if _, err := requireOwnChurch(c, section.ChurchID); err != nil {
			return err
		}

		var body CreateDepartmentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Department name is required")
		}

		dept := models.Department{SectionID: section.ID, Name: body.Name}
		if err := database.DB.Create(&dept).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create the department")
		}

		return c.Status(fiber.StatusCreated).JSON(DepartmentResponse{
			ID:        dept.ID,
			SectionID: dept.SectionID,
			Name:      dept.Name,
		})
	}
}

// GET /api/churches/:id/users (Super Admin)
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := requireOwnChurch(c, c.Params("id")); err != nil {
			return err
		}

		var users []models.User
		if err := database.DB.
			Where("church_id = ?", c.Params("id")).
			Order("name asc").
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list users")
		}

		resp := make([]auth.UserResponse, 0, len(users))
		for i := range users {
			resp = append(resp, auth.NewUserResponse(&users[i]))
		}
		return c.JSON(resp)
	}
}

// validateRoleScope enforces the role scoping invariants: Members and
// Department Heads need a department inside a section, Section
// Presidents and Finance a section only, Auditors may be church-wide.
func validateRoleScope(body *CreateUserRequest) error {
	switch body.Role {
	case models.RoleMember, models.RoleDepartmentHead:
		if body.SectionID == nil || body.DepartmentID == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Members and Department Heads need both a section and a department")
		}
	case models.RoleSectionPresident, models.RoleFinance:
		if body.SectionID == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Section Presidents and Finance officers need a section")
		}
		if body.DepartmentID != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Section Presidents and Finance officers may not have a department")
		}
	case models.RoleAuditor:
		if body.SectionID == nil && body.DepartmentID != nil {
			return fiber.NewError(fiber.StatusBadRequest, "A department-less section is required to scope an auditor")
		}
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Role must be Member, Department Head, Section President, Finance or Auditor")
	}
	return nil
}

// POST /api/users (Super Admin creates users for their own church)
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if caller.ChurchID == nil {
			return fiber.NewError(fiber.StatusForbidden, "Your account is not assigned to a church")
		}

		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Name, a valid email and a password of at least 8 characters are required")
		}
		if err := validateRoleScope(&body); err != nil {
			return err
		}

		// The section and department must belong to the caller's church.
		if body.SectionID != nil {
			var count int64
			database.DB.Model(&models.Section{}).
				Where("id = ? AND church_id = ?", *body.SectionID, *caller.ChurchID).
				Count(&count)
			if count == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Section not found in your church")
			}
		}
		if body.DepartmentID != nil {
			var count int64
			database.DB.Model(&models.Department{}).
				Where("id = ? AND section_id = ?", *body.DepartmentID, *body.SectionID).
				Count(&count)
			if count == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Department not found in the given section")
			}
		}

		var count int64
		database.DB.Model(&models.User{}).
			Where("email = ?", body.Email).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "An account with this email already exists")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash the password")
		}

		user := models.User{
			ChurchID:     caller.ChurchID,
			SectionID:    body.SectionID,
			DepartmentID: body.DepartmentID,
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         body.Role,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create the user")
		}

		return c.Status(fiber.StatusCreated).JSON(auth.NewUserResponse(&user))
	}
}
