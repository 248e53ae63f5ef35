package main

import (
	"log"
	"strings"

	"churchflow-backend/internal/admin"
	"churchflow-backend/internal/audit"
	"churchflow-backend/internal/auth"
	"churchflow-backend/internal/config"
	"churchflow-backend/internal/database"
	"churchflow-backend/internal/finance"
	"churchflow-backend/internal/ledger"
	"churchflow-backend/internal/models"
	"churchflow-backend/internal/platform"
	"churchflow-backend/internal/requisition"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"message": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Unexpected server error",
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/register", auth.RegisterChurchHandler(cfg))
	api.Post("/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Requisition lifecycle
	protected.Post("/requisitions", requisition.CreateRequisitionHandler())
	protected.Get("/requisitions", requisition.ListRequisitionsHandler())
	protected.Get("/requisitions/:id", requisition.GetRequisitionHandler())
	protected.Put("/requisitions/:id", requisition.UpdateRequisitionHandler())
	protected.Post("/requisitions/:id/action", requisition.WorkflowActionHandler())
	protected.Post("/requisitions/:id/disburse", requisition.DisburseHandler())
	protected.Post("/requisitions/:id/upload-receipt", requisition.UploadReceiptHandler())
	protected.Post("/requisitions/:id/verify-receipt", requisition.VerifyReceiptHandler())

	// Church administration
	superAdminOnly := auth.RequireRole(models.RoleSuperAdmin)
	protected.Get("/churches/:id", admin.GetChurchHandler())
	protected.Get("/churches/:id/users", admin.ListUsersHandler())
	protected.Post("/churches/:id/sections", superAdminOnly, admin.CreateSectionHandler())
	protected.Post("/sections/:id/departments", superAdminOnly, admin.CreateDepartmentHandler())
	protected.Post("/users", superAdminOnly, admin.CreateUserHandler())

	// Section ledger & finance projections
	protected.Post("/ledger-entries", ledger.CreateLedgerEntryHandler())
	protected.Get("/ledger-entries", ledger.ListLedgerEntriesHandler())
	protected.Get("/financial-summary/:sectionId", finance.FinancialSummaryHandler())
	protected.Get("/finance-overview/:sectionId", finance.FinanceOverviewHandler())

	// Audit trail
	protected.Get("/churches/:id/audit-logs", audit.ListChurchAuditLogsHandler())
	protected.Get("/churches/:id/audit-logs/export", audit.ExportChurchAuditLogsHandler())

	// Platform owner
	ownerOnly := auth.RequireRole(models.RoleAppOwner)
	protected.Get("/platform-data", ownerOnly, platform.PlatformDataHandler())
	protected.Post("/churches/:id/extend-subscription", ownerOnly, platform.ExtendSubscriptionHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
