package requisition

import (
	"time"

	"churchflow-backend/internal/auth"
	"churchflow-backend/internal/database"
	"churchflow-backend/internal/models"
	"churchflow-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

type WorkflowActionRequest struct {
	Action   string `json:"action"` // APPROVE / REJECT / REQUEST_CHANGES
	Comments string `json:"comments"`
}

type DisburseRequest struct {
	PaymentDetails struct {
		AmountPaid      float64              `json:"amount_paid" validate:"required,gt=0"`
		PaymentMethod   models.PaymentMethod `json:"payment_method" validate:"required"`
		PaymentDate     string               `json:"payment_date" validate:"required"`
		ReferenceNumber *string              `json:"reference_number"`
		ProofFile       *AttachmentDTO       `json:"proof_file"`
	} `json:"payment_details"`
}

type UploadReceiptRequest struct {
	ReceiptFileName string `json:"receipt_file_name" validate:"required"`
	ReceiptFileURL  string `json:"receipt_file_url"`
}

type VerifyReceiptRequest struct {
	Action   string `json:"action"` // VERIFY / REQUEST_CORRECTION
	Comments string `json:"comments"`
}

// POST /api/requisitions/:id/action — the approval-chain review step.
func WorkflowActionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body WorkflowActionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		action := workflow.Action(body.Action)
		switch action {
		case workflow.ActionApprove, workflow.ActionReject, workflow.ActionRequestChanges:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "action must be APPROVE, REJECT or REQUEST_CHANGES")
		}

		req, err := ApplyTransition(database.DB, c.Params("id"), user, workflow.TransitionInput{
			Action:   action,
			Comments: body.Comments,
		})
		if err != nil {
			return httpError(err)
		}
		return c.JSON(NewRequisitionResponse(req))
	}
}

// POST /api/requisitions/:id/disburse — Finance records the payout.
func DisburseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body DisburseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "A positive amount, payment method and payment date are required")
		}

		paymentDate, err := time.Parse("2006-01-02", body.PaymentDetails.PaymentDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "payment_date must be 'YYYY-MM-DD'")
		}

		details := &workflow.PaymentDetails{
			AmountPaid:      body.PaymentDetails.AmountPaid,
			Method:          body.PaymentDetails.PaymentMethod,
			PaymentDate:     paymentDate,
			ReferenceNumber: body.PaymentDetails.ReferenceNumber,
		}
		if body.PaymentDetails.ProofFile != nil {
			details.ProofName = &body.PaymentDetails.ProofFile.Name
			details.ProofURL = &body.PaymentDetails.ProofFile.URL
		}

		req, err := ApplyTransition(database.DB, c.Params("id"), user, workflow.TransitionInput{
			Action:  workflow.ActionDisburse,
			Payment: details,
		})
		if err != nil {
			return httpError(err)
		}
		return c.JSON(NewRequisitionResponse(req))
	}
}

// POST /api/requisitions/:id/upload-receipt — the requester attaches
// proof of expenditure. Re-upload is allowed until Finance verifies.
func UploadReceiptHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body UploadReceiptRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		req, err := ApplyTransition(database.DB, c.Params("id"), user, workflow.TransitionInput{
			Action:      workflow.ActionUploadReceipt,
			ReceiptName: body.ReceiptFileName,
			ReceiptURL:  body.ReceiptFileURL,
		})
		if err != nil {
			return httpError(err)
		}
		return c.JSON(NewRequisitionResponse(req))
	}
}

// POST /api/requisitions/:id/verify-receipt
func VerifyReceiptHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body VerifyReceiptRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		action := workflow.Action(body.Action)
		switch action {
		case workflow.ActionVerify, workflow.ActionRequestCorrection:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "action must be VERIFY or REQUEST_CORRECTION")
		}

		req, err := ApplyTransition(database.DB, c.Params("id"), user, workflow.TransitionInput{
			Action:   action,
			Comments: body.Comments,
		})
		if err != nil {
			return httpError(err)
		}
		return c.JSON(NewRequisitionResponse(req))
	}
}
