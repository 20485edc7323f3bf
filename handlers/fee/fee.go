package fee

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/utils/middleware"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sahilchouksey/college-admin-api/utils/validation"
	"gorm.io/gorm"
)

// FeeHandler handles fee structure and payment ledger requests
type FeeHandler struct {
	db        *gorm.DB
	service   *services.FeeService
	validator *validation.Validator
}

// NewFeeHandler creates a new fee handler
func NewFeeHandler(db *gorm.DB) *FeeHandler {
	return &FeeHandler{
		db:        db,
		service:   services.NewFeeService(db),
		validator: validation.NewValidator(),
	}
}

// CreateFeeStructureRequest represents the request body for creating a fee structure
type CreateFeeStructureRequest struct {
	ProgramID   uint   `json:"program_id" validate:"required,min=1"`
	SessionID   uint   `json:"session_id" validate:"required,min=1"`
	Semester    int    `json:"semester" validate:"required,min=1,max=12"`
	TotalAmount int64  `json:"total_amount" validate:"required,min=1"`
	DueDate     string `json:"due_date" validate:"required"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

// RecordPaymentRequest represents the request body for recording a payment
type RecordPaymentRequest struct {
	StudentID      uint   `json:"student_id" validate:"required,min=1"`
	FeeStructureID uint   `json:"fee_structure_id" validate:"required,min=1"`
	Amount         int64  `json:"amount" validate:"required,min=1"`
	Mode           string `json:"mode" validate:"required,oneof=cash online cheque dd"`
	ReceiptNo      string `json:"receipt_no" validate:"required,min=1,max=100"`
	PaidOn         string `json:"paid_on" validate:"omitempty"`
	Remarks        string `json:"remarks" validate:"omitempty,max=1000"`
}

// CancelPaymentRequest represents the request body for cancelling a payment
type CancelPaymentRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

// CreateFeeStructure handles POST /api/v1/fees/structures
func (h *FeeHandler) CreateFeeStructure(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateFeeStructureRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return response.BadRequest(c, "due_date must be in YYYY-MM-DD format")
	}

	structure, err := h.service.CreateFeeStructure(c.Context(), services.CreateFeeStructureRequest{
		ProgramID:   req.ProgramID,
		SessionID:   req.SessionID,
		Semester:    req.Semester,
		TotalAmount: req.TotalAmount,
		DueDate:     dueDate,
		Description: validation.SanitizeString(req.Description),
		Actor:       user,
		IPAddress:   c.IP(),
	})
	if err != nil {
		return serviceError(c, err, "Failed to create fee structure")
	}

	return response.Created(c, structure)
}

// ListFeeStructures handles GET /api/v1/fees/structures
func (h *FeeHandler) ListFeeStructures(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	query := h.db.Model(&model.FeeStructure{})
	if programID := c.Query("program_id"); programID != "" {
		query = query.Where("program_id = ?", programID)
	}
	if sessionID := c.Query("session_id"); sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	if semester := c.Query("semester"); semester != "" {
		query = query.Where("semester = ?", semester)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count fee structures")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var structures []model.FeeStructure
	if err := query.Preload("Program").Preload("Session").
		Order("created_at DESC").
		Limit(pagination.PerPage).
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Find(&structures).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch fee structures")
	}

	return response.Paginated(c, structures, pagination)
}

// RecordPayment handles POST /api/v1/fees/payments
func (h *FeeHandler) RecordPayment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	paidOn := time.Now()
	if req.PaidOn != "" {
		parsed, err := time.Parse("2006-01-02", req.PaidOn)
		if err != nil {
			return response.BadRequest(c, "paid_on must be in YYYY-MM-DD format")
		}
		paidOn = parsed
	}

	payment, err := h.service.RecordPayment(c.Context(), services.RecordPaymentRequest{
		StudentID:      req.StudentID,
		FeeStructureID: req.FeeStructureID,
		Amount:         req.Amount,
		Mode:           model.PaymentMode(req.Mode),
		ReceiptNo:      req.ReceiptNo,
		PaidOn:         paidOn,
		Remarks:        validation.SanitizeString(req.Remarks),
		Actor:          user,
		IPAddress:      c.IP(),
	})
	if err != nil {
		return serviceError(c, err, "Failed to record payment")
	}

	return response.Created(c, payment)
}

// CancelPayment handles DELETE /api/v1/fees/payments/:id/transactions/:transactionId
func (h *FeeHandler) CancelPayment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	paymentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid fee payment ID")
	}
	transactionID := c.Params("transactionId")

	var req CancelPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	payment, err := h.service.CancelPayment(c.Context(), uint(paymentID), transactionID, validation.SanitizeString(req.Reason), user, c.IP())
	if err != nil {
		return serviceError(c, err, "Failed to cancel payment")
	}

	return response.SuccessWithMessage(c, "Payment transaction cancelled", payment)
}

// GetLedger handles GET /api/v1/fees/payments/:id
func (h *FeeHandler) GetLedger(c *fiber.Ctx) error {
	paymentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid fee payment ID")
	}

	payment, err := h.service.GetLedger(c.Context(), uint(paymentID))
	if err != nil {
		return serviceError(c, err, "Failed to fetch ledger")
	}

	return response.Success(c, payment)
}

// ListPayments handles GET /api/v1/fees/payments
func (h *FeeHandler) ListPayments(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	query := h.db.Model(&model.FeePayment{})
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if structureID := c.Query("fee_structure_id"); structureID != "" {
		query = query.Where("fee_structure_id = ?", structureID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count fee payments")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var payments []model.FeePayment
	if err := query.Preload("FeeStructure").
		Order("updated_at DESC").
		Limit(pagination.PerPage).
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Find(&payments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch fee payments")
	}

	return response.Paginated(c, payments, pagination)
}

// serviceError maps service-layer errors onto HTTP responses
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, model.ErrInvalidAmount),
		errors.Is(err, model.ErrOverpayment):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrDuplicateRecord):
		return response.Conflict(c, err.Error())
	case errors.Is(err, services.ErrRootRequired):
		return response.Forbidden(c, "Root privilege required")
	case errors.Is(err, services.ErrRecordLocked):
		return response.Forbidden(c, "Record belongs to a closed period and cannot be modified")
	default:
		return response.InternalServerError(c, fallback)
	}
}
