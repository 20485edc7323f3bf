package expense

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

// ExpenseHandler handles institutional expense requests
type ExpenseHandler struct {
	db        *gorm.DB
	service   *services.ExpenseService
	validator *validation.Validator
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(db *gorm.DB) *ExpenseHandler {
	return &ExpenseHandler{
		db:        db,
		service:   services.NewExpenseService(db),
		validator: validation.NewValidator(),
	}
}

// CreateExpenseRequest represents the request body for recording an expense
type CreateExpenseRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=255"`
	Amount   int64  `json:"amount" validate:"required,min=1"`
	Category string `json:"category" validate:"required,min=2,max=100"`
	PaidOn   string `json:"paid_on" validate:"required"`
	PaidTo   string `json:"paid_to" validate:"omitempty,max=255"`
	Remarks  string `json:"remarks" validate:"omitempty,max=1000"`
}

// DeleteExpenseRequest represents the request body for deleting an expense
type DeleteExpenseRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

// CreateExpense handles POST /api/v1/expenses
func (h *ExpenseHandler) CreateExpense(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	paidOn, err := time.Parse("2006-01-02", req.PaidOn)
	if err != nil {
		return response.BadRequest(c, "paid_on must be in YYYY-MM-DD format")
	}

	expense, err := h.service.CreateExpense(c.Context(), services.CreateExpenseRequest{
		Title:     validation.SanitizeString(req.Title),
		Amount:    req.Amount,
		Category:  req.Category,
		PaidOn:    paidOn,
		PaidTo:    validation.SanitizeString(req.PaidTo),
		Remarks:   validation.SanitizeString(req.Remarks),
		Actor:     user,
		IPAddress: c.IP(),
	})
	if err != nil {
		return serviceError(c, err, "Failed to record expense")
	}

	return response.Created(c, expense)
}

// ListExpenses handles GET /api/v1/expenses
func (h *ExpenseHandler) ListExpenses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	query := h.db.Model(&model.Expense{})
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if month := c.Query("month"); month != "" {
		start, err := time.Parse("2006-01", month)
		if err != nil {
			return response.BadRequest(c, "month must be in YYYY-MM format")
		}
		query = query.Where("paid_on >= ? AND paid_on < ?", start, start.AddDate(0, 1, 0))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count expenses")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var expenses []model.Expense
	if err := query.Order("paid_on DESC").
		Limit(pagination.PerPage).
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Find(&expenses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch expenses")
	}

	return response.Paginated(c, expenses, pagination)
}

// GetExpense handles GET /api/v1/expenses/:id
func (h *ExpenseHandler) GetExpense(c *fiber.Ctx) error {
	var expense model.Expense
	if err := h.db.Preload("RecordedBy").First(&expense, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Expense not found")
		}
		return response.InternalServerError(c, "Failed to fetch expense")
	}
	return response.Success(c, expense)
}

// DeleteExpense handles DELETE /api/v1/expenses/:id
func (h *ExpenseHandler) DeleteExpense(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	expenseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid expense ID")
	}

	var req DeleteExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if err := h.service.DeleteExpense(c.Context(), uint(expenseID), validation.SanitizeString(req.Reason), user, c.IP()); err != nil {
		return serviceError(c, err, "Failed to delete expense")
	}

	return response.SuccessWithMessage(c, "Expense deleted", nil)
}

func serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrValidationFailed):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrRootRequired):
		return response.Forbidden(c, "Root privilege required")
	case errors.Is(err, services.ErrRecordLocked):
		return response.Forbidden(c, "Record belongs to a closed period and cannot be modified")
	default:
		return response.InternalServerError(c, fallback)
	}
}
