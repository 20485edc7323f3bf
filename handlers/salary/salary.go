package salary

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/utils/middleware"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sahilchouksey/college-admin-api/utils/validation"
	"gorm.io/gorm"
)

// SalaryHandler handles staff salary requests
type SalaryHandler struct {
	db        *gorm.DB
	service   *services.SalaryService
	validator *validation.Validator
}

// NewSalaryHandler creates a new salary handler
func NewSalaryHandler(db *gorm.DB) *SalaryHandler {
	return &SalaryHandler{
		db:        db,
		service:   services.NewSalaryService(db),
		validator: validation.NewValidator(),
	}
}

// CreateSalaryRequest represents the request body for creating a salary record
type CreateSalaryRequest struct {
	EmployeeID uint   `json:"employee_id" validate:"required,min=1"`
	Month      string `json:"month" validate:"required,len=7"`
	BaseAmount int64  `json:"base_amount" validate:"required,min=1"`
	Deductions int64  `json:"deductions" validate:"min=0"`
}

// DeleteSalaryRequest represents the request body for deleting a salary record
type DeleteSalaryRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

// CreateSalary handles POST /api/v1/salaries
func (h *SalaryHandler) CreateSalary(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateSalaryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	salary, err := h.service.CreateSalary(c.Context(), services.CreateSalaryRequest{
		EmployeeID: req.EmployeeID,
		Month:      req.Month,
		BaseAmount: req.BaseAmount,
		Deductions: req.Deductions,
		Actor:      user,
		IPAddress:  c.IP(),
	})
	if err != nil {
		return serviceError(c, err, "Failed to create salary record")
	}

	return response.Created(c, salary)
}

// ListSalaries handles GET /api/v1/salaries
func (h *SalaryHandler) ListSalaries(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	query := h.db.Model(&model.Salary{})
	if employeeID := c.Query("employee_id"); employeeID != "" {
		query = query.Where("employee_id = ?", employeeID)
	}
	if month := c.Query("month"); month != "" {
		query = query.Where("month = ?", month)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count salary records")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var salaries []model.Salary
	if err := query.Preload("Employee").
		Order("month DESC").
		Limit(pagination.PerPage).
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Find(&salaries).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch salary records")
	}

	return response.Paginated(c, salaries, pagination)
}

// MarkPaid handles PUT /api/v1/salaries/:id/pay
func (h *SalaryHandler) MarkPaid(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	salaryID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid salary ID")
	}

	salary, err := h.service.MarkPaid(c.Context(), uint(salaryID), user, c.IP())
	if err != nil {
		return serviceError(c, err, "Failed to mark salary as paid")
	}

	return response.SuccessWithMessage(c, "Salary marked as paid", salary)
}

// DeleteSalary handles DELETE /api/v1/salaries/:id
func (h *SalaryHandler) DeleteSalary(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	salaryID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid salary ID")
	}

	var req DeleteSalaryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if err := h.service.DeleteSalary(c.Context(), uint(salaryID), validation.SanitizeString(req.Reason), user, c.IP()); err != nil {
		return serviceError(c, err, "Failed to delete salary record")
	}

	return response.SuccessWithMessage(c, "Salary record deleted", nil)
}

func serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrValidationFailed):
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
