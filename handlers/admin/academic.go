package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sahilchouksey/college-admin-api/utils/validation"
	"gorm.io/gorm"
)

// AcademicHandler manages programs and academic sessions, the reference
// data fee structures hang off.
type AcademicHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewAcademicHandler creates a new academic handler
func NewAcademicHandler(db *gorm.DB) *AcademicHandler {
	return &AcademicHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateProgramRequest represents the request body for creating a program
type CreateProgramRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Code     string `json:"code" validate:"required,min=2,max=50"`
	Duration int    `json:"duration" validate:"required,min=1,max=12"` // semesters
}

// CreateSessionRequest represents the request body for creating a session
type CreateSessionRequest struct {
	Name      string `json:"name" validate:"required,min=4,max=50"` // e.g., "2026-27"
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// CreateProgram handles POST /api/v1/admin/programs
func (h *AcademicHandler) CreateProgram(c *fiber.Ctx) error {
	var req CreateProgramRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	program := model.Program{
		Name:     req.Name,
		Code:     req.Code,
		Duration: req.Duration,
	}
	if err := h.db.Create(&program).Error; err != nil {
		return response.InternalServerError(c, "Failed to create program")
	}

	return response.Created(c, program)
}

// ListPrograms handles GET /api/v1/admin/programs
func (h *AcademicHandler) ListPrograms(c *fiber.Ctx) error {
	var programs []model.Program
	if err := h.db.Order("name ASC").Find(&programs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch programs")
	}
	return response.Success(c, programs)
}

// CreateSession handles POST /api/v1/admin/sessions
func (h *AcademicHandler) CreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return response.BadRequest(c, "start_date must be in YYYY-MM-DD format")
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return response.BadRequest(c, "end_date must be in YYYY-MM-DD format")
	}
	if !endDate.After(startDate) {
		return response.BadRequest(c, "end_date must be after start_date")
	}

	session := model.AcademicSession{
		Name:      req.Name,
		StartDate: startDate,
		EndDate:   endDate,
	}
	if err := h.db.Create(&session).Error; err != nil {
		return response.InternalServerError(c, "Failed to create session")
	}

	return response.Created(c, session)
}

// ListSessions handles GET /api/v1/admin/sessions
func (h *AcademicHandler) ListSessions(c *fiber.Ctx) error {
	var sessions []model.AcademicSession
	if err := h.db.Order("start_date DESC").Find(&sessions).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch sessions")
	}
	return response.Success(c, sessions)
}
