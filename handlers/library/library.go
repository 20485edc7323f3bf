package library

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/services/storage"
	"github.com/sahilchouksey/college-admin-api/utils/middleware"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sahilchouksey/college-admin-api/utils/validation"
	"gorm.io/gorm"
)

// LibraryHandler handles library document requests
type LibraryHandler struct {
	db        *gorm.DB
	service   *services.LibraryService
	validator *validation.Validator
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(db *gorm.DB, storageClient *storage.Client) *LibraryHandler {
	return &LibraryHandler{
		db:        db,
		service:   services.NewLibraryService(db, storageClient),
		validator: validation.NewValidator(),
	}
}

// DeleteDocumentRequest represents the request body for deleting a document
type DeleteDocumentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// readUpload pulls the optional PDF out of the multipart form. A missing
// file field is not an error; only a file that cannot be read is.
func readUpload(c *fiber.Ctx) ([]byte, string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, "", nil
	}

	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		return nil, "", errors.New("only PDF files are accepted")
	}

	f, err := file.Open()
	if err != nil {
		return nil, "", errors.New("failed to open uploaded file")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, "", errors.New("failed to read uploaded file")
	}
	return content, file.Filename, nil
}

// CreateDocument handles POST /api/v1/library/documents
func (h *LibraryHandler) CreateDocument(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	title := validation.SanitizeString(c.FormValue("title"))
	if title == "" {
		return response.BadRequest(c, "Title is required")
	}
	content := c.FormValue("content")

	fileContent, filename, err := readUpload(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	document, err := h.service.CreateDocument(c.Context(), services.CreateDocumentRequest{
		Title:       title,
		Content:     content,
		FileContent: fileContent,
		Filename:    filename,
		Actor:       user,
		IPAddress:   c.IP(),
	})
	if err != nil {
		return serviceError(c, err, "Failed to create document")
	}

	return response.Created(c, document)
}

// UpdateDocument handles PUT /api/v1/library/documents/:id
//
// Every successful update appends a new immutable version; the document's
// current_version moves forward and never back.
func (h *LibraryHandler) UpdateDocument(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	documentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	req := services.UpdateDocumentRequest{
		Actor:     user,
		IPAddress: c.IP(),
	}

	form, err := c.MultipartForm()
	if err != nil {
		return response.BadRequest(c, "Invalid multipart form")
	}
	if vals, ok := form.Value["title"]; ok && len(vals) > 0 {
		title := validation.SanitizeString(vals[0])
		if title == "" {
			return response.BadRequest(c, "Title cannot be empty")
		}
		req.Title = &title
	}
	if vals, ok := form.Value["content"]; ok && len(vals) > 0 {
		req.Content = &vals[0]
	}

	fileContent, filename, err := readUpload(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	req.FileContent = fileContent
	req.Filename = filename

	document, err := h.service.UpdateDocument(c.Context(), uint(documentID), req)
	if err != nil {
		return serviceError(c, err, "Failed to update document")
	}

	return response.SuccessWithMessage(c, "Document updated", document)
}

// GetDocument handles GET /api/v1/library/documents/:id
func (h *LibraryHandler) GetDocument(c *fiber.Ctx) error {
	documentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	document, err := h.service.GetDocument(c.Context(), uint(documentID))
	if err != nil {
		return serviceError(c, err, "Failed to fetch document")
	}

	return response.Success(c, document)
}

// ListDocuments handles GET /api/v1/library/documents
func (h *LibraryHandler) ListDocuments(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	query := h.db.Model(&model.LibraryDocument{})
	if search := c.Query("search"); search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count documents")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var documents []model.LibraryDocument
	if err := query.Order("updated_at DESC").
		Limit(pagination.PerPage).
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Find(&documents).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch documents")
	}

	return response.Paginated(c, documents, pagination)
}

// ListVersions handles GET /api/v1/library/documents/:id/versions
func (h *LibraryHandler) ListVersions(c *fiber.Ctx) error {
	documentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	versions, err := h.service.ListVersions(c.Context(), uint(documentID))
	if err != nil {
		return serviceError(c, err, "Failed to fetch document versions")
	}

	return response.Success(c, versions)
}

// DownloadDocument handles GET /api/v1/library/documents/:id/download
func (h *LibraryHandler) DownloadDocument(c *fiber.Ctx) error {
	documentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	url, err := h.service.DownloadURL(c.Context(), uint(documentID))
	if err != nil {
		return serviceError(c, err, "Failed to generate download URL")
	}

	return response.Success(c, fiber.Map{"download_url": url})
}

// DeleteDocument handles DELETE /api/v1/library/documents/:id
//
// Default is a recoverable soft delete. ?force=true permanently removes
// the document, its versions and the stored file; the route for that
// variant sits behind the root gate.
func (h *LibraryHandler) DeleteDocument(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	documentID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	if c.Query("force") == "true" {
		if err := h.service.HardDeleteDocument(c.Context(), uint(documentID), user, c.IP()); err != nil {
			return serviceError(c, err, "Failed to delete document")
		}
		return response.SuccessWithMessage(c, "Document permanently deleted", nil)
	}

	var req DeleteDocumentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
		if err := h.validator.ValidateStruct(req); err != nil {
			return response.ValidationError(c, err)
		}
	}

	if err := h.service.SoftDeleteDocument(c.Context(), uint(documentID), validation.SanitizeString(req.Reason), user, c.IP()); err != nil {
		return serviceError(c, err, "Failed to delete document")
	}

	return response.SuccessWithMessage(c, "Document deleted", nil)
}

func serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrValidationFailed):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAlreadyDeleted):
		return response.BadRequest(c, "Document has been deleted")
	case errors.Is(err, services.ErrRootRequired):
		return response.Forbidden(c, "Root privilege required")
	default:
		return response.InternalServerError(c, fallback)
	}
}
