package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services/storage"
	"github.com/sahilchouksey/college-admin-api/utils/pdfvalidation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LibraryService maintains library documents and their append-only version
// chains. The version insert and the current_version bump always share one
// database transaction so the document can never point at a version row
// that does not exist.
type LibraryService struct {
	db      *gorm.DB
	audit   *AuditService
	storage *storage.Client
}

// NewLibraryService creates a new library service. The storage client may
// be nil, in which case file uploads are rejected but text-only documents
// still work.
func NewLibraryService(db *gorm.DB, storageClient *storage.Client) *LibraryService {
	return &LibraryService{
		db:      db,
		audit:   NewAuditService(db),
		storage: storageClient,
	}
}

// CreateDocumentRequest carries the fields for a new library document
type CreateDocumentRequest struct {
	Title       string
	Content     string
	FileContent []byte // optional PDF
	Filename    string
	Actor       *model.User
	IPAddress   string
}

// UpdateDocumentRequest carries a content/file change for a document.
// Nil pointers mean "leave unchanged".
type UpdateDocumentRequest struct {
	Title       *string
	Content     *string
	FileContent []byte // optional replacement PDF
	Filename    string
	Actor       *model.User
	IPAddress   string
}

type uploadedFile struct {
	key       string
	url       string
	pageCount int
}

// uploadPDF validates and stores a PDF in the external blob store. The
// upload happens outside the DB transaction; on rollback the orphaned
// object is removed best-effort.
func (s *LibraryService) uploadPDF(ctx context.Context, content []byte, filename string) (*uploadedFile, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("%w: file storage is not configured", ErrValidationFailed)
	}

	validation, err := pdfvalidation.ValidatePDFBytes(content, pdfvalidation.DefaultLimits)
	if err != nil {
		return nil, fmt.Errorf("failed to validate PDF: %w", err)
	}
	if !validation.Valid {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, validation.Error)
	}

	key := storage.GenerateKey("library", filename)
	url, err := s.storage.UploadBytes(ctx, key, content, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to upload document file: %w", err)
	}

	return &uploadedFile{key: key, url: url, pageCount: validation.PageCount}, nil
}

func (s *LibraryService) cleanupUpload(ctx context.Context, file *uploadedFile) {
	if file == nil || s.storage == nil {
		return
	}
	if err := s.storage.DeleteFile(ctx, file.key); err != nil {
		log.Printf("Warning: failed to clean up orphaned upload %s: %v", file.key, err)
	}
}

// CreateDocument creates a document together with its version 1 snapshot.
func (s *LibraryService) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*model.LibraryDocument, error) {
	var file *uploadedFile
	if len(req.FileContent) > 0 {
		var err error
		file, err = s.uploadPDF(ctx, req.FileContent, req.Filename)
		if err != nil {
			return nil, err
		}
	}

	doc := model.LibraryDocument{
		Title:          req.Title,
		Content:        req.Content,
		CurrentVersion: 1,
		CreatedByID:    req.Actor.ID,
	}
	if file != nil {
		doc.FileKey = file.key
		doc.FileURL = file.url
		doc.PageCount = file.pageCount
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&doc).Error; err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}

		version := model.DocumentVersion{
			DocumentID:    doc.ID,
			VersionNumber: 1,
			Title:         doc.Title,
			Content:       doc.Content,
			FileKey:       doc.FileKey,
			FileURL:       doc.FileURL,
			PageCount:     doc.PageCount,
			CreatedByID:   req.Actor.ID,
		}
		if err := tx.Create(&version).Error; err != nil {
			return fmt.Errorf("failed to create document version: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionCreate,
			EntityType:  "library_document",
			EntityID:    strconv.FormatUint(uint64(doc.ID), 10),
			PerformedBy: req.Actor.ID,
			Changes: []model.FieldChange{
				{Field: "title", Old: nil, New: doc.Title},
				{Field: "current_version", Old: nil, New: 1},
			},
			IPAddress: req.IPAddress,
		})
	})
	if err != nil {
		s.cleanupUpload(ctx, file)
		return nil, err
	}

	return &doc, nil
}

// UpdateDocument writes a new version snapshot and bumps current_version
// in one transaction. Updates against soft-deleted documents are refused.
func (s *LibraryService) UpdateDocument(ctx context.Context, documentID uint, req UpdateDocumentRequest) (*model.LibraryDocument, error) {
	var file *uploadedFile
	if len(req.FileContent) > 0 {
		var err error
		file, err = s.uploadPDF(ctx, req.FileContent, req.Filename)
		if err != nil {
			return nil, err
		}
	}

	var doc model.LibraryDocument
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Unscoped().
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&doc, documentID).Error
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: document %d", ErrNotFound, documentID)
		} else if err != nil {
			return err
		}
		if doc.DeletedAt.Valid {
			return ErrAlreadyDeleted
		}

		changes := []model.FieldChange{}
		if req.Title != nil && *req.Title != doc.Title {
			changes = append(changes, model.FieldChange{Field: "title", Old: doc.Title, New: *req.Title})
			doc.Title = *req.Title
		}
		if req.Content != nil && *req.Content != doc.Content {
			changes = append(changes, model.FieldChange{Field: "content", Old: doc.Content, New: *req.Content})
			doc.Content = *req.Content
		}
		if file != nil {
			changes = append(changes, model.FieldChange{Field: "file_key", Old: doc.FileKey, New: file.key})
			doc.FileKey = file.key
			doc.FileURL = file.url
			doc.PageCount = file.pageCount
		}
		if len(changes) == 0 {
			return fmt.Errorf("%w: no changes supplied", ErrValidationFailed)
		}

		// Back-reference to the snapshot being superseded.
		var previous model.DocumentVersion
		var previousID *uint
		err = tx.Where("document_id = ? AND version_number = ?", doc.ID, doc.CurrentVersion).
			First(&previous).Error
		if err == nil {
			previousID = &previous.ID
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		newVersion := doc.CurrentVersion + 1
		version := model.DocumentVersion{
			DocumentID:        doc.ID,
			VersionNumber:     newVersion,
			Title:             doc.Title,
			Content:           doc.Content,
			FileKey:           doc.FileKey,
			FileURL:           doc.FileURL,
			PageCount:         doc.PageCount,
			PreviousVersionID: previousID,
			CreatedByID:       req.Actor.ID,
		}
		if err := tx.Create(&version).Error; err != nil {
			return fmt.Errorf("failed to create document version: %w", err)
		}

		doc.CurrentVersion = newVersion
		if err := tx.Model(&doc).
			Updates(map[string]interface{}{
				"title":           doc.Title,
				"content":         doc.Content,
				"file_key":        doc.FileKey,
				"file_url":        doc.FileURL,
				"page_count":      doc.PageCount,
				"current_version": doc.CurrentVersion,
			}).Error; err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}

		changes = append(changes, model.FieldChange{Field: "current_version", Old: newVersion - 1, New: newVersion})
		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionUpdate,
			EntityType:  "library_document",
			EntityID:    strconv.FormatUint(uint64(doc.ID), 10),
			PerformedBy: req.Actor.ID,
			Changes:     changes,
			IPAddress:   req.IPAddress,
		})
	})
	if err != nil {
		s.cleanupUpload(ctx, file)
		return nil, err
	}

	return &doc, nil
}

// SoftDeleteDocument hides a document while keeping it (and its versions)
// in storage. Available to any admin.
func (s *LibraryService) SoftDeleteDocument(ctx context.Context, documentID uint, reason string, actor *model.User, ipAddress string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc model.LibraryDocument
		err := tx.Unscoped().
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&doc, documentID).Error
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: document %d", ErrNotFound, documentID)
		} else if err != nil {
			return err
		}
		if doc.DeletedAt.Valid {
			return ErrAlreadyDeleted
		}

		if err := tx.Model(&doc).
			Updates(map[string]interface{}{
				"deleted_by_id": actor.ID,
				"delete_reason": reason,
			}).Error; err != nil {
			return fmt.Errorf("failed to store deletion metadata: %w", err)
		}
		if err := tx.Delete(&doc).Error; err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionSoftDelete,
			EntityType:  "library_document",
			EntityID:    strconv.FormatUint(uint64(doc.ID), 10),
			PerformedBy: actor.ID,
			Changes: []model.FieldChange{
				{Field: "document", Old: doc.Title, New: nil},
			},
			Reason:    reason,
			IPAddress: ipAddress,
		})
	})
}

// HardDeleteDocument physically removes a document and its whole version
// chain. Irreversible, so it requires root privilege; the privilege check
// runs before any data is touched.
func (s *LibraryService) HardDeleteDocument(ctx context.Context, documentID uint, actor *model.User, ipAddress string) error {
	if !actor.HasRootPrivilege() {
		return ErrRootRequired
	}

	var fileKeys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc model.LibraryDocument
		err := tx.Unscoped().First(&doc, documentID).Error
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: document %d", ErrNotFound, documentID)
		} else if err != nil {
			return err
		}

		var versions []model.DocumentVersion
		if err := tx.Where("document_id = ?", doc.ID).Find(&versions).Error; err != nil {
			return err
		}
		for _, v := range versions {
			if v.FileKey != "" {
				fileKeys = append(fileKeys, v.FileKey)
			}
		}

		if err := tx.Where("document_id = ?", doc.ID).Delete(&model.DocumentVersion{}).Error; err != nil {
			return fmt.Errorf("failed to delete document versions: %w", err)
		}
		if err := tx.Unscoped().Delete(&doc).Error; err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionDelete,
			EntityType:  "library_document",
			EntityID:    strconv.FormatUint(uint64(doc.ID), 10),
			PerformedBy: actor.ID,
			Changes: []model.FieldChange{
				{Field: "document", Old: doc.Title, New: nil},
				{Field: "versions", Old: len(versions), New: nil},
			},
			IPAddress: ipAddress,
		})
	})
	if err != nil {
		return err
	}

	// Blob cleanup happens after commit; a failed delete leaves an
	// orphaned object, never a dangling database reference.
	if s.storage != nil {
		for _, key := range fileKeys {
			if err := s.storage.DeleteFile(ctx, key); err != nil {
				log.Printf("Warning: failed to delete stored file %s: %v", key, err)
			}
		}
	}

	return nil
}

// GetDocument loads one document by id.
func (s *LibraryService) GetDocument(ctx context.Context, documentID uint) (*model.LibraryDocument, error) {
	var doc model.LibraryDocument
	err := s.db.WithContext(ctx).First(&doc, documentID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: document %d", ErrNotFound, documentID)
	} else if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListVersions returns the full version chain for a document, oldest
// first.
func (s *LibraryService) ListVersions(ctx context.Context, documentID uint) ([]model.DocumentVersion, error) {
	var versions []model.DocumentVersion
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("version_number ASC").
		Find(&versions).Error
	return versions, err
}

// DownloadURL returns a presigned URL for the document's current file.
func (s *LibraryService) DownloadURL(ctx context.Context, documentID uint) (string, error) {
	doc, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc.FileKey == "" {
		return "", fmt.Errorf("%w: document has no file", ErrNotFound)
	}
	if s.storage == nil {
		return "", fmt.Errorf("%w: file storage is not configured", ErrValidationFailed)
	}
	return s.storage.PresignedURL(doc.FileKey, 15*time.Minute)
}
