package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sahilchouksey/college-admin-api/model"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func createTestDocument(t *testing.T, svc *LibraryService, actor *model.User) *model.LibraryDocument {
	t.Helper()

	doc, err := svc.CreateDocument(context.Background(), CreateDocumentRequest{
		Title:   "Examination circular",
		Content: "Semester exams begin on the 12th.",
		Actor:   actor,
	})
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	return doc
}

func TestDocumentVersionChain(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLibraryService(db, nil)
	admin := createTestUser(t, db, "admin", false)

	doc := createTestDocument(t, svc, admin)
	if doc.CurrentVersion != 1 {
		t.Fatalf("new document current_version = %d, want 1", doc.CurrentVersion)
	}

	doc, err := svc.UpdateDocument(context.Background(), doc.ID, UpdateDocumentRequest{
		Content: strPtr("Semester exams begin on the 15th."),
		Actor:   admin,
	})
	if err != nil {
		t.Fatalf("first UpdateDocument failed: %v", err)
	}
	doc, err = svc.UpdateDocument(context.Background(), doc.ID, UpdateDocumentRequest{
		Title: strPtr("Examination circular (revised)"),
		Actor: admin,
	})
	if err != nil {
		t.Fatalf("second UpdateDocument failed: %v", err)
	}
	if doc.CurrentVersion != 3 {
		t.Errorf("current_version = %d, want 3", doc.CurrentVersion)
	}

	versions, err := svc.ListVersions(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("got %d versions, want 3", len(versions))
	}
	for i, v := range versions {
		if v.VersionNumber != i+1 {
			t.Errorf("versions[%d].VersionNumber = %d, want %d", i, v.VersionNumber, i+1)
		}
	}

	// Version 1 content is frozen; only the head moved.
	if versions[0].Content != "Semester exams begin on the 12th." {
		t.Errorf("version 1 content changed: %q", versions[0].Content)
	}
	if versions[2].Title != "Examination circular (revised)" {
		t.Errorf("version 3 title = %q", versions[2].Title)
	}

	// Each snapshot after the first points back at its predecessor.
	if versions[1].PreviousVersionID == nil || *versions[1].PreviousVersionID != versions[0].ID {
		t.Errorf("version 2 previous_version_id = %v, want %d", versions[1].PreviousVersionID, versions[0].ID)
	}
	if versions[2].PreviousVersionID == nil || *versions[2].PreviousVersionID != versions[1].ID {
		t.Errorf("version 3 previous_version_id = %v, want %d", versions[2].PreviousVersionID, versions[1].ID)
	}
}

func TestUpdateDocumentRejectsNoChanges(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLibraryService(db, nil)
	admin := createTestUser(t, db, "admin", false)

	doc := createTestDocument(t, svc, admin)

	_, err := svc.UpdateDocument(context.Background(), doc.ID, UpdateDocumentRequest{
		Content: strPtr(doc.Content), // identical
		Actor:   admin,
	})
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("no-op update returned %v, want ErrValidationFailed", err)
	}

	var count int64
	db.Model(&model.DocumentVersion{}).Where("document_id = ?", doc.ID).Count(&count)
	if count != 1 {
		t.Errorf("no-op update created a version: count = %d, want 1", count)
	}
}

func TestSoftDeletedDocumentRefusesUpdates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLibraryService(db, nil)
	admin := createTestUser(t, db, "admin", false)

	doc := createTestDocument(t, svc, admin)

	if err := svc.SoftDeleteDocument(context.Background(), doc.ID, "superseded", admin, ""); err != nil {
		t.Fatalf("SoftDeleteDocument failed: %v", err)
	}

	_, err := svc.UpdateDocument(context.Background(), doc.ID, UpdateDocumentRequest{
		Content: strPtr("edit after delete"),
		Actor:   admin,
	})
	if !errors.Is(err, ErrAlreadyDeleted) {
		t.Errorf("update of deleted document returned %v, want ErrAlreadyDeleted", err)
	}

	// Soft delete keeps the row and its versions recoverable.
	var kept model.LibraryDocument
	if err := db.Unscoped().First(&kept, doc.ID).Error; err != nil {
		t.Fatalf("soft-deleted document not retained: %v", err)
	}
	var versionCount int64
	db.Model(&model.DocumentVersion{}).Where("document_id = ?", doc.ID).Count(&versionCount)
	if versionCount != 1 {
		t.Errorf("soft delete touched versions: count = %d, want 1", versionCount)
	}
}

func TestHardDeleteDocumentRequiresRoot(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLibraryService(db, nil)
	admin := createTestUser(t, db, "admin", false)
	root := createTestUser(t, db, "admin", true)

	doc := createTestDocument(t, svc, admin)
	if _, err := svc.UpdateDocument(context.Background(), doc.ID, UpdateDocumentRequest{
		Content: strPtr("second revision"),
		Actor:   admin,
	}); err != nil {
		t.Fatalf("UpdateDocument failed: %v", err)
	}

	if err := svc.HardDeleteDocument(context.Background(), doc.ID, admin, ""); !errors.Is(err, ErrRootRequired) {
		t.Fatalf("HardDeleteDocument by non-root returned %v, want ErrRootRequired", err)
	}

	if err := svc.HardDeleteDocument(context.Background(), doc.ID, root, ""); err != nil {
		t.Fatalf("HardDeleteDocument by root failed: %v", err)
	}

	// Document and its whole version chain are gone for good.
	var count int64
	db.Unscoped().Model(&model.LibraryDocument{}).Where("id = ?", doc.ID).Count(&count)
	if count != 0 {
		t.Errorf("hard-deleted document still present")
	}
	db.Model(&model.DocumentVersion{}).Where("document_id = ?", doc.ID).Count(&count)
	if count != 0 {
		t.Errorf("hard-deleted document left %d versions behind", count)
	}

	// The audit trail is the only remaining record.
	if err := db.Where("entity_type = ? AND entity_id = ? AND action = ?",
		"library_document", fmt.Sprint(doc.ID), model.AuditActionDelete).
		First(&model.AuditLog{}).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			t.Errorf("hard delete left no audit entry")
		} else {
			t.Fatalf("failed to query audit trail: %v", err)
		}
	}
}
