package pdfvalidation

import (
	"bytes"
	"strings"
	"testing"
)

func TestValidatePDFBytesRejectsOversizedFile(t *testing.T) {
	limits := Limits{MaxFileSizeMB: 1, MaxPages: 10}
	content := bytes.Repeat([]byte("a"), 2*1024*1024)

	result, err := ValidatePDFBytes(content, limits)
	if err != nil {
		t.Fatalf("ValidatePDFBytes returned error: %v", err)
	}
	if result.Valid {
		t.Error("oversized file reported valid")
	}
	if !strings.Contains(result.Error, "1MB") {
		t.Errorf("error %q does not mention the limit", result.Error)
	}
}

func TestValidatePDFBytesRejectsMissingHeader(t *testing.T) {
	result, err := ValidatePDFBytes([]byte("this is not a pdf"), DefaultLimits)
	if err != nil {
		t.Fatalf("ValidatePDFBytes returned error: %v", err)
	}
	if result.Valid {
		t.Error("non-PDF content reported valid")
	}
	if !strings.Contains(result.Error, "PDF header") {
		t.Errorf("error = %q, want header complaint", result.Error)
	}
}

func TestValidatePDFBytesRejectsTruncatedBody(t *testing.T) {
	// Correct magic but nothing parseable behind it.
	result, err := ValidatePDFBytes([]byte("%PDF-1.7\ngarbage"), DefaultLimits)
	if err != nil {
		t.Fatalf("ValidatePDFBytes returned error: %v", err)
	}
	if result.Valid {
		t.Error("truncated PDF reported valid")
	}
}
