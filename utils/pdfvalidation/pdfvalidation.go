package pdfvalidation

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Limits defines the validation limits for library document uploads
type Limits struct {
	MaxFileSizeMB int
	MaxPages      int
}

// DefaultLimits covers ordinary library content (notes, circulars)
var DefaultLimits = Limits{
	MaxFileSizeMB: 100,
	MaxPages:      2000,
}

// Result contains the outcome of PDF validation
type Result struct {
	Valid     bool
	PageCount int
	FileSize  int64
	Error     string
}

// ValidatePDFBytes validates PDF content against the given limits and
// reports the page count. A malformed file yields Valid=false with a
// client-facing message, not an error.
func ValidatePDFBytes(content []byte, limits Limits) (*Result, error) {
	result := &Result{
		FileSize: int64(len(content)),
	}

	maxSize := int64(limits.MaxFileSizeMB) * 1024 * 1024
	if result.FileSize > maxSize {
		result.Error = fmt.Sprintf("File size exceeds maximum allowed size of %dMB", limits.MaxFileSizeMB)
		return result, nil
	}

	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		result.Error = "Invalid PDF file: missing PDF header"
		return result, nil
	}

	pageCount, err := pdfPageCount(content)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to read PDF: %v", err)
		return result, nil
	}
	result.PageCount = pageCount

	if pageCount == 0 {
		result.Error = "PDF has no pages"
		return result, nil
	}
	if pageCount > limits.MaxPages {
		result.Error = fmt.Sprintf("PDF has %d pages, which exceeds the maximum of %d pages", pageCount, limits.MaxPages)
		return result, nil
	}

	result.Valid = true
	return result, nil
}

func pdfPageCount(content []byte) (int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}
