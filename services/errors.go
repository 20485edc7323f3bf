package services

import "errors"

// Sentinel errors surfaced by the finance and library services. Handlers
// map these onto HTTP statuses at the boundary; services never touch the
// response writer.
var (
	ErrNotFound         = errors.New("record not found")
	ErrRootRequired     = errors.New("root privilege required")
	ErrRecordLocked     = errors.New("record is locked for a closed accounting period")
	ErrAlreadyDeleted   = errors.New("record has been deleted")
	ErrDuplicateRecord  = errors.New("record already exists")
	ErrValidationFailed = errors.New("validation failed")
)
