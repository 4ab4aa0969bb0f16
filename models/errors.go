package models

import (
	"errors"
	"fmt"
)

// Stable error kinds surfaced by the reconciliation engine and the importer.
// Callers branch on these with errors.Is; wrapped messages carry the entry id
// and amounts involved so failures can be retried or corrected.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrOverAllocation    = errors.New("allocation exceeds unallocated amount")
	ErrAlreadyReconciled = errors.New("statement entry is already fully allocated")
	ErrNotReconciled     = errors.New("statement entry is not reconciled")
	ErrConfiguration     = errors.New("missing configuration")
	ErrExternalService   = errors.New("voucher service rejected the operation")
	ErrFatalParse        = errors.New("statement file cannot be parsed")
)

func wrapErr(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
