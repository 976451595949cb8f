package typederrors

import (
	"errors"
	"fmt"
)

// GenericError carries the fields shared by the typed failures below.
type GenericError struct {
	Message string
	Err     error
}

func (ge GenericError) Error() string {
	if ge.Err != nil {
		return fmt.Sprintf("%s: %v", ge.Message, ge.Err)
	}
	return ge.Message
}

func (ge GenericError) Unwrap() error {
	return ge.Err
}

// ExtractionError reports a source file or stream that could not be read.
type ExtractionError struct {
	GenericError
	File string
}

func NewExtractionError(err error, file string, format string, args ...interface{}) error {
	return ExtractionError{
		GenericError: GenericError{fmt.Sprintf(format, args...), err},
		File:         file,
	}
}

func IsExtractionError(target error) bool {
	var e ExtractionError
	return errors.As(target, &e)
}

// StructuralError aborts a run before any rows are written, e.g. missing
// required columns or no source files at all.
type StructuralError struct {
	GenericError
}

func NewStructuralError(err error, format string, args ...interface{}) error {
	return StructuralError{
		GenericError: GenericError{fmt.Sprintf(format, args...), err},
	}
}

func IsStructuralError(target error) bool {
	var e StructuralError
	return errors.As(target, &e)
}

// LoadError identifies the table and batch whose write failed. Chunks
// committed before the failure stay committed.
type LoadError struct {
	GenericError
	Table   string
	BatchID string
}

func NewLoadError(err error, table, batchID string, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if batchID != "" {
		msg = fmt.Sprintf("%s (table=%s batch=%s)", msg, table, batchID)
	} else {
		msg = fmt.Sprintf("%s (table=%s)", msg, table)
	}
	return LoadError{
		GenericError: GenericError{msg, err},
		Table:        table,
		BatchID:      batchID,
	}
}

func IsLoadError(target error) bool {
	var e LoadError
	return errors.As(target, &e)
}

// AsLoadError extracts a LoadError from the chain.
func AsLoadError(target error) (LoadError, bool) {
	var e LoadError
	ok := errors.As(target, &e)
	return e, ok
}
