package pipeline

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a stage or lead id that does not resolve, or a stage
	// that is archived where an active one is required.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a request that clashes with current state.
	ErrConflict = errors.New("conflict")

	// ErrRecordNotFound is returned by stores when no document matches.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned by stores on a unique index violation.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Error is a client-facing failure with a readable message.
type Error struct {
	Kind    error
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func validationError(message string) *Error {
	return &Error{Kind: ErrValidation, Status: http.StatusBadRequest, Message: message}
}

func notFoundError(message string) *Error {
	return &Error{Kind: ErrNotFound, Status: http.StatusNotFound, Message: message}
}

func conflictError(status int, message string) *Error {
	return &Error{Kind: ErrConflict, Status: status, Message: message}
}

var (
	errStageNotFound       = notFoundError("Stage not found")
	errLeadNotFound        = notFoundError("Lead not found")
	errStageHasLeads       = conflictError(http.StatusBadRequest, "Cannot delete stage: leads are still assigned to it. Move or delete those leads first")
	errDuplicateName       = conflictError(http.StatusConflict, "A stage with this name already exists in the pipeline")
	errEmptyStageName      = validationError("Stage name is required")
	errUnknownPipeline     = validationError("Invalid pipeline type")
	errInvalidStageID      = validationError("Invalid stage id")
	errInvalidLeadID       = validationError("Invalid lead id")
	errMissingLeadFields   = validationError("Full name and phone are required")
	errEmptyLeadField      = validationError("Full name and phone cannot be empty")
	errNoStageResolved     = validationError("No stage available for this pipeline")
	errWrongPipeline       = validationError("Stage belongs to a different pipeline")
	errEmptyStageOrder     = validationError("Stage order must list at least one stage")
	errForeignStageOrder   = validationError("Stage order contains stages that do not belong to this pipeline")
	errDuplicateStageOrder = validationError("Stage order lists the same stage twice")
	errInvalidFollowUp     = validationError("Invalid follow-up date")
)
