package lifecycle

import (
	stderrors "errors"
	"strings"

	apperrors "github.com/goliatone/go-errors"
)

const (
	ErrCodeEntityRequired     = "LC_ENTITY_REQUIRED"
	ErrCodeEntityNotFound     = "LC_ENTITY_NOT_FOUND"
	ErrCodeInvalidTransition  = "LC_INVALID_TRANSITION"
	ErrCodeCriteriaRejected   = "LC_CRITERIA_REJECTED"
	ErrCodeProcessorFailed    = "LC_PROCESSOR_FAILED"
	ErrCodeVersionConflict    = "LC_VERSION_CONFLICT"
	ErrCodePreconditionFailed = "LC_PRECONDITION_FAILED"
	ErrCodeExternalCall       = "LC_EXTERNAL_CALL"
)

var (
	ErrEntityRequired = apperrors.New("entity required", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeEntityRequired)
	ErrEntityNotFound = apperrors.New("entity not found", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeEntityNotFound)
	ErrInvalidTransition = apperrors.New("invalid transition", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidTransition)
	ErrCriteriaRejected = apperrors.New("criteria rejected", apperrors.CategoryValidation).
				WithTextCode(ErrCodeCriteriaRejected)
	ErrProcessorFailed = apperrors.New("processor failed", apperrors.CategoryHandler).
				WithTextCode(ErrCodeProcessorFailed)
	ErrVersionConflict = apperrors.New("version conflict", apperrors.CategoryConflict).
				WithTextCode(ErrCodeVersionConflict)
	ErrPreconditionFailed = apperrors.New("precondition failed", apperrors.CategoryBadInput).
				WithTextCode(ErrCodePreconditionFailed)
	ErrExternalCall = apperrors.New("external call failed", apperrors.CategoryExternal).
			WithTextCode(ErrCodeExternalCall)
)

// NewError clones a sentinel with a specific message, source and metadata.
func NewError(base *apperrors.Error, message string, source error, metadata map[string]any) *apperrors.Error {
	if base == nil {
		base = ErrPreconditionFailed
	}
	err := base.Clone()
	if text := strings.TrimSpace(message); text != "" {
		err.Message = text
	}
	if source != nil {
		err.Source = source
	}
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

// ErrorCode extracts the text code from a lifecycle error chain.
func ErrorCode(err error) string {
	var ge *apperrors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

// IsNotFound reports whether the error chain carries the not-found code.
func IsNotFound(err error) bool {
	return ErrorCode(err) == ErrCodeEntityNotFound
}

func wrapError(source error, message string, metadata map[string]any) *apperrors.Error {
	return NewError(ErrPreconditionFailed, message, source, metadata)
}
