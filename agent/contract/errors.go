package contract

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("record not found")
	ErrStorage         = errors.New("storage operation failed")
	ErrExternalService = errors.New("external summarization failed")
	ErrUnknownTool     = errors.New("unknown tool")
)
