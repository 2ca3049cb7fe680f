// internal/agent/errors.go
package agent

import (
	"context"
	"errors"
)

// ErrorCode is a string type used for structured error reporting from the
// action executor.
type ErrorCode string

const (
	ErrCodeElementNotFound  ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeTimeoutError     ErrorCode = "TIMEOUT_ERROR"
	ErrCodeExecutionFailure ErrorCode = "EXECUTION_FAILURE"
	ErrCodeUnknownAction    ErrorCode = "UNKNOWN_ACTION_TYPE"
)

var (
	// ErrTargetNotFound means a selector never attached within the element
	// timeout.
	ErrTargetNotFound = errors.New("action target not found")
	// ErrUnknownAction is returned for plan entries the executor cannot
	// dispatch.
	ErrUnknownAction = errors.New("unknown action type")
)

// classifyError maps an action failure to its error code.
func classifyError(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrTargetNotFound):
		return ErrCodeElementNotFound
	case errors.Is(err, ErrUnknownAction):
		return ErrCodeUnknownAction
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeoutError
	default:
		return ErrCodeExecutionFailure
	}
}
