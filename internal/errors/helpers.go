package errors

import (
	"fmt"
)

// Common error creators for frequent use cases

// NewValidationError creates a validation error with field context
func NewValidationError(field, message string) *AppError {
	return New(ErrCodeInvalidInput, message).
		WithContext("field", field).
		WithUserMessage(fmt.Sprintf("Invalid %s: %s", field, message))
}

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}

// NewPersistenceError creates a queue store error with operation context
func NewPersistenceError(operation string, err error) *AppError {
	return Wrap(err, ErrCodePersistence, fmt.Sprintf("queue store %s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage("Saving the question locally failed")
}

// NewRemoteError creates an error for a failed remote submission attempt.
// Every remote failure is retryable: the record stays queued and the next
// connectivity transition retries it.
func NewRemoteError(endpoint string, statusCode int, err error) *AppError {
	appErr := WrapRetryable(err, ErrCodeRemoteAPI, "remote submission failed").
		WithContext("endpoint", endpoint).
		WithUserMessage("The question could not be delivered yet")

	if statusCode != 0 {
		appErr = appErr.WithContext("status_code", statusCode)
	}
	return appErr
}
