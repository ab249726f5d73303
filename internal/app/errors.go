package app

import (
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// validationError reports every violated field of a request body.
func validationError(fields map[string]string) *DomainError {
	return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", fields)
}

// notFoundError covers both a missing resource and one owned by another
// user; the two cases are deliberately indistinguishable to the caller.
func notFoundError() *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}
