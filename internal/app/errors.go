package app

import (
	"errors"
	"fmt"
	"net/http"

	"workshop/api/internal/export"
	"workshop/api/internal/workshop"
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

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var validationErr *workshop.ValidationError
	if errors.As(err, &validationErr) {
		var fieldDetails any
		if validationErr.Field != "" {
			fieldDetails = map[string]string{"field": validationErr.Field}
		}
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", validationErr.Error(), fieldDetails
	}
	var notFoundErr *workshop.NotFoundError
	if errors.As(err, &notFoundErr) {
		return http.StatusNotFound, "NOT_FOUND", notFoundErr.Error(), map[string]string{"kind": notFoundErr.Kind, "id": notFoundErr.ID}
	}
	var groupingErr *workshop.GroupingUnavailableError
	if errors.As(err, &groupingErr) {
		return http.StatusServiceUnavailable, "GROUPING_UNAVAILABLE", "Grouping service unavailable", nil
	}
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		return http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF rendering requires Chrome", nil
	}
	if errors.Is(err, export.ErrStorageDisabled) {
		return http.StatusServiceUnavailable, "STORAGE_DISABLED", "Artifact storage not configured", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
