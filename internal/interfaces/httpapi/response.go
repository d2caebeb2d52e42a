package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "matchday"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

// errorMappings is checked in order; the first sentinel found in the chain wins.
var errorMappings = []struct {
	sentinels []error
	mapped    mappedError
}{
	{[]error{usecase.ErrInvalidInput}, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{[]error{usecase.ErrUnauthorized}, mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"}},
	{[]error{usecase.ErrForbidden}, mappedError{http.StatusForbidden, "forbidden", "PERMISSION_DENIED"}},
	{[]error{usecase.ErrNotFound}, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{[]error{usecase.ErrConcurrencyConflict}, mappedError{http.StatusConflict, "concurrencyConflict", "ABORTED"}},
	{[]error{usecase.ErrDuplicateEntry}, mappedError{http.StatusConflict, "duplicateEntry", "ALREADY_EXISTS"}},
	{[]error{usecase.ErrInvalidState}, mappedError{http.StatusConflict, "invalidState", "FAILED_PRECONDITION"}},
	{[]error{usecase.ErrMethodDisabled}, mappedError{http.StatusUnprocessableEntity, "methodDisabled", "FAILED_PRECONDITION"}},
	{[]error{usecase.ErrInvalidPoolSize}, mappedError{http.StatusUnprocessableEntity, "invalidPoolSize", "FAILED_PRECONDITION"}},
	{[]error{usecase.ErrDependencyUnavailable}, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
	{[]error{usecase.ErrTimeout, context.DeadlineExceeded}, mappedError{http.StatusGatewayTimeout, "timeout", "DEADLINE_EXCEEDED"}},
}

var internalError = mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}

func mapError(_ context.Context, err error) mappedError {
	for _, m := range errorMappings {
		for _, sentinel := range m.sentinels {
			if errors.Is(err, sentinel) {
				return m.mapped
			}
		}
	}
	return internalError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, googleResponseEnvelope{APIVersion: googleAPIVersion, Data: data})
}

// writeError renders err with its mapped status. Unmapped errors become a
// generic 500 so internal detail never reaches the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(ctx, err)
	message := err.Error()
	if mapped == internalError {
		message = "internal server error"
	}
	writeJSON(w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors:  []googleErrorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: message}},
		},
	})
}
