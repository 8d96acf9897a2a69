package httpapi

import (
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

const (
	apiVersion  = "2.0"
	errorDomain = "cricket-battle"
)

// envelope follows the Google JSON style guide: exactly one of data or error.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorKind struct {
	sentinel   error
	HTTPStatus int
	Reason     string
	Status     string
}

var (
	internalKind = errorKind{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}

	errorKinds = []errorKind{
		{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
		{usecase.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
		{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
		{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"},
		{usecase.ErrRuleViolation, http.StatusConflict, "ruleViolation", "FAILED_PRECONDITION"},
	}
)

func classify(err error) errorKind {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.sentinel) {
			return kind
		}
	}
	return internalKind
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: apiVersion, Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	writeFailure(w, classify(err), err.Error())
}

func writeInternalError(w http.ResponseWriter) {
	writeFailure(w, internalKind, "internal server error")
}

func writeFailure(w http.ResponseWriter, kind errorKind, msg string) {
	writeJSON(w, kind.HTTPStatus, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    kind.HTTPStatus,
			Message: msg,
			Status:  kind.Status,
			Errors:  []errorItem{{Domain: errorDomain, Reason: kind.Reason, Message: msg}},
		},
	})
}
