package httpapi

import (
	"context"
	"net/http"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/prode/internal/domain/ranking"
	"github.com/riskibarqy/prode/internal/domain/scoring"
	"github.com/riskibarqy/prode/internal/usecase"
	"go.opentelemetry.io/otel/trace"
)

const (
	apiVersion  = "2.0"
	errorDomain = "prode"
)

// envelope follows the Google JSON style guide: data on success, error
// otherwise, never both.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Status  string        `json:"status"`
	Errors  []errorDetail `json:"errors,omitempty"`
}

type errorDetail struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorClass struct {
	HTTPStatus int
	Reason     string
	Status     string
}

var internalClass = errorClass{http.StatusInternalServerError, "internalError", "INTERNAL"}

// errorClasses is walked in order; the first rule with a matching target wins.
var errorClasses = []struct {
	targets []error
	class   errorClass
}{
	{
		targets: []error{usecase.ErrInvalidInput, ranking.ErrInvalidFilter, ranking.ErrUnknownKind},
		class:   errorClass{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
	},
	{
		targets: []error{usecase.ErrNotFound},
		class:   errorClass{http.StatusNotFound, "notFound", "NOT_FOUND"},
	},
	{
		targets: []error{usecase.ErrUnauthorized},
		class:   errorClass{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
	},
	{
		targets: []error{usecase.ErrPredictionLocked},
		class:   errorClass{http.StatusConflict, "predictionLocked", "FAILED_PRECONDITION"},
	},
	{
		targets: []error{scoring.ErrNotScorable},
		class:   errorClass{http.StatusConflict, "notScorable", "FAILED_PRECONDITION"},
	},
	{
		targets: []error{usecase.ErrSyncInProgress},
		class:   errorClass{http.StatusConflict, "syncInProgress", "ABORTED"},
	},
	{
		targets: []error{usecase.ErrDependencyUnavailable},
		class:   errorClass{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"},
	},
	{
		targets: []error{usecase.ErrTransport, usecase.ErrMalformedPayload},
		class:   errorClass{http.StatusBadGateway, "upstreamFailure", "UNAVAILABLE"},
	},
}

func classifyError(err error) errorClass {
	for _, rule := range errorClasses {
		for _, target := range rule.targets {
			if crerr.Is(err, target) {
				return rule.class
			}
		}
	}
	return internalClass
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: apiVersion, Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	class := classifyError(err)
	if class.HTTPStatus >= http.StatusInternalServerError {
		trace.SpanFromContext(ctx).RecordError(err)
	}
	writeFailure(w, class, err.Error())
}

// writeInternalError hides the cause from the client.
func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeFailure(w, internalClass, "internal server error")
}

func writeFailure(w http.ResponseWriter, class errorClass, msg string) {
	writeJSON(w, class.HTTPStatus, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    class.HTTPStatus,
			Message: msg,
			Status:  class.Status,
			Errors:  []errorDetail{{Domain: errorDomain, Reason: class.Reason, Message: msg}},
		},
	})
}
