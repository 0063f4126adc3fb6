package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ericfisherdev/creditgate/internal/application"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeAppError maps an application error to its status code. Internal
// errors are logged and their cause is never shown to the caller.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *application.Error
	if !errors.As(err, &appErr) || appErr.Kind == application.KindInternal {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := ErrorResponse{Message: appErr.Message}
	if appErr.ServerTime != 0 {
		ts := appErr.ServerTime
		resp.Timestamp = &ts
	}
	writeJSON(w, statusFor(appErr.Kind), resp)
}

// statusFor maps error kinds to HTTP status codes. Downstream rejections are
// reported as 400 because the caller's request is what the bank refused.
func statusFor(kind application.Kind) int {
	switch kind {
	case application.KindUnauthenticated:
		return http.StatusUnauthorized
	case application.KindInvalidRequest, application.KindUpstream:
		return http.StatusBadRequest
	case application.KindPaymentRequired:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the standard error response body. Timestamp is the
// server clock in Unix milliseconds, present on clock skew rejections.
type ErrorResponse struct {
	Message   string `json:"message"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

// MessageResponse is a plain informational body.
type MessageResponse struct {
	Message string `json:"message"`
}

// SuccessResponse acknowledges a call that returns no data.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// TransactionIDResponse carries a confirmed transfer's id.
type TransactionIDResponse struct {
	TxID string `json:"txid"`
}

// APIInfoResponse is the body of the api-info endpoint. Key is null for
// unauthenticated callers.
type APIInfoResponse struct {
	Message string           `json:"message"`
	Key     *KeyInfoResponse `json:"key"`
}

// KeyInfoResponse describes the caller's API key.
type KeyInfoResponse struct {
	UUID    string          `json:"uuid"`
	Credits CreditsResponse `json:"credits"`
}

// CreditsResponse is a key's balance.
type CreditsResponse struct {
	Remaining int64 `json:"remaining"`
	Renewal   int64 `json:"renewal"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
