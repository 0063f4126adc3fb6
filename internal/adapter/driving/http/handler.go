// Package httphandler is the HTTP driving adapter that serves the gateway API.
package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

// Request headers carrying caller credentials.
const (
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
	HeaderAccountID = "X-Account-Id"
	HeaderRequestID = "X-Request-ID"
)

// RequestObserver receives one observation per served request.
type RequestObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	auth     *application.AuthService
	login    *application.LoginService
	pipeline *application.Pipeline
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	auth *application.AuthService,
	login *application.LoginService,
	pipeline *application.Pipeline,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:     auth,
		login:    login,
		pipeline: pipeline,
		validate: newValidator(),
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with tracing, logging and recovery middleware. metrics may be nil, in which case
// /metrics is not served; observer may be nil.
func NewServeMux(h *Handler, metrics http.Handler, observer RequestObserver, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	mux.HandleFunc("POST /basic/login", h.authenticated(h.Login))
	mux.HandleFunc("GET /basic/api-info", h.authenticated(h.APIInfo))
	mux.HandleFunc("GET /basic/coupons", h.authenticated(h.FetchCoupons))
	mux.HandleFunc("GET /basic/profile", h.authenticated(h.FetchProfile))
	mux.HandleFunc("POST /basic/authenticate-qr", h.authenticated(h.AuthenticateQR))

	mux.HandleFunc("GET /accounts", h.authenticated(h.FetchAccounts))
	mux.HandleFunc("GET /accounts/{accountNo}/transactions", h.authenticated(h.FetchTransactions))
	mux.HandleFunc("POST /accounts/initiate-transfer", h.authenticated(h.InitiateTransfer))
	mux.HandleFunc("POST /accounts/process-transfer", h.authenticated(h.ProcessTransfer))

	mux.HandleFunc("GET /groups", h.authenticated(h.LookupGroups))
	mux.HandleFunc("PUT /groups", h.authenticated(h.CreateGroup))
	mux.HandleFunc("PUT /groups/invitations", h.authenticated(h.CreateInvitation))
	mux.HandleFunc("POST /groups/fetch-invitation-details", h.authenticated(h.FetchInvitation))
	mux.HandleFunc("POST /groups/accept-invitation", h.authenticated(h.AcceptInvitation))
	mux.HandleFunc("POST /groups/approve-join-request", h.authenticated(h.ApproveJoinRequest))

	mux.HandleFunc("GET /open-banking/info", h.authenticated(h.OpenBankingInfo))
	mux.HandleFunc("GET /open-banking/cap", h.authenticated(h.OpenBankingCap))
	mux.HandleFunc("POST /open-banking/initiate-transfer", h.authenticated(h.OpenBankingTransfer))
	mux.HandleFunc("POST /open-banking/finalize-transfer", h.authenticated(h.OpenBankingFinalize))
	mux.HandleFunc("DELETE /open-banking/accounts", h.authenticated(h.OpenBankingDelete))
	mux.HandleFunc("POST /open-banking/account-info", h.authenticated(h.OpenBankingAccount))
	mux.HandleFunc("POST /open-banking/transactions", h.authenticated(h.OpenBankingTransactions))

	mux.HandleFunc("GET /query/employees", h.authenticated(h.SearchEmployees))
	mux.HandleFunc("GET /query/branches", h.authenticated(h.SearchBranches))
	mux.HandleFunc("POST /query/account", h.authenticated(h.CheckAccount))

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	if observer != nil {
		wrapped = metricsMiddleware(mux, observer, wrapped)
	}
	wrapped = tracingMiddleware(mux, wrapped)

	return wrapped
}

// authedHandlerFunc is a handler that receives the caller's resolved context.
// rc is nil when the request carried no API key.
type authedHandlerFunc func(w http.ResponseWriter, r *http.Request, rc *application.RequestContext)

// authenticated resolves caller credentials before calling next. Requests
// without an Authorization header pass through unauthenticated; each
// operation decides whether it needs a key. Presented but invalid
// credentials are rejected here.
func (h *Handler) authenticated(next authedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authz := strings.TrimSpace(r.Header.Get("Authorization"))
		if authz == "" {
			next(w, r, nil)
			return
		}

		rc, err := h.auth.Authenticate(r.Context(), application.Credentials{
			Key:       strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")),
			Timestamp: r.Header.Get(HeaderTimestamp),
			Signature: r.Header.Get(HeaderSignature),
			AccountID: r.Header.Get(HeaderAccountID),
		})
		if err != nil {
			h.writeAppError(w, r, err)
			return
		}

		next(w, r, rc)
	}
}

// serve runs op through the metering pipeline and writes the result. render
// shapes the response body; nil writes the result as is.
func serve[T any](
	h *Handler,
	w http.ResponseWriter,
	r *http.Request,
	rc *application.RequestContext,
	op application.Operation,
	validate func() error,
	call func(ctx context.Context, account driven.BankAccount) (T, error),
	render func(T) any,
) {
	result, err := application.Invoke(r.Context(), h.pipeline, rc, op, validate, call)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if render == nil {
		writeJSON(w, http.StatusOK, result)
		return
	}
	writeJSON(w, http.StatusOK, render(result))
}

// Health reports liveness. It needs no credentials and costs nothing.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
