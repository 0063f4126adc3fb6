package httphandler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

// Login establishes the downstream session for the account named in the
// body. It costs nothing and does not require an existing session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	if rc == nil {
		h.writeAppError(w, r, application.ErrUnauthorized)
		return
	}

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	elapsed, err := h.login.Login(r.Context(), rc.APIKey, req.AccountID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Login took %dms", elapsed.Milliseconds()),
	})
}

// APIInfo reports that the gateway is up and, for an authenticated caller,
// the key's balance.
func (h *Handler) APIInfo(w http.ResponseWriter, _ *http.Request, rc *application.RequestContext) {
	resp := APIInfoResponse{Message: "System is up and running"}
	if rc != nil && rc.APIKey != nil {
		resp.Key = &KeyInfoResponse{
			UUID: rc.APIKey.UUID,
			Credits: CreditsResponse{
				Remaining: rc.APIKey.Balance.Remaining,
				Renewal:   rc.APIKey.Balance.Renewal,
			},
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) FetchCoupons(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	serve(h, w, r, rc, application.OpFetchCoupons, nil, noArgs(driven.BankAccount.FetchCoupons), nil)
}

func (h *Handler) FetchProfile(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	serve(h, w, r, rc, application.OpFetchProfile, nil, noArgs(driven.BankAccount.FetchProfile), nil)
}

func (h *Handler) AuthenticateQR(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req QRRequest
	serve(h, w, r, rc, application.OpAuthenticateQR,
		func() error { return h.decodeAndValidate(r, &req) },
		func(ctx context.Context, account driven.BankAccount) (struct{}, error) {
			return struct{}{}, account.AuthenticateQR(ctx, req.Code)
		},
		renderSuccess,
	)
}

// renderSuccess renders calls that return nothing but success.
func renderSuccess(struct{}) any {
	return SuccessResponse{Success: true}
}

// noArgs adapts an argument-free BankAccount method expression to a
// pipeline call.
func noArgs(fn func(driven.BankAccount, context.Context) (model.Payload, error)) func(context.Context, driven.BankAccount) (model.Payload, error) {
	return func(ctx context.Context, account driven.BankAccount) (model.Payload, error) {
		return fn(account, ctx)
	}
}

// payloadOf adapts a one-argument BankAccount method expression. arg is
// read when the call runs, after validation has filled it.
func payloadOf[A any](arg *A, fn func(driven.BankAccount, context.Context, A) (model.Payload, error)) func(context.Context, driven.BankAccount) (model.Payload, error) {
	return func(ctx context.Context, account driven.BankAccount) (model.Payload, error) {
		return fn(account, ctx, *arg)
	}
}
