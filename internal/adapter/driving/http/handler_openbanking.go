package httphandler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

func (h *Handler) OpenBankingInfo(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	serve(h, w, r, rc, application.OpOpenBankingInfo, nil, noArgs(driven.BankAccount.FetchOpenBankingInfo), nil)
}

func (h *Handler) OpenBankingCap(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	serve(h, w, r, rc, application.OpOpenBankingCap, nil, noArgs(driven.BankAccount.FetchOpenBankingCap), nil)
}

func (h *Handler) OpenBankingTransfer(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req OpenBankingTransferRequest
	serve(h, w, r, rc, application.OpOpenBankingTransfer,
		func() error { return h.decodeAndValidate(r, &req) },
		func(ctx context.Context, account driven.BankAccount) (model.Payload, error) {
			return account.InitiateOpenBankingTransfer(ctx, req.toModel())
		},
		nil,
	)
}

func (h *Handler) OpenBankingFinalize(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	serve(h, w, r, rc, application.OpOpenBankingFinalize, nil, noArgs(driven.BankAccount.FinalizeOpenBankingTransfer), nil)
}

func (h *Handler) OpenBankingDelete(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req BankAccountRequest
	serve(h, w, r, rc, application.OpOpenBankingDelete,
		func() error { return h.decodeAndValidate(r, &req) },
		func(ctx context.Context, account driven.BankAccount) (struct{}, error) {
			return struct{}{}, account.DeleteOpenBankingAccount(ctx, req.toModel())
		},
		renderSuccess,
	)
}

func (h *Handler) OpenBankingAccount(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req BankAccountRequest
	serve(h, w, r, rc, application.OpOpenBankingAccount,
		func() error { return h.decodeAndValidate(r, &req) },
		func(ctx context.Context, account driven.BankAccount) (model.Payload, error) {
			return account.FetchOpenBankingAccount(ctx, req.toModel())
		},
		nil,
	)
}

// OpenBankingTransactions forwards any body fields besides the account
// reference to the bank untouched.
func (h *Handler) OpenBankingTransactions(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var q model.OpenBankingTransactionQuery

	validate := func() error {
		var fields map[string]json.RawMessage
		if err := decodeJSON(r, &fields); err != nil {
			return err
		}

		var ref BankAccountRequest
		for name, dst := range map[string]*string{"bankCode": &ref.BankCode, "accountNo": &ref.AccountNo} {
			if raw, ok := fields[name]; ok {
				if err := json.Unmarshal(raw, dst); err != nil {
					return application.InvalidRequest("Invalid %s", name)
				}
			}
			delete(fields, name)
		}
		if err := h.check(&ref); err != nil {
			return err
		}

		q = model.OpenBankingTransactionQuery{BankAccountRef: ref.toModel(), Params: fields}
		return nil
	}

	serve(h, w, r, rc, application.OpOpenBankingTransactions, validate,
		payloadOf(&q, driven.BankAccount.FetchOpenBankingTransactions), nil)
}
