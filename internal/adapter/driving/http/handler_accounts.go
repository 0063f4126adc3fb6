package httphandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

func (h *Handler) FetchAccounts(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	serve(h, w, r, rc, application.OpFetchAccounts, nil, noArgs(driven.BankAccount.FetchAccounts), nil)
}

// FetchTransactions lists an account's transactions. limit and page are
// optional but must be integers when present.
func (h *Handler) FetchTransactions(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	q := model.TransactionQuery{AccountNumber: r.PathValue("accountNo")}

	validate := func() error {
		var err error
		if q.Limit, err = optionalInt(r, "limit"); err != nil {
			return err
		}
		q.Page, err = optionalInt(r, "page")
		return err
	}

	serve(h, w, r, rc, application.OpFetchTransactions, validate,
		payloadOf(&q, driven.BankAccount.FetchTransactions), nil)
}

func (h *Handler) InitiateTransfer(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req TransferRequest
	serve(h, w, r, rc, application.OpInitiateTransfer,
		func() error { return h.decodeAndValidate(r, &req) },
		func(ctx context.Context, account driven.BankAccount) (model.Payload, error) {
			return account.InitiateTransfer(ctx, req.toModel())
		},
		nil,
	)
}

func (h *Handler) ProcessTransfer(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req ProcessTransferRequest
	serve(h, w, r, rc, application.OpProcessTransfer,
		func() error { return h.decodeProcessTransfer(r, &req) },
		func(ctx context.Context, account driven.BankAccount) (string, error) {
			return account.ProcessTransfer(ctx, req.Tx.toModel(), req.Passcode)
		},
		func(txid string) any { return TransactionIDResponse{TxID: txid} },
	)
}

// optionalInt parses query parameter name; absent or empty yields zero.
func optionalInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, application.InvalidRequest("%s must be a non-negative integer", name)
	}
	return n, nil
}
