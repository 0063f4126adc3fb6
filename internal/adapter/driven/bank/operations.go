package bank

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
)

// --- accounts ---

func (s *Session) FetchAccounts(ctx context.Context) (model.Payload, error) {
	return s.payload(ctx, http.MethodGet, "/v1/accounts", nil, nil)
}

func (s *Session) FetchTransactions(ctx context.Context, q model.TransactionQuery) (model.Payload, error) {
	query := url.Values{}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	return s.payload(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(q.AccountNumber)+"/transactions", query, nil)
}

func (s *Session) InitiateTransfer(ctx context.Context, req model.TransferRequest) (model.Payload, error) {
	return s.payload(ctx, http.MethodPost, "/v1/transfers", nil, req)
}

type processTransferRequest struct {
	Tx       model.PendingTransfer `json:"tx"`
	Passcode string                `json:"passcode"`
}

type processTransferResponse struct {
	TxID string `json:"txid"`
}

func (s *Session) ProcessTransfer(ctx context.Context, tx model.PendingTransfer, passcode string) (string, error) {
	var resp processTransferResponse
	err := s.do(ctx, http.MethodPost, "/v1/transfers/process", nil, processTransferRequest{Tx: tx, Passcode: passcode}, &resp)
	if err != nil {
		return "", err
	}
	return resp.TxID, nil
}

// --- customer ---

func (s *Session) FetchCoupons(ctx context.Context) (model.Payload, error) {
	return s.payload(ctx, http.MethodGet, "/v1/coupons", nil, nil)
}

func (s *Session) FetchProfile(ctx context.Context) (model.Payload, error) {
	return s.payload(ctx, http.MethodGet, "/v1/profile", nil, nil)
}

func (s *Session) AuthenticateQR(ctx context.Context, code string) error {
	return s.do(ctx, http.MethodPost, "/v1/qr/authenticate", nil, map[string]string{"code": code}, nil)
}

// --- groups ---

type sequenceRequest struct {
	EncryptedSequenceNo string `json:"encryptedSequenceNo"`
}

func (s *Session) LookupGroups(ctx context.Context) (model.Payload, error) {
	return s.payload(ctx, http.MethodGet, "/v1/groups", nil, nil)
}

func (s *Session) CreateGroup(ctx context.Context, req model.GroupRequest) (model.Payload, error) {
	return s.payload(ctx, http.MethodPut, "/v1/groups", nil, req)
}

func (s *Session) CreateInvitation(ctx context.Context, encryptedSequenceNo string) (model.Invitation, error) {
	var inv model.Invitation
	err := s.do(ctx, http.MethodPost, "/v1/groups/invitations", nil, sequenceRequest{EncryptedSequenceNo: encryptedSequenceNo}, &inv)
	if err != nil {
		return model.Invitation{}, err
	}
	return inv, nil
}

func (s *Session) FetchInvitation(ctx context.Context, ref model.InvitationRef) (model.Payload, error) {
	return s.payload(ctx, http.MethodPost, "/v1/groups/invitations/details", nil, ref)
}

func (s *Session) AcceptInvitation(ctx context.Context, encryptedSequenceNo string) error {
	return s.do(ctx, http.MethodPost, "/v1/groups/invitations/accept", nil, sequenceRequest{EncryptedSequenceNo: encryptedSequenceNo}, nil)
}

func (s *Session) ApproveJoinRequest(ctx context.Context, encryptedSequenceNo, targetCustomerNo string) error {
	body := struct {
		EncryptedSequenceNo string `json:"encryptedSequenceNo"`
		TargetCustomerNo    string `json:"targetCustomerNo,omitempty"`
	}{encryptedSequenceNo, targetCustomerNo}
	return s.do(ctx, http.MethodPost, "/v1/groups/join-requests/approve", nil, body, nil)
}

// --- open banking ---

func (s *Session) FetchOpenBankingInfo(ctx context.Context) (model.Payload, error) {
	return s.payload(ctx, http.MethodGet, "/v1/open-banking/info", nil, nil)
}

func (s *Session) FetchOpenBankingCap(ctx context.Context) (model.Payload, error) {
	return s.payload(ctx, http.MethodGet, "/v1/open-banking/cap", nil, nil)
}

func (s *Session) InitiateOpenBankingTransfer(ctx context.Context, req model.OpenBankingTransferRequest) (model.Payload, error) {
	return s.payload(ctx, http.MethodPost, "/v1/open-banking/transfers", nil, req)
}

func (s *Session) FinalizeOpenBankingTransfer(ctx context.Context) (model.Payload, error) {
	return s.payload(ctx, http.MethodPost, "/v1/open-banking/transfers/finalize", nil, nil)
}

func (s *Session) DeleteOpenBankingAccount(ctx context.Context, ref model.BankAccountRef) error {
	return s.do(ctx, http.MethodDelete, "/v1/open-banking/accounts", nil, ref, nil)
}

func (s *Session) FetchOpenBankingAccount(ctx context.Context, ref model.BankAccountRef) (model.Payload, error) {
	return s.payload(ctx, http.MethodPost, "/v1/open-banking/accounts/lookup", nil, ref)
}

func (s *Session) FetchOpenBankingTransactions(ctx context.Context, q model.OpenBankingTransactionQuery) (model.Payload, error) {
	return s.payload(ctx, http.MethodPost, "/v1/open-banking/transactions", nil, q)
}

// --- directory ---

func (s *Session) SearchEmployees(ctx context.Context, query string) (model.Payload, error) {
	return s.payload(ctx, http.MethodGet, "/v1/directory/employees", url.Values{"query": {query}}, nil)
}

func (s *Session) SearchBranches(ctx context.Context, query string) (model.Payload, error) {
	return s.payload(ctx, http.MethodGet, "/v1/directory/branches", url.Values{"query": {query}}, nil)
}

func (s *Session) CheckAccount(ctx context.Context, ref model.BankAccountRef) (model.Payload, error) {
	return s.payload(ctx, http.MethodPost, "/v1/directory/account-check", nil, ref)
}
