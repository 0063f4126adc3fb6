package model

import "encoding/json"

// Payload is a downstream result passed back to the caller verbatim.
type Payload = json.RawMessage

// TransactionQuery selects a page of an account's transaction history.
// Zero Limit or Page means "downstream default".
type TransactionQuery struct {
	AccountNumber string `json:"accountNumber"`
	Limit         int    `json:"limit,omitempty"`
	Page          int    `json:"page,omitempty"`
}

// TransferRequest starts a same-bank or interbank transfer.
type TransferRequest struct {
	Amount        int64  `json:"amount"`
	To            string `json:"to"`
	From          string `json:"from"`
	BankCode      string `json:"bankCode"`
	DepositorName string `json:"depositorName,omitempty"`
	Memo          string `json:"memo,omitempty"`
}

// PendingTransfer is the transfer descriptor returned by an initiate call and
// echoed back to confirm it.
type PendingTransfer struct {
	Memo          string `json:"memo"`
	Amount        int64  `json:"amount"`
	To            string `json:"to"`
	From          string `json:"from"`
	BankCode      string `json:"bankCode"`
	Fee           int64  `json:"fee"`
	Receiver      string `json:"receiver"`
	Sender        string `json:"sender"`
	TransactionID string `json:"transactionId"`
	DepositorName string `json:"depositorName"`
}

// BankAccountRef addresses an account at any bank.
type BankAccountRef struct {
	BankCode  string `json:"bankCode"`
	AccountNo string `json:"accountNo"`
}

// OpenBankingTransferRequest starts a transfer between two open-banking accounts.
type OpenBankingTransferRequest struct {
	From          BankAccountRef `json:"from"`
	To            BankAccountRef `json:"to"`
	Amount        int64          `json:"amount"`
	DepositorName string         `json:"depositorName"`
	Memo          string         `json:"memo"`
}

// OpenBankingTransactionQuery selects transactions of a registered
// open-banking account. Params carries any additional caller-supplied filters
// which are forwarded untouched.
type OpenBankingTransactionQuery struct {
	BankAccountRef
	Params map[string]json.RawMessage `json:"-"`
}

// GroupRequest creates a group (shared) account.
type GroupRequest struct {
	Name      string `json:"name"`
	AccountNo string `json:"accountNo"`
}

// InvitationRef identifies a group invitation.
type InvitationRef struct {
	EncryptedRequestDate string `json:"encryptedRequestDate"`
	EncryptedSequenceNo  string `json:"encryptedSequenceNo"`
}

// Invitation is a freshly created group invitation and its shareable URL.
type Invitation struct {
	URL    string  `json:"url"`
	Invite Payload `json:"invite"`
}

// MarshalJSON flattens Params next to the account reference; the reference
// fields win over same-named params.
func (q OpenBankingTransactionQuery) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(q.Params)+2)
	for k, v := range q.Params {
		out[k] = v
	}

	bankCode, err := json.Marshal(q.BankCode)
	if err != nil {
		return nil, err
	}
	accountNo, err := json.Marshal(q.AccountNo)
	if err != nil {
		return nil, err
	}
	out["bankCode"] = bankCode
	out["accountNo"] = accountNo

	return json.Marshal(out)
}
