package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/domain/model"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// LoginRequest is the JSON body for the login endpoint.
type LoginRequest struct {
	AccountID string `json:"accountId"`
}

// QRRequest is the JSON body for QR authentication.
type QRRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// TransferRequest is the JSON body for starting a transfer.
type TransferRequest struct {
	Amount        int64  `json:"amount" validate:"gt=0"`
	To            string `json:"to" validate:"required"`
	From          string `json:"from" validate:"required"`
	BankCode      string `json:"bankCode" validate:"required"`
	DepositorName string `json:"depositorName"`
	Memo          string `json:"memo"`
}

func (t TransferRequest) toModel() model.TransferRequest {
	return model.TransferRequest{
		Amount:        t.Amount,
		To:            t.To,
		From:          t.From,
		BankCode:      t.BankCode,
		DepositorName: t.DepositorName,
		Memo:          t.Memo,
	}
}

// ProcessTransferRequest is the JSON body for confirming a transfer.
type ProcessTransferRequest struct {
	Tx       *PendingTransferRequest `json:"tx" validate:"required"`
	Passcode string                  `json:"passcode" validate:"required,len=4"`
}

// PendingTransferRequest is the transfer descriptor echoed back from an
// initiate call. Every field must be present; empty strings and zero
// amounts are accepted.
type PendingTransferRequest struct {
	Memo          *string `json:"memo" validate:"required"`
	Amount        *int64  `json:"amount" validate:"required"`
	To            *string `json:"to" validate:"required"`
	From          *string `json:"from" validate:"required"`
	BankCode      *string `json:"bankCode" validate:"required"`
	Fee           *int64  `json:"fee" validate:"required"`
	Receiver      *string `json:"receiver" validate:"required"`
	Sender        *string `json:"sender" validate:"required"`
	TransactionID *string `json:"transactionId" validate:"required"`
	DepositorName *string `json:"depositorName" validate:"required"`
}

// toModel must only be called on a validated request.
func (p *PendingTransferRequest) toModel() model.PendingTransfer {
	return model.PendingTransfer{
		Memo:          *p.Memo,
		Amount:        *p.Amount,
		To:            *p.To,
		From:          *p.From,
		BankCode:      *p.BankCode,
		Fee:           *p.Fee,
		Receiver:      *p.Receiver,
		Sender:        *p.Sender,
		TransactionID: *p.TransactionID,
		DepositorName: *p.DepositorName,
	}
}

// GroupRequest is the JSON body for creating a group account.
type GroupRequest struct {
	Name      string `json:"name" validate:"required"`
	AccountNo string `json:"accountNo" validate:"required"`
}

// SequenceRequest carries a group invitation sequence number.
type SequenceRequest struct {
	EncryptedSequenceNo string `json:"encryptedSequenceNo" validate:"required"`
}

// InvitationDetailsRequest is the JSON body for fetching an invitation.
type InvitationDetailsRequest struct {
	EncryptedRequestDate string `json:"encryptedRequestDate" validate:"required"`
	EncryptedSequenceNo  string `json:"encryptedSequenceNo" validate:"required"`
}

// ApproveJoinRequest is the JSON body for approving a join request.
type ApproveJoinRequest struct {
	EncryptedSequenceNo string `json:"encryptedSequenceNo" validate:"required"`
	TargetCustomerNo    string `json:"targetCustomerNo"`
}

// BankAccountRequest addresses an account at any bank.
type BankAccountRequest struct {
	BankCode  string `json:"bankCode" validate:"required"`
	AccountNo string `json:"accountNo" validate:"required"`
}

func (b BankAccountRequest) toModel() model.BankAccountRef {
	return model.BankAccountRef{BankCode: b.BankCode, AccountNo: b.AccountNo}
}

// OpenBankingTransferRequest is the JSON body for an open-banking transfer.
type OpenBankingTransferRequest struct {
	From          BankAccountRequest `json:"from"`
	To            BankAccountRequest `json:"to"`
	Amount        int64              `json:"amount" validate:"gt=0"`
	DepositorName string             `json:"depositorName" validate:"required"`
	Memo          string             `json:"memo" validate:"required"`
}

func (o OpenBankingTransferRequest) toModel() model.OpenBankingTransferRequest {
	return model.OpenBankingTransferRequest{
		From:          o.From.toModel(),
		To:            o.To.toModel(),
		Amount:        o.Amount,
		DepositorName: o.DepositorName,
		Memo:          o.Memo,
	}
}

// newValidator returns a validator that reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return application.InvalidRequest("Missing request body")
		}
		return application.InvalidRequest("Invalid JSON body")
	}
	return nil
}

// decodeAndValidate decodes the body into dst and checks its tags.
func (h *Handler) decodeAndValidate(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return h.check(dst)
}

// decodeProcessTransfer decodes a transfer confirmation. Any defect inside
// tx is reported as one message.
func (h *Handler) decodeProcessTransfer(r *http.Request, req *ProcessTransferRequest) error {
	if err := decodeJSON(r, req); err != nil {
		return err
	}
	if req.Tx != nil && h.validate.Struct(req.Tx) != nil {
		return application.InvalidRequest("Invalid 'tx' in request body")
	}
	return h.check(req)
}

// check validates dst and turns the first violation into a request error.
func (h *Handler) check(dst any) error {
	err := h.validate.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return application.InvalidRequest("Invalid request")
	}
	return application.InvalidRequest("%s", violationMessage(verrs[0]))
}

func violationMessage(fe validator.FieldError) string {
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Missing %s", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("Invalid %s", field)
	}
}

// fieldPath drops the root struct name from a validator namespace such as
// "OpenBankingTransferRequest.from.bankCode".
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}
