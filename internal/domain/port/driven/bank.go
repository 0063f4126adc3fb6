package driven

import (
	"context"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
)

// BankConnector performs the downstream login handshake for a linked account
// and returns a live capability bound to that session.
type BankConnector interface {
	Login(ctx context.Context, account model.LinkedAccount) (BankAccount, error)
}

// BankAccount is the downstream banking capability for one logged-in account.
// Every method is a single downstream call; any returned error means the
// downstream system rejected or failed the call.
type BankAccount interface {
	// Accounts

	FetchAccounts(ctx context.Context) (model.Payload, error)
	FetchTransactions(ctx context.Context, q model.TransactionQuery) (model.Payload, error)
	InitiateTransfer(ctx context.Context, req model.TransferRequest) (model.Payload, error)
	// ProcessTransfer confirms a pending transfer and returns the downstream transaction id.
	ProcessTransfer(ctx context.Context, tx model.PendingTransfer, passcode string) (string, error)

	// Customer

	FetchCoupons(ctx context.Context) (model.Payload, error)
	FetchProfile(ctx context.Context) (model.Payload, error)
	AuthenticateQR(ctx context.Context, code string) error

	// Groups

	LookupGroups(ctx context.Context) (model.Payload, error)
	CreateGroup(ctx context.Context, req model.GroupRequest) (model.Payload, error)
	CreateInvitation(ctx context.Context, encryptedSequenceNo string) (model.Invitation, error)
	FetchInvitation(ctx context.Context, ref model.InvitationRef) (model.Payload, error)
	AcceptInvitation(ctx context.Context, encryptedSequenceNo string) error
	ApproveJoinRequest(ctx context.Context, encryptedSequenceNo, targetCustomerNo string) error

	// Open banking

	FetchOpenBankingInfo(ctx context.Context) (model.Payload, error)
	FetchOpenBankingCap(ctx context.Context) (model.Payload, error)
	InitiateOpenBankingTransfer(ctx context.Context, req model.OpenBankingTransferRequest) (model.Payload, error)
	FinalizeOpenBankingTransfer(ctx context.Context) (model.Payload, error)
	DeleteOpenBankingAccount(ctx context.Context, ref model.BankAccountRef) error
	FetchOpenBankingAccount(ctx context.Context, ref model.BankAccountRef) (model.Payload, error)
	FetchOpenBankingTransactions(ctx context.Context, q model.OpenBankingTransactionQuery) (model.Payload, error)

	// Directory

	SearchEmployees(ctx context.Context, query string) (model.Payload, error)
	SearchBranches(ctx context.Context, query string) (model.Payload, error)
	CheckAccount(ctx context.Context, ref model.BankAccountRef) (model.Payload, error)
}
