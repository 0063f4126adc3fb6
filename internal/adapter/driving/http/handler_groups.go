package httphandler

import (
	"context"
	"net/http"

	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

func (h *Handler) LookupGroups(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	serve(h, w, r, rc, application.OpLookupGroups, nil, noArgs(driven.BankAccount.LookupGroups), nil)
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req GroupRequest
	serve(h, w, r, rc, application.OpCreateGroup,
		func() error { return h.decodeAndValidate(r, &req) },
		func(ctx context.Context, account driven.BankAccount) (model.Payload, error) {
			return account.CreateGroup(ctx, model.GroupRequest{Name: req.Name, AccountNo: req.AccountNo})
		},
		nil,
	)
}

func (h *Handler) CreateInvitation(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req SequenceRequest
	serve(h, w, r, rc, application.OpCreateInvitation,
		func() error { return h.decodeAndValidate(r, &req) },
		func(ctx context.Context, account driven.BankAccount) (model.Invitation, error) {
			return account.CreateInvitation(ctx, req.EncryptedSequenceNo)
		},
		nil,
	)
}

func (h *Handler) FetchInvitation(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req InvitationDetailsRequest
	serve(h, w, r, rc, application.OpFetchInvitation,
		func() error { return h.decodeAndValidate(r, &req) },
		func(ctx context.Context, account driven.BankAccount) (model.Payload, error) {
			return account.FetchInvitation(ctx, model.InvitationRef{
				EncryptedRequestDate: req.EncryptedRequestDate,
				EncryptedSequenceNo:  req.EncryptedSequenceNo,
			})
		},
		nil,
	)
}

func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req SequenceRequest
	serve(h, w, r, rc, application.OpAcceptInvitation,
		func() error { return h.decodeAndValidate(r, &req) },
		func(ctx context.Context, account driven.BankAccount) (struct{}, error) {
			return struct{}{}, account.AcceptInvitation(ctx, req.EncryptedSequenceNo)
		},
		renderSuccess,
	)
}

func (h *Handler) ApproveJoinRequest(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req ApproveJoinRequest
	serve(h, w, r, rc, application.OpApproveJoinRequest,
		func() error { return h.decodeAndValidate(r, &req) },
		func(ctx context.Context, account driven.BankAccount) (struct{}, error) {
			return struct{}{}, account.ApproveJoinRequest(ctx, req.EncryptedSequenceNo, req.TargetCustomerNo)
		},
		renderSuccess,
	)
}
