package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

func (h *Handler) SearchEmployees(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	query, validate := queryParam(r)
	serve(h, w, r, rc, application.OpSearchEmployees, validate,
		payloadOf(&query, driven.BankAccount.SearchEmployees), nil)
}

func (h *Handler) SearchBranches(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	query, validate := queryParam(r)
	serve(h, w, r, rc, application.OpSearchBranches, validate,
		payloadOf(&query, driven.BankAccount.SearchBranches), nil)
}

func (h *Handler) CheckAccount(w http.ResponseWriter, r *http.Request, rc *application.RequestContext) {
	var req BankAccountRequest
	var ref model.BankAccountRef
	serve(h, w, r, rc, application.OpCheckAccount,
		func() error {
			if err := h.decodeAndValidate(r, &req); err != nil {
				return err
			}
			ref = req.toModel()
			return nil
		},
		payloadOf(&ref, driven.BankAccount.CheckAccount), nil)
}

// queryParam returns the query parameter and a check that rejects its
// absence. An empty value is a valid search.
func queryParam(r *http.Request) (string, func() error) {
	values := r.URL.Query()
	query := values.Get("query")
	return query, func() error {
		if !values.Has("query") {
			return application.InvalidRequest("Missing query")
		}
		return nil
	}
}
