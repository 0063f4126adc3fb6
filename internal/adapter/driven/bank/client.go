// Package bank implements the BankConnector port against the banking bridge,
// a JSON-over-HTTP service fronting the downstream bank.
package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.BankConnector = (*Connector)(nil)
	_ driven.BankAccount   = (*Session)(nil)
)

// maxResponseBytes caps how much of a bridge response is read.
const maxResponseBytes = 4 << 20

// APIError is a non-2xx answer from the bridge. Its Error text is the
// bridge's own message so callers can surface it verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("bank bridge returned status %d", e.StatusCode)
}

// Connector logs linked accounts into the bridge.
type Connector struct {
	baseURL   *url.URL
	transport http.RoundTripper
	logger    *slog.Logger
}

// NewConnector creates a Connector for the bridge at baseURL using the
// default transport.
func NewConnector(baseURL string, logger *slog.Logger) (*Connector, error) {
	return NewConnectorWithTransport(http.DefaultTransport, baseURL, logger)
}

// NewConnectorWithTransport creates a Connector with a custom base transport.
func NewConnectorWithTransport(transport http.RoundTripper, baseURL string, logger *slog.Logger) (*Connector, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing bank base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("bank base URL %q: scheme must be http or https", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{baseURL: u, transport: transport, logger: logger}, nil
}

type loginRequest struct {
	AccountID string            `json:"accountId"`
	Auth      map[string]string `json:"auth"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login opens a bridge session for account. Each session gets its own HTTP
// cache: the cache key ignores the Authorization header, so sharing one
// would serve one account's responses to another.
func (c *Connector) Login(ctx context.Context, account model.LinkedAccount) (driven.BankAccount, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	cacheTransport.Transport = c.transport

	s := &Session{
		accountID: account.AccountID,
		baseURL:   c.baseURL,
		http:      &http.Client{Transport: cacheTransport},
		logger:    c.logger,
	}

	var resp loginResponse
	err := s.do(ctx, http.MethodPost, "/v1/sessions", nil, loginRequest{
		AccountID: account.AccountID,
		Auth:      account.Auth,
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, fmt.Errorf("bank login for %s: %w", account.AccountID, err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("bank login for %s: bridge returned no session token", account.AccountID)
	}

	s.token = resp.Token
	return s, nil
}

// Session is a logged-in bridge session for one account.
type Session struct {
	accountID string
	baseURL   *url.URL
	http      *http.Client
	token     string
	logger    *slog.Logger
}

type messageBody struct {
	Message string `json:"message"`
}

// do sends one JSON request. A non-nil out receives the response body; a
// *model.Payload receives it verbatim.
func (s *Session) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := s.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var mb messageBody
		if json.Unmarshal(raw, &mb) == nil {
			apiErr.Message = mb.Message
		}
		if s.token != "" && isUnauthorized(apiErr) {
			s.logger.Warn("bridge rejected session token, account must log in again",
				"account_id", s.accountID,
				"path", path,
			)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if p, ok := out.(*model.Payload); ok {
		if len(bytes.TrimSpace(raw)) == 0 {
			*p = model.Payload("null")
			return nil
		}
		if !json.Valid(raw) {
			return fmt.Errorf("%s %s: bridge returned malformed JSON", method, path)
		}
		*p = model.Payload(raw)
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func (s *Session) payload(ctx context.Context, method, path string, query url.Values, body any) (model.Payload, error) {
	var p model.Payload
	if err := s.do(ctx, method, path, query, body, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// isUnauthorized reports whether err is a bridge rejection of the caller's
// credentials or session token.
func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
