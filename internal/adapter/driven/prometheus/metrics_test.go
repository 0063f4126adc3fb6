package prometheus_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	promadapter "github.com/ericfisherdev/creditgate/internal/adapter/driven/prometheus"
)

func TestMetrics_DebitedAndRejected(t *testing.T) {
	m := promadapter.New(nil)

	m.Debited("accounts.list", 1)
	m.Debited("accounts.list", 2)
	m.Rejected("accounts.list", "payment_required")

	expected := `
# HELP creditgate_credits_debited_total Credits charged for successful operations.
# TYPE creditgate_credits_debited_total counter
creditgate_credits_debited_total{operation="accounts.list"} 3
# HELP creditgate_operation_rejections_total Metered operations that failed, by error kind.
# TYPE creditgate_operation_rejections_total counter
creditgate_operation_rejections_total{kind="payment_required",operation="accounts.list"} 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"creditgate_credits_debited_total", "creditgate_operation_rejections_total")
	require.NoError(t, err)
}

func TestMetrics_ActiveSessionsSampledOnScrape(t *testing.T) {
	n := 0
	m := promadapter.New(func() int { return n })

	n = 4
	expected := `
# HELP creditgate_active_sessions Downstream sessions currently held in the session registry.
# TYPE creditgate_active_sessions gauge
creditgate_active_sessions 4
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "creditgate_active_sessions"))
}

func TestMetrics_Handler(t *testing.T) {
	m := promadapter.New(nil)
	m.ObserveHTTP(http.MethodGet, "GET /accounts", http.StatusOK, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `creditgate_http_requests_total{method="GET",route="GET /accounts",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
