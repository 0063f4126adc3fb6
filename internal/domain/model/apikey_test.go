package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validKey() *APIKey {
	return &APIKey{
		UUID:    "key_01",
		Key:     "pk_live",
		Secret:  "s3cret",
		Balance: Balance{Remaining: 10, Renewal: 100},
		Credentials: []LinkedAccount{
			{AccountID: "acc-1", Auth: map[string]string{"pin": "1234"}},
			{AccountID: "acc-2"},
		},
		Plan: PlanPro,
	}
}

func TestAPIKey_HasCredits(t *testing.T) {
	k := validKey()

	assert.True(t, k.HasCredits(10))
	assert.True(t, k.HasCredits(0))
	assert.False(t, k.HasCredits(11))
}

func TestAPIKey_Expired(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	k := validKey()

	assert.False(t, k.Expired(now), "zero expiry never expires")
	k.ExpiresAt = now.Add(time.Second)
	assert.False(t, k.Expired(now))
	k.ExpiresAt = now
	assert.True(t, k.Expired(now))
}

func TestAPIKey_Account(t *testing.T) {
	k := validKey()

	acc := k.Account("acc-2")
	require.NotNil(t, acc)
	assert.Equal(t, "acc-2", acc.AccountID)
	assert.Nil(t, k.Account("missing"))
}

func TestAPIKey_Validate(t *testing.T) {
	require.NoError(t, validKey().Validate())

	dup := validKey()
	dup.Credentials = append(dup.Credentials, LinkedAccount{AccountID: "acc-1"})
	assert.ErrorContains(t, dup.Validate(), "duplicate linked account")

	neg := validKey()
	neg.Balance.Remaining = -1
	assert.ErrorContains(t, neg.Validate(), "negative balance")

	plan := validKey()
	plan.Plan = Plan(9)
	assert.ErrorContains(t, plan.Validate(), "unknown plan")

	noSecret := validKey()
	noSecret.Secret = ""
	assert.Error(t, noSecret.Validate())
}

func TestParsePlan(t *testing.T) {
	p, err := ParsePlan("Enterprise")
	require.NoError(t, err)
	assert.Equal(t, PlanEnterprise, p)
	assert.Equal(t, "enterprise", p.String())

	_, err = ParsePlan("gold")
	assert.Error(t, err)
	assert.Equal(t, "plan(7)", Plan(7).String())
}

func TestOpenBankingTransactionQuery_MarshalJSON(t *testing.T) {
	q := OpenBankingTransactionQuery{
		BankAccountRef: BankAccountRef{BankCode: "081", AccountNo: "123"},
		Params: map[string]json.RawMessage{
			"startDate": json.RawMessage(`"20260101"`),
			"bankCode":  json.RawMessage(`"999"`),
		},
	}

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bankCode":"081","accountNo":"123","startDate":"20260101"}`, string(data))
}
