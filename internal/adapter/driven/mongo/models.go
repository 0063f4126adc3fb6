package mongo

import (
	"maps"
	"slices"
	"time"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
)

type apiKeyModel struct {
	ID          string            `bson:"_id"`
	Key         string            `bson:"key"`
	Secret      string            `bson:"secret"`
	Credits     creditsModel      `bson:"credits"`
	CustomerIDs []string          `bson:"customer_ids"`
	Credentials []credentialModel `bson:"credentials"`
	Expires     time.Time         `bson:"expires"`
	Plan        int               `bson:"plan"`
	CreatedAt   time.Time         `bson:"created_at"`
	UpdatedAt   time.Time         `bson:"updated_at"`
}

type creditsModel struct {
	Remaining int64 `bson:"remaining"`
	Renewal   int64 `bson:"renewal"`
}

type credentialModel struct {
	AccountID string            `bson:"accountId"`
	Auth      map[string]string `bson:"auth,omitempty"`
}

func toAPIKeyModel(k *model.APIKey) *apiKeyModel {
	m := &apiKeyModel{
		ID:          k.UUID,
		Key:         k.Key,
		Secret:      k.Secret,
		Credits:     creditsModel{Remaining: k.Balance.Remaining, Renewal: k.Balance.Renewal},
		CustomerIDs: slices.Clone(k.CustomerRefs),
		Credentials: make([]credentialModel, 0, len(k.Credentials)),
		Expires:     k.ExpiresAt.UTC(),
		Plan:        int(k.Plan),
		CreatedAt:   k.CreatedAt.UTC(),
		UpdatedAt:   k.UpdatedAt.UTC(),
	}
	if m.CustomerIDs == nil {
		m.CustomerIDs = []string{}
	}
	for _, c := range k.Credentials {
		m.Credentials = append(m.Credentials, toCredentialModel(c))
	}
	return m
}

func toCredentialModel(c model.LinkedAccount) credentialModel {
	return credentialModel{AccountID: c.AccountID, Auth: maps.Clone(c.Auth)}
}

func fromAPIKeyModel(m *apiKeyModel) *model.APIKey {
	k := &model.APIKey{
		UUID:         m.ID,
		Key:          m.Key,
		Secret:       m.Secret,
		Balance:      model.Balance{Remaining: m.Credits.Remaining, Renewal: m.Credits.Renewal},
		CustomerRefs: m.CustomerIDs,
		Credentials:  make([]model.LinkedAccount, 0, len(m.Credentials)),
		ExpiresAt:    m.Expires,
		Plan:         model.Plan(m.Plan),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for _, c := range m.Credentials {
		k.Credentials = append(k.Credentials, model.LinkedAccount{AccountID: c.AccountID, Auth: c.Auth})
	}
	return k
}
