//go:build !wasm
// +build !wasm

package gae

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/datastore"

	ba "github.com/relaybot/botauth"
)

// KindCredential is the Datastore kind for provider credentials
const KindCredential = "ProviderCredential"

// CredentialEntity is the Datastore entity for provider credentials
// Key name: the credential ID
type CredentialEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	OwnerID   string         `datastore:"owner_id"`
	Provider  string         `datastore:"provider"`
	BotID     string         `datastore:"bot_id"`
	Payload   []byte         `datastore:"payload,noindex"` // JSON encoded
	CreatedAt time.Time      `datastore:"created_at"`
	UpdatedAt time.Time      `datastore:"updated_at"`
}

func (e *CredentialEntity) ToCredential() (*ba.Credential, error) {
	var payload map[string]any
	if len(e.Payload) > 0 {
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return nil, err
		}
	}

	cred := &ba.Credential{
		OwnerID:   e.OwnerID,
		Provider:  e.Provider,
		BotID:     e.BotID,
		Payload:   payload,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Key != nil {
		cred.ID = e.Key.Name
	}
	return cred, nil
}

func CredentialToEntity(c *ba.Credential, key *datastore.Key) (*CredentialEntity, error) {
	payload, err := json.Marshal(c.Payload)
	if err != nil {
		return nil, err
	}

	return &CredentialEntity{
		Key:       key,
		OwnerID:   c.OwnerID,
		Provider:  c.Provider,
		BotID:     c.BotID,
		Payload:   payload,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}
