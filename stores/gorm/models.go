//go:build !wasm
// +build !wasm

package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	ba "github.com/relaybot/botauth"
)

// JSONMap is a helper type for storing JSON maps in GORM
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// CredentialModel is the GORM model for provider credentials
type CredentialModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	OwnerID   string    `gorm:"size:64;index:idx_credentials_owner_provider"`
	Provider  string    `gorm:"size:32;index:idx_credentials_owner_provider"`
	BotID     string    `gorm:"size:64;index"`
	Payload   JSONMap   `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index"`
}

func (CredentialModel) TableName() string {
	return "provider_credentials"
}

func (m *CredentialModel) ToCredential() *ba.Credential {
	return &ba.Credential{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Provider:  m.Provider,
		BotID:     m.BotID,
		Payload:   m.Payload,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func CredentialToModel(c *ba.Credential) *CredentialModel {
	return &CredentialModel{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Provider:  c.Provider,
		BotID:     c.BotID,
		Payload:   JSONMap(c.Payload),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
