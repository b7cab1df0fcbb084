//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	ba "github.com/relaybot/botauth"
)

// AutoMigrate runs database migrations for the botauth tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&CredentialModel{},
	)
}

// CredentialStore implements ba.CredentialStore using GORM
type CredentialStore struct {
	db *gorm.DB
}

func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (s *CredentialStore) Get(ctx context.Context, ref ba.CredentialRef) (*ba.Credential, error) {
	var model CredentialModel

	query := s.db.WithContext(ctx)
	if ref.CredentialID != "" {
		query = query.Where("id = ?", ref.CredentialID)
	} else {
		query = query.Where("owner_id = ? AND provider = ?", ref.OwnerID, ref.Provider)
		if ref.BotID != "" {
			query = query.Where("bot_id = ?", ref.BotID)
		}
		query = query.Order("updated_at DESC")
	}

	if err := query.First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &ba.Error{
				Code:     ba.ErrCodeCredentialNotFound,
				Provider: ref.Provider,
				Message:  fmt.Sprintf("no credential for %s", ref.Key()),
			}
		}
		return nil, err
	}

	return model.ToCredential(), nil
}

func (s *CredentialStore) Update(ctx context.Context, ref ba.CredentialRef, payload map[string]any) error {
	if ref.CredentialID == "" {
		return ba.NewError(ba.ErrCodeInvalidRef, "update requires a specific credential id")
	}

	result := s.db.WithContext(ctx).Model(&CredentialModel{}).
		Where("id = ?", ref.CredentialID).
		Update("payload", JSONMap(payload))
	if result.Error != nil {
		return ba.WrapError(ba.ErrCodeCredentialWrite, "failed to update credential", result.Error)
	}
	if result.RowsAffected == 0 {
		return &ba.Error{
			Code:     ba.ErrCodeCredentialNotFound,
			Provider: ref.Provider,
			Message:  fmt.Sprintf("no credential for %s", ref.Key()),
		}
	}
	return nil
}

func (s *CredentialStore) Create(ctx context.Context, cred *ba.Credential) (*ba.Credential, error) {
	model := CredentialToModel(cred)
	if model.ID == "" {
		model.ID = uuid.NewString()
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, ba.WrapError(ba.ErrCodeCredentialWrite, "failed to create credential", err)
	}
	return model.ToCredential(), nil
}

func (s *CredentialStore) Delete(ctx context.Context, ref ba.CredentialRef) error {
	query := s.db.WithContext(ctx)
	if ref.CredentialID != "" {
		return query.Delete(&CredentialModel{}, "id = ?", ref.CredentialID).Error
	}

	query = query.Where("owner_id = ? AND provider = ?", ref.OwnerID, ref.Provider)
	if ref.BotID != "" {
		query = query.Where("bot_id = ?", ref.BotID)
	}
	return query.Delete(&CredentialModel{}).Error
}
