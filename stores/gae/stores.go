//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	"github.com/google/uuid"

	ba "github.com/relaybot/botauth"
)

// CredentialStore implements ba.CredentialStore using Google Cloud Datastore
type CredentialStore struct {
	client    *datastore.Client
	namespace string
}

// NewCredentialStore creates a new Datastore-backed CredentialStore
func NewCredentialStore(client *datastore.Client, namespace string) *CredentialStore {
	return &CredentialStore{
		client:    client,
		namespace: namespace,
	}
}

func (s *CredentialStore) namespacedKey(name string) *datastore.Key {
	key := datastore.NameKey(KindCredential, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *CredentialStore) notFound(ref ba.CredentialRef) error {
	return &ba.Error{
		Code:     ba.ErrCodeCredentialNotFound,
		Provider: ref.Provider,
		Message:  fmt.Sprintf("no credential for %s", ref.Key()),
	}
}

func (s *CredentialStore) Get(ctx context.Context, ref ba.CredentialRef) (*ba.Credential, error) {
	if ref.CredentialID != "" {
		var entity CredentialEntity
		err := s.client.Get(ctx, s.namespacedKey(ref.CredentialID), &entity)
		if err == datastore.ErrNoSuchEntity {
			return nil, s.notFound(ref)
		}
		if err != nil {
			return nil, err
		}
		entity.Key = s.namespacedKey(ref.CredentialID)
		return entity.ToCredential()
	}

	query := datastore.NewQuery(KindCredential).
		FilterField("owner_id", "=", ref.OwnerID).
		FilterField("provider", "=", ref.Provider)
	if ref.BotID != "" {
		query = query.FilterField("bot_id", "=", ref.BotID)
	}
	query = query.Order("-updated_at").Limit(1)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	it := s.client.Run(ctx, query)
	var entity CredentialEntity
	key, err := it.Next(&entity)
	if err == iterator.Done {
		return nil, s.notFound(ref)
	}
	if err != nil {
		return nil, err
	}

	entity.Key = key
	return entity.ToCredential()
}

func (s *CredentialStore) Update(ctx context.Context, ref ba.CredentialRef, payload map[string]any) error {
	if ref.CredentialID == "" {
		return ba.NewError(ba.ErrCodeInvalidRef, "update requires a specific credential id")
	}

	key := s.namespacedKey(ref.CredentialID)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var entity CredentialEntity
		if err := tx.Get(key, &entity); err != nil {
			if err == datastore.ErrNoSuchEntity {
				return s.notFound(ref)
			}
			return err
		}

		cred, err := entity.ToCredential()
		if err != nil {
			return err
		}
		cred.Payload = payload
		cred.UpdatedAt = time.Now().UTC()

		updated, err := CredentialToEntity(cred, key)
		if err != nil {
			return err
		}
		_, err = tx.Put(key, updated)
		return err
	})

	if err != nil && !ba.IsNotFound(err) {
		return ba.WrapError(ba.ErrCodeCredentialWrite, "failed to update credential", err)
	}
	return err
}

func (s *CredentialStore) Create(ctx context.Context, cred *ba.Credential) (*ba.Credential, error) {
	stored := *cred
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	key := s.namespacedKey(stored.ID)
	entity, err := CredentialToEntity(&stored, key)
	if err != nil {
		return nil, ba.WrapError(ba.ErrCodeCredentialWrite, "failed to encode credential", err)
	}
	if _, err := s.client.Put(ctx, key, entity); err != nil {
		return nil, ba.WrapError(ba.ErrCodeCredentialWrite, "failed to create credential", err)
	}
	return &stored, nil
}

func (s *CredentialStore) Delete(ctx context.Context, ref ba.CredentialRef) error {
	if ref.CredentialID != "" {
		err := s.client.Delete(ctx, s.namespacedKey(ref.CredentialID))
		if err == datastore.ErrNoSuchEntity {
			return nil
		}
		return err
	}

	query := datastore.NewQuery(KindCredential).
		FilterField("owner_id", "=", ref.OwnerID).
		FilterField("provider", "=", ref.Provider).
		KeysOnly()
	if ref.BotID != "" {
		query = query.FilterField("bot_id", "=", ref.BotID)
	}
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	it := s.client.Run(ctx, query)
	for {
		key, err := it.Next(nil)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		if err := s.client.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
