// Package stores provides a filesystem-backed credential store, one JSON file
// per credential under <root>/credentials/. Suited for single-node
// deployments and tests; SQL and Datastore backends live in the gorm and gae
// sub-packages.
package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	ba "github.com/relaybot/botauth"
)

// FSCredentialStore stores credentials as JSON files.
type FSCredentialStore struct {
	StoragePath string
}

// NewFSCredentialStore creates a store rooted at storagePath.
func NewFSCredentialStore(storagePath string) *FSCredentialStore {
	return &FSCredentialStore{StoragePath: storagePath}
}

func (s *FSCredentialStore) credentialPath(id string) string {
	return filepath.Join(s.StoragePath, "credentials", id+".json")
}

func (s *FSCredentialStore) Get(ctx context.Context, ref ba.CredentialRef) (*ba.Credential, error) {
	if ref.CredentialID != "" {
		cred, err := s.readCredential(ref.CredentialID)
		if err != nil {
			return nil, err
		}
		if cred == nil {
			return nil, notFound(ref)
		}
		return cred, nil
	}

	matches, err := s.matchCredentials(ref)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, notFound(ref)
	}

	// Most recently updated wins.
	latest := matches[0]
	for _, cred := range matches[1:] {
		if cred.UpdatedAt.After(latest.UpdatedAt) {
			latest = cred
		}
	}
	return latest, nil
}

func (s *FSCredentialStore) Update(ctx context.Context, ref ba.CredentialRef, payload map[string]any) error {
	if ref.CredentialID == "" {
		return ba.NewError(ba.ErrCodeInvalidRef, "update requires a specific credential id")
	}

	cred, err := s.readCredential(ref.CredentialID)
	if err != nil {
		return err
	}
	if cred == nil {
		return notFound(ref)
	}

	cred.Payload = payload
	cred.UpdatedAt = time.Now().UTC()
	return s.writeCredential(cred)
}

func (s *FSCredentialStore) Create(ctx context.Context, cred *ba.Credential) (*ba.Credential, error) {
	stored := *cred
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	if err := s.writeCredential(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *FSCredentialStore) Delete(ctx context.Context, ref ba.CredentialRef) error {
	if ref.CredentialID != "" {
		err := os.Remove(s.credentialPath(ref.CredentialID))
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return err
	}

	matches, err := s.matchCredentials(ref)
	if err != nil {
		return err
	}
	for _, cred := range matches {
		if err := os.Remove(s.credentialPath(cred.ID)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// readCredential returns nil, nil for a missing file so callers can attach
// the ref-specific not-found error.
func (s *FSCredentialStore) readCredential(id string) (*ba.Credential, error) {
	data, err := os.ReadFile(s.credentialPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cred ba.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("corrupt credential file %s: %w", id, err)
	}
	return &cred, nil
}

func (s *FSCredentialStore) writeCredential(cred *ba.Credential) error {
	path := s.credentialPath(cred.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return ba.WrapError(ba.ErrCodeCredentialWrite, "failed to create credentials dir", err)
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return ba.WrapError(ba.ErrCodeCredentialWrite, "failed to encode credential", err)
	}
	if err := writeAtomicFile(path, data); err != nil {
		return ba.WrapError(ba.ErrCodeCredentialWrite, "failed to write credential", err)
	}
	return nil
}

func (s *FSCredentialStore) matchCredentials(ref ba.CredentialRef) ([]*ba.Credential, error) {
	dir := filepath.Join(s.StoragePath, "credentials")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var matches []*ba.Credential
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var cred ba.Credential
		if err := json.Unmarshal(data, &cred); err != nil {
			continue
		}

		if cred.OwnerID != ref.OwnerID || cred.Provider != ref.Provider {
			continue
		}
		if ref.BotID != "" && cred.BotID != ref.BotID {
			continue
		}
		matches = append(matches, &cred)
	}
	return matches, nil
}

func notFound(ref ba.CredentialRef) error {
	return &ba.Error{
		Code:     ba.ErrCodeCredentialNotFound,
		Provider: ref.Provider,
		Message:  fmt.Sprintf("no credential for %s", ref.Key()),
	}
}
