package grpc

import (
	"context"
	"testing"

	"github.com/relaybot/botauth"
)

type staticStore struct {
	cred *botauth.Credential
}

func (s *staticStore) Get(ctx context.Context, ref botauth.CredentialRef) (*botauth.Credential, error) {
	if s.cred == nil {
		return nil, &botauth.Error{Code: botauth.ErrCodeCredentialNotFound, Provider: ref.Provider, Message: "no credential"}
	}
	return s.cred, nil
}

func (s *staticStore) Update(ctx context.Context, ref botauth.CredentialRef, payload map[string]any) error {
	return nil
}

func (s *staticStore) Create(ctx context.Context, cred *botauth.Credential) (*botauth.Credential, error) {
	return cred, nil
}

func (s *staticStore) Delete(ctx context.Context, ref botauth.CredentialRef) error {
	return nil
}

func newTestService(cred *botauth.Credential) *botauth.Service {
	return botauth.NewService(&staticStore{cred: cred}, botauth.NewRegistry())
}

func TestTokenCredentialsMetadata(t *testing.T) {
	svc := newTestService(&botauth.Credential{
		ID:       "c1",
		OwnerID:  "u1",
		Provider: "slack",
		Payload:  map[string]any{botauth.KeyAccessToken: "xoxb-token"},
	})
	creds := NewTokenCredentials(svc, botauth.CredentialRef{OwnerID: "u1", Provider: "slack"})

	md, err := creds.GetRequestMetadata(context.Background())
	if err != nil {
		t.Fatalf("GetRequestMetadata() error = %v", err)
	}
	if got := md["authorization"]; got != "Bearer xoxb-token" {
		t.Errorf("authorization = %q, want Bearer xoxb-token", got)
	}
}

func TestTokenCredentialsMissingCredential(t *testing.T) {
	svc := newTestService(nil)
	creds := NewTokenCredentials(svc, botauth.CredentialRef{OwnerID: "u1", Provider: "slack"})

	_, err := creds.GetRequestMetadata(context.Background())
	if !botauth.IsNotFound(err) {
		t.Errorf("GetRequestMetadata() error = %v, want CREDENTIAL_NOT_FOUND", err)
	}
}

func TestTokenCredentialsTransportSecurity(t *testing.T) {
	svc := newTestService(nil)
	creds := NewTokenCredentials(svc, botauth.CredentialRef{OwnerID: "u1", Provider: "slack"})

	if !creds.RequireTransportSecurity() {
		t.Error("transport security should be required by default")
	}
	creds.AllowInsecure = true
	if creds.RequireTransportSecurity() {
		t.Error("AllowInsecure should disable the transport security requirement")
	}
}
