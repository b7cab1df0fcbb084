package stores

import (
	"context"
	"testing"
	"time"

	ba "github.com/relaybot/botauth"
)

func newTestStore(t *testing.T) *FSCredentialStore {
	t.Helper()
	return NewFSCredentialStore(t.TempDir())
}

func mustCreate(t *testing.T, s *FSCredentialStore, cred *ba.Credential) *ba.Credential {
	t.Helper()
	stored, err := s.Create(context.Background(), cred)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return stored
}

func TestFSStoreCreateAssignsID(t *testing.T) {
	s := newTestStore(t)
	stored := mustCreate(t, s, &ba.Credential{
		OwnerID:  "u1",
		Provider: "google",
		Payload:  map[string]any{ba.KeyAccessToken: "A"},
	})

	if stored.ID == "" {
		t.Fatal("Create() should assign an id")
	}
	if stored.CreatedAt.IsZero() || stored.UpdatedAt.IsZero() {
		t.Error("Create() should stamp timestamps")
	}

	got, err := s.Get(context.Background(), ba.CredentialRef{Provider: "google", CredentialID: stored.ID})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AccessToken() != "A" {
		t.Errorf("AccessToken() = %q, want A", got.AccessToken())
	}
}

func TestFSStoreGetByOwnerPicksMostRecent(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	mustCreate(t, s, &ba.Credential{
		ID: "older", OwnerID: "u1", Provider: "google",
		Payload:   map[string]any{ba.KeyAccessToken: "old"},
		CreatedAt: now.Add(-2 * time.Hour),
	})
	// Later wall-clock write wins on UpdatedAt.
	time.Sleep(10 * time.Millisecond)
	mustCreate(t, s, &ba.Credential{
		ID: "newer", OwnerID: "u1", Provider: "google",
		Payload: map[string]any{ba.KeyAccessToken: "new"},
	})

	got, err := s.Get(context.Background(), ba.CredentialRef{OwnerID: "u1", Provider: "google"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "newer" {
		t.Errorf("Get() picked %q, want the most recently updated credential", got.ID)
	}
}

func TestFSStoreGetScopesByBot(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, &ba.Credential{
		ID: "c-shared", OwnerID: "u1", Provider: "slack",
		Payload: map[string]any{ba.KeyAccessToken: "shared"},
	})
	mustCreate(t, s, &ba.Credential{
		ID: "c-bot", OwnerID: "u1", Provider: "slack", BotID: "b1",
		Payload: map[string]any{ba.KeyAccessToken: "bot"},
	})

	got, err := s.Get(context.Background(), ba.CredentialRef{OwnerID: "u1", Provider: "slack", BotID: "b1"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "c-bot" {
		t.Errorf("Get() = %q, want the bot-scoped credential", got.ID)
	}
}

func TestFSStoreGetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), ba.CredentialRef{OwnerID: "nobody", Provider: "google"})
	if !ba.IsNotFound(err) {
		t.Errorf("Get() error = %v, want CREDENTIAL_NOT_FOUND", err)
	}

	_, err = s.Get(context.Background(), ba.CredentialRef{Provider: "google", CredentialID: "missing"})
	if !ba.IsNotFound(err) {
		t.Errorf("Get() by id error = %v, want CREDENTIAL_NOT_FOUND", err)
	}
}

func TestFSStoreUpdate(t *testing.T) {
	s := newTestStore(t)
	stored := mustCreate(t, s, &ba.Credential{
		OwnerID: "u1", Provider: "google",
		Payload: map[string]any{ba.KeyAccessToken: "A", ba.KeyRefreshToken: "R"},
	})

	payload := map[string]any{ba.KeyAccessToken: "B", ba.KeyRefreshToken: "R"}
	ref := ba.CredentialRef{Provider: "google", CredentialID: stored.ID}
	if err := s.Update(context.Background(), ref, payload); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := s.Get(context.Background(), ref)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AccessToken() != "B" {
		t.Errorf("AccessToken() = %q, want B after update", got.AccessToken())
	}
	if !got.UpdatedAt.After(stored.UpdatedAt) {
		t.Error("Update() should advance UpdatedAt")
	}
}

func TestFSStoreUpdateRequiresID(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, &ba.Credential{OwnerID: "u1", Provider: "google", Payload: map[string]any{}})

	err := s.Update(context.Background(), ba.CredentialRef{OwnerID: "u1", Provider: "google"}, map[string]any{})
	if !ba.HasCode(err, ba.ErrCodeInvalidRef) {
		t.Errorf("Update() without id error = %v, want INVALID_CREDENTIAL_REF", err)
	}
}

func TestFSStoreUpdateMissingCredential(t *testing.T) {
	s := newTestStore(t)

	err := s.Update(context.Background(), ba.CredentialRef{Provider: "google", CredentialID: "gone"}, map[string]any{})
	if !ba.IsNotFound(err) {
		t.Errorf("Update() error = %v, want CREDENTIAL_NOT_FOUND", err)
	}
}

func TestFSStoreDelete(t *testing.T) {
	s := newTestStore(t)
	stored := mustCreate(t, s, &ba.Credential{
		OwnerID: "u1", Provider: "google",
		Payload: map[string]any{ba.KeyAccessToken: "A"},
	})

	ref := ba.CredentialRef{Provider: "google", CredentialID: stored.ID}
	if err := s.Delete(context.Background(), ref); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(context.Background(), ref); !ba.IsNotFound(err) {
		t.Errorf("Get() after delete error = %v, want CREDENTIAL_NOT_FOUND", err)
	}

	// Deleting again is a no-op.
	if err := s.Delete(context.Background(), ref); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestFSStoreDeleteByOwner(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, &ba.Credential{ID: "c1", OwnerID: "u1", Provider: "google", Payload: map[string]any{}})
	mustCreate(t, s, &ba.Credential{ID: "c2", OwnerID: "u1", Provider: "google", Payload: map[string]any{}})
	mustCreate(t, s, &ba.Credential{ID: "c3", OwnerID: "u2", Provider: "google", Payload: map[string]any{}})

	if err := s.Delete(context.Background(), ba.CredentialRef{OwnerID: "u1", Provider: "google"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := s.Get(context.Background(), ba.CredentialRef{OwnerID: "u1", Provider: "google"}); !ba.IsNotFound(err) {
		t.Error("owner u1 credentials should be gone")
	}
	if _, err := s.Get(context.Background(), ba.CredentialRef{OwnerID: "u2", Provider: "google"}); err != nil {
		t.Errorf("owner u2 credential should survive, got %v", err)
	}
}
