package botauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// fakeServiceProvider extends fakeProvider with a single known sub-service.
type fakeServiceProvider struct {
	fakeProvider
}

func (p *fakeServiceProvider) NewServiceClient(ctx context.Context, src oauth2.TokenSource, service string) (any, error) {
	if service != "widgets" {
		return nil, &Error{
			Code:     ErrCodeServiceNotSupported,
			Provider: p.name,
			Message:  "unknown service " + service,
		}
	}
	return &fakeServiceClient{src: src}, nil
}

type fakeServiceClient struct {
	src oauth2.TokenSource
}

func TestService_GetToken(t *testing.T) {
	store := newMemStore(&Credential{
		ID:       "c1",
		OwnerID:  "u1",
		Provider: "fake",
		Payload:  map[string]any{KeyAccessToken: "A"},
	})
	provider := &fakeProvider{name: "fake"}
	svc := NewService(store, testRegistry(provider))

	token, err := svc.GetToken(context.Background(), CredentialRef{OwnerID: "u1", Provider: "fake"})
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if token != "A" {
		t.Errorf("GetToken() = %q, want A", token)
	}
}

func TestService_GetTokenEmptyAccessToken(t *testing.T) {
	store := newMemStore(&Credential{
		ID:       "c1",
		OwnerID:  "u1",
		Provider: "fake",
		Payload:  map[string]any{KeyScope: "S"},
	})
	svc := NewService(store, testRegistry(&fakeProvider{name: "fake"}))

	_, err := svc.GetToken(context.Background(), CredentialRef{OwnerID: "u1", Provider: "fake"})
	if !HasCode(err, ErrCodeTokenError) {
		t.Errorf("GetToken() error = %v, want TOKEN_ERROR", err)
	}
}

func TestService_CreateClient(t *testing.T) {
	store := newMemStore(&Credential{
		ID:       "c1",
		OwnerID:  "u1",
		Provider: "fake",
		Payload:  map[string]any{KeyAccessToken: "A"},
	})
	provider := &fakeProvider{name: "fake"}
	svc := NewService(store, testRegistry(provider))

	client, err := svc.CreateClient(context.Background(), CredentialRef{OwnerID: "u1", Provider: "fake"})
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}
	fc, ok := client.(*fakeClient)
	if !ok {
		t.Fatalf("CreateClient() = %T, want *fakeClient", client)
	}
	if fc.token != "A" {
		t.Errorf("client token = %q, want A", fc.token)
	}
}

func TestService_CreateClientUnknownProvider(t *testing.T) {
	svc := NewService(newMemStore(), NewRegistry())

	_, err := svc.CreateClient(context.Background(), CredentialRef{OwnerID: "u1", Provider: "ghost"})
	if !HasCode(err, ErrCodeProviderNotSupported) {
		t.Errorf("CreateClient() error = %v, want PROVIDER_NOT_SUPPORTED", err)
	}
}

func TestService_CreateServiceClient(t *testing.T) {
	store := newMemStore(&Credential{
		ID:       "c1",
		OwnerID:  "u1",
		Provider: "fake",
		Payload:  map[string]any{KeyAccessToken: "A"},
	})
	provider := &fakeServiceProvider{fakeProvider{name: "fake"}}
	svc := NewService(store, testRegistry(provider))
	ref := CredentialRef{OwnerID: "u1", Provider: "fake"}

	client, err := svc.CreateServiceClient(context.Background(), ref, "widgets")
	if err != nil {
		t.Fatalf("CreateServiceClient() error = %v", err)
	}
	sc, ok := client.(*fakeServiceClient)
	if !ok {
		t.Fatalf("CreateServiceClient() = %T, want *fakeServiceClient", client)
	}

	// Construction is lazy: no resolution has happened yet.
	if store.getCalls != 0 {
		t.Errorf("store reads = %d before first use, want 0", store.getCalls)
	}
	tok, err := sc.src.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "A" {
		t.Errorf("Token().AccessToken = %q, want A", tok.AccessToken)
	}
}

func TestService_CreateServiceClientUnsupported(t *testing.T) {
	store := newMemStore()
	ref := CredentialRef{OwnerID: "u1", Provider: "fake", BotID: "b1"}

	t.Run("provider without sub-services", func(t *testing.T) {
		svc := NewService(store, testRegistry(&fakeProvider{name: "fake"}))
		_, err := svc.CreateServiceClient(context.Background(), ref, "widgets")
		if !HasCode(err, ErrCodeServiceNotSupported) {
			t.Fatalf("CreateServiceClient() error = %v, want SERVICE_NOT_SUPPORTED", err)
		}
		var aerr *Error
		if !errors.As(err, &aerr) || aerr.Provider != "fake" {
			t.Errorf("error should name the provider, got %v", err)
		}
	})

	t.Run("unknown service name", func(t *testing.T) {
		svc := NewService(store, testRegistry(&fakeServiceProvider{fakeProvider{name: "fake"}}))
		_, err := svc.CreateServiceClient(context.Background(), ref, "nope")
		if !HasCode(err, ErrCodeServiceNotSupported) {
			t.Errorf("CreateServiceClient() error = %v, want SERVICE_NOT_SUPPORTED", err)
		}
	})
}

func TestService_TokenSource(t *testing.T) {
	now := time.Now()
	store := newMemStore(&Credential{
		ID:       "c1",
		OwnerID:  "u1",
		Provider: "fake",
		Payload: map[string]any{
			KeyAccessToken: "A",
			KeyExpiresAt:   now.Add(time.Hour).Format(time.RFC3339),
		},
	})
	svc := NewService(store, testRegistry(&fakeProvider{name: "fake"}))

	src := svc.TokenSource(context.Background(), CredentialRef{OwnerID: "u1", Provider: "fake"})
	if store.getCalls != 0 {
		t.Fatal("TokenSource must not touch the store before Token is called")
	}

	tok, err := src.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "A" {
		t.Errorf("AccessToken = %q, want A", tok.AccessToken)
	}
	if tok.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", tok.TokenType)
	}
	if tok.Expiry.IsZero() {
		t.Error("Expiry should carry the stored expiry")
	}
}
