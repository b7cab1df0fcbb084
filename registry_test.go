package botauth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// stubProvider is a minimal Provider for registry tests.
type stubProvider struct {
	name string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProvider) NewClient(ctx context.Context, cred *Credential) (any, error) {
	return nil, errors.New("not implemented")
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("doesnotexist")
	if err == nil {
		t.Fatal("Resolve(doesnotexist) should fail")
	}
	if !HasCode(err, ErrCodeProviderNotSupported) {
		t.Errorf("error = %v, want code %s", err, ErrCodeProviderNotSupported)
	}

	var tagged *Error
	if !errors.As(err, &tagged) || tagged.Provider != "doesnotexist" {
		t.Errorf("error should carry the offending name, got %v", err)
	}
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Register("google", &stubProvider{name: "first"})
	r.Register("google", &stubProvider{name: "second"})

	p, err := r.Resolve("google")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.Name() != "second" {
		t.Errorf("Resolve() = %s, want the later registration", p.Name())
	}
}

func TestRegistry_LazyLoadsOnce(t *testing.T) {
	r := NewRegistry()
	var loads atomic.Int32
	r.RegisterLazy("google", func() (Provider, error) {
		loads.Add(1)
		return &stubProvider{name: "google"}, nil
	})

	if loads.Load() != 0 {
		t.Fatal("loader should not run at registration")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve("google"); err != nil {
				t.Errorf("Resolve() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Errorf("loader ran %d times, want 1", got)
	}
}

func TestRegistry_LazyLoadFailure(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("missing client secret")
	r.RegisterLazy("highlevel", func() (Provider, error) {
		return nil, boom
	})

	_, err := r.Resolve("highlevel")
	if !HasCode(err, ErrCodeProviderNotSupported) {
		t.Errorf("error = %v, want code %s", err, ErrCodeProviderNotSupported)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error should wrap the loader failure, got %v", err)
	}
}
