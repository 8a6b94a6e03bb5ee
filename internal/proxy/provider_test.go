package proxy

import (
	"context"
	"testing"

	"github.com/klingon-tech/wallet-netctl/internal/clientfactory"
)

type stubProvider struct {
	name string
	err  error
}

func (s *stubProvider) Request(_ context.Context, _ string, _, result any) error {
	if s.err != nil {
		return s.err
	}
	if p, ok := result.(*string); ok {
		*p = s.name
	}
	return nil
}

func TestProviderProxyForwardsToCurrentTarget(t *testing.T) {
	a := &stubProvider{name: "a"}
	p := NewProvider(a)

	var got string
	if err := p.Request(context.Background(), "m", nil, &got); err != nil {
		t.Fatal(err)
	}
	if got != "a" {
		t.Fatalf("got %q, want a", got)
	}
}

func TestProviderProxySetTargetRetargetsSubsequentCalls(t *testing.T) {
	a := &stubProvider{name: "a"}
	b := &stubProvider{name: "b"}
	p := NewProvider(a)

	p.SetTarget(b)

	var got string
	if err := p.Request(context.Background(), "m", nil, &got); err != nil {
		t.Fatal(err)
	}
	if got != "b" {
		t.Fatalf("got %q after SetTarget, want b (proxy must dispatch against the current target)", got)
	}
}

func TestProviderProxyNoTargetErrors(t *testing.T) {
	p := NewProvider(nil)
	var got string
	if err := p.Request(context.Background(), "m", nil, &got); err == nil {
		t.Fatal("expected error with no target installed")
	}
}

var _ clientfactory.Provider = (*stubProvider)(nil)
