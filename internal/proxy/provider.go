// Package proxy implements swappable façades: stable objects whose
// backing target can be replaced atomically without breaking references
// already held by subscribers.
package proxy

import (
	"context"
	"sync/atomic"

	"github.com/klingon-tech/wallet-netctl/internal/clientfactory"
)

// Provider is a stable clientfactory.Provider whose target can be
// swapped with SetTarget. Any call in flight observes the target that
// was current at the moment the call started; a concurrent SetTarget
// never blocks on it and never mutates a call already dispatched.
type Provider struct {
	target atomic.Pointer[clientfactory.Provider]
}

// NewProvider creates a provider proxy around target. target may be nil,
// in which case Request fails until SetTarget installs one.
func NewProvider(target clientfactory.Provider) *Provider {
	p := &Provider{}
	if target != nil {
		p.target.Store(&target)
	}
	return p
}

// SetTarget atomically retargets the proxy.
func (p *Provider) SetTarget(target clientfactory.Provider) {
	p.target.Store(&target)
}

// Request forwards to whatever target is current at call time.
func (p *Provider) Request(ctx context.Context, method string, params, result any) error {
	t := p.target.Load()
	if t == nil || *t == nil {
		return errNoTarget
	}
	return (*t).Request(ctx, method, params, result)
}

var errNoTarget = providerError("proxy: no target installed")

type providerError string

func (e providerError) Error() string { return string(e) }
