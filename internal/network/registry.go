package network

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// NetworkConfiguration is a user-defined custom network.
type NetworkConfiguration struct {
	ID       uuid.UUID
	RPCURL   string
	ChainID  ChainID
	Ticker   string
	Nickname string
	RPCPrefs RPCPrefs
}

// NetworkConfigurations is the id -> NetworkConfiguration registry, a
// mutex-guarded map keyed by uuid with case-insensitive rpcUrl
// uniqueness.
type NetworkConfigurations struct {
	mu      sync.RWMutex
	configs map[uuid.UUID]NetworkConfiguration
}

// NewNetworkConfigurations creates an empty registry.
func NewNetworkConfigurations() *NetworkConfigurations {
	return &NetworkConfigurations{configs: make(map[uuid.UUID]NetworkConfiguration)}
}

// Get returns a registered configuration by id.
func (r *NetworkConfigurations) Get(id uuid.UUID) (NetworkConfiguration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nc, ok := r.configs[id]
	return nc, ok
}

// FindByURL returns the configuration whose rpcUrl matches url
// case-insensitively, if any.
func (r *NetworkConfigurations) FindByURL(rpcURL string) (NetworkConfiguration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, nc := range r.configs {
		if strings.EqualFold(nc.RPCURL, rpcURL) {
			return nc, true
		}
	}
	return NetworkConfiguration{}, false
}

// Put inserts or replaces a configuration, keyed by its ID.
func (r *NetworkConfigurations) Put(nc NetworkConfiguration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[nc.ID] = nc
}

// Remove deletes the configuration with the given id. No-op if absent.
// The registry never coordinates an active-network switch on removal —
// callers are responsible for that.
func (r *NetworkConfigurations) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.configs, id)
}

// List returns a snapshot of all registered configurations.
func (r *NetworkConfigurations) List() []NetworkConfiguration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NetworkConfiguration, 0, len(r.configs))
	for _, nc := range r.configs {
		out = append(out, nc)
	}
	return out
}

// Snapshot returns a copy of the id -> configuration map, suitable for
// placing in the persisted composite state.
func (r *NetworkConfigurations) Snapshot() map[uuid.UUID]NetworkConfiguration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]NetworkConfiguration, len(r.configs))
	for k, v := range r.configs {
		out[k] = v
	}
	return out
}

// Replace swaps the registry's contents wholesale, used when restoring
// from persisted state.
func (r *NetworkConfigurations) Replace(configs map[uuid.UUID]NetworkConfiguration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = make(map[uuid.UUID]NetworkConfiguration, len(configs))
	for k, v := range configs {
		r.configs[k] = v
	}
}

// validateNetworkConfiguration checks the upsert invariants: chainId
// must be a valid hex id, rpcUrl must parse as a URL, ticker must be
// non-empty, and referrer/source must both be provided.
func validateNetworkConfiguration(chainID, rpcURL, ticker, referrer, source string) (ChainID, error) {
	cid, err := ParseChainID(chainID)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(rpcURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidRPCURL, rpcURL)
	}
	if strings.TrimSpace(ticker) == "" {
		return "", ErrEmptyTicker
	}
	if referrer == "" || source == "" {
		return "", ErrMissingReferrerOrSource
	}
	return cid, nil
}
