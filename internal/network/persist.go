package network

import (
	"encoding/json"
	"fmt"

	"github.com/klingon-tech/wallet-netctl/internal/log"
	"github.com/klingon-tech/wallet-netctl/internal/storage"
)

// persistedStateKey is the single badger key the whole composite record
// is stored under. The Network Controller's state is small and always
// read/written as one document, so it does not need prefix scanning.
var persistedStateKey = []byte("network:state")

// Persister loads and saves a Controller's composite state to a generic
// key-value store rather than any network-specific schema.
type Persister struct {
	db storage.DB
}

// NewPersister wraps db for use by a Controller.
func NewPersister(db storage.DB) *Persister {
	return &Persister{db: db}
}

// Load reads the persisted composite state. If no state has ever been
// saved, it returns (nil, nil) so the caller falls back to
// Options.State == nil defaults.
func (p *Persister) Load() (*PersistedState, error) {
	has, err := p.db.Has(persistedStateKey)
	if err != nil {
		return nil, fmt.Errorf("persist: check state key: %w", err)
	}
	if !has {
		return nil, nil
	}

	raw, err := p.db.Get(persistedStateKey)
	if err != nil {
		return nil, fmt.Errorf("persist: read state key: %w", err)
	}

	var state PersistedState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("persist: decode state: %w", err)
	}
	return &state, nil
}

// Save writes the composite state wholesale, replacing whatever was
// previously stored.
func (p *Persister) Save(state PersistedState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("persist: encode state: %w", err)
	}
	if err := p.db.Put(persistedStateKey, raw); err != nil {
		return fmt.Errorf("persist: write state key: %w", err)
	}
	return nil
}

// Attach subscribes Save to every composite-state change on ctrl. Save
// errors are logged, not returned, since the store's Subscribe callback
// has no error channel.
func (p *Persister) Attach(ctrl *Controller) func() {
	return ctrl.SubscribeComposedState(func(state PersistedState) {
		if err := p.Save(state); err != nil {
			log.Network.Error().Err(err).Msg("failed to persist network controller state")
		}
	})
}
