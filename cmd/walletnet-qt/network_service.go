package main

import (
	"github.com/google/uuid"

	"github.com/klingon-tech/wallet-netctl/internal/network"
)

// NetworkService exposes the Network Controller to the desktop frontend.
// It is a thin struct wrapping *App, translating controller calls into
// JSON-friendly return shapes, and carries no policy of its own about
// which network to show by default or when to prompt.
type NetworkService struct {
	app *App
}

// ProviderConfigView is the JSON-friendly shape of a ProviderConfiguration.
type ProviderConfigView struct {
	Type             string `json:"type"`
	ChainID          string `json:"chain_id"`
	RPCURL           string `json:"rpc_url,omitempty"`
	Ticker           string `json:"ticker"`
	Nickname         string `json:"nickname,omitempty"`
	BlockExplorerURL string `json:"block_explorer_url,omitempty"`
}

// NetworkConfigView is the JSON-friendly shape of a NetworkConfiguration.
type NetworkConfigView struct {
	ID               string `json:"id"`
	RPCURL           string `json:"rpc_url"`
	ChainID          string `json:"chain_id"`
	Ticker           string `json:"ticker"`
	Nickname         string `json:"nickname,omitempty"`
	BlockExplorerURL string `json:"block_explorer_url,omitempty"`
}

// NetworkStateView is the JSON-friendly shape of the controller's
// currently observable derived state.
type NetworkStateView struct {
	Provider      ProviderConfigView `json:"provider"`
	NetworkID     string             `json:"network_id,omitempty"`
	NetworkStatus string             `json:"network_status"`
	EIP1559       *bool              `json:"eip1559,omitempty"`
}

func providerConfigView(pc network.ProviderConfiguration) ProviderConfigView {
	return ProviderConfigView{
		Type:             pc.Type.String(),
		ChainID:          string(pc.ChainID),
		RPCURL:           pc.RPCURL,
		Ticker:           pc.Ticker,
		Nickname:         pc.Nickname,
		BlockExplorerURL: pc.RPCPrefs.BlockExplorerURL,
	}
}

func networkConfigView(nc network.NetworkConfiguration) NetworkConfigView {
	return NetworkConfigView{
		ID:               nc.ID.String(),
		RPCURL:           nc.RPCURL,
		ChainID:          string(nc.ChainID),
		Ticker:           nc.Ticker,
		Nickname:         nc.Nickname,
		BlockExplorerURL: nc.RPCPrefs.BlockExplorerURL,
	}
}

// GetNetworkState returns the controller's current composite state for
// display.
func (n *NetworkService) GetNetworkState() NetworkStateView {
	state := n.app.ctrl.ComposedState()
	view := NetworkStateView{
		Provider:      providerConfigView(state.Provider),
		NetworkStatus: state.NetworkStatus.String(),
	}
	if state.NetworkID != nil {
		view.NetworkID = *state.NetworkID
	}
	if v, ok := state.NetworkDetails.EIPS[network.EIP1559Slot]; ok && v != nil {
		view.EIP1559 = v
	}
	return view
}

// ListNetworkConfigurations returns every registered custom network.
func (n *NetworkService) ListNetworkConfigurations() []NetworkConfigView {
	state := n.app.ctrl.ComposedState()
	out := make([]NetworkConfigView, 0, len(state.NetworkConfigurations))
	for _, nc := range state.NetworkConfigurations {
		out = append(out, networkConfigView(nc))
	}
	return out
}

// SetActiveNetwork switches to a registered custom network by id.
func (n *NetworkService) SetActiveNetwork(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	return n.app.ctrl.SetActiveNetwork(parsed)
}

// SetProviderType switches to a built-in network by shortname.
func (n *NetworkService) SetProviderType(shortname string) error {
	return n.app.ctrl.SetProviderType(shortname)
}

// UpsertNetworkConfigurationInput is the frontend-facing shape for
// adding or editing a custom network.
type UpsertNetworkConfigurationInput struct {
	RPCURL           string `json:"rpc_url"`
	ChainID          string `json:"chain_id"`
	Ticker           string `json:"ticker"`
	Nickname         string `json:"nickname,omitempty"`
	BlockExplorerURL string `json:"block_explorer_url,omitempty"`
	SetActive        bool   `json:"set_active"`
}

// UpsertNetworkConfiguration adds or updates a custom network. referrer
// and source are fixed to identify this desktop surface for analytics.
func (n *NetworkService) UpsertNetworkConfiguration(input UpsertNetworkConfigurationInput) (string, error) {
	id, err := n.app.ctrl.UpsertNetworkConfiguration(
		network.UpsertNetworkConfigurationInput{
			RPCURL:   input.RPCURL,
			ChainID:  input.ChainID,
			Ticker:   input.Ticker,
			Nickname: input.Nickname,
			RPCPrefs: network.RPCPrefs{BlockExplorerURL: input.BlockExplorerURL},
		},
		network.UpsertOptions{
			SetActive: input.SetActive,
			Referrer:  "walletnet-qt",
			Source:    "desktop-settings",
		},
	)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// RemoveNetworkConfiguration removes a custom network by id. Does not
// switch away from it if it is currently active.
func (n *NetworkService) RemoveNetworkConfiguration(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	n.app.ctrl.RemoveNetworkConfiguration(parsed)
	return nil
}

// ResetConnection forces a fresh provider/blockTracker pair and probe for
// the currently active network.
func (n *NetworkService) ResetConnection() {
	n.app.ctrl.ResetConnection()
}

// RollbackToPreviousProvider switches back to the previously active
// provider configuration.
func (n *NetworkService) RollbackToPreviousProvider() {
	n.app.ctrl.RollbackToPreviousProvider()
}

// GetEIP1559Compatibility reports whether the active network supports
// EIP-1559 fee semantics, probing if not already known.
func (n *NetworkService) GetEIP1559Compatibility() (bool, error) {
	return n.app.ctrl.GetEIP1559Compatibility()
}
