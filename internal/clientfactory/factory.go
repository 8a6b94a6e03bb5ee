package clientfactory

import "fmt"

// ClientSpec selects which variant of provider to build. Exactly one of
// BuiltIn or Custom must be non-nil.
type ClientSpec struct {
	BuiltIn *BuiltInSpec
	Custom  *CustomSpec
}

// BuiltInSpec builds the first-party hosted endpoint, identified by
// network shortname and credentialed with an API key.
type BuiltInSpec struct {
	Network string // built-in shortname, e.g. "mainnet", "goerli"
	APIKey  string
}

// CustomSpec builds the generic HTTP JSON-RPC endpoint for a
// user-defined network.
type CustomSpec struct {
	RPCURL  string
	ChainID string
}

// Client is the pair this factory produces.
type Client struct {
	Provider     Provider
	BlockTracker BlockTracker
}

// CreateNetworkClient builds an independent {provider, blockTracker}
// pair for spec. It is pure: identical inputs always yield an
// independent pair with no shared state.
func CreateNetworkClient(spec ClientSpec) (*Client, error) {
	switch {
	case spec.BuiltIn != nil:
		return createBuiltIn(*spec.BuiltIn)
	case spec.Custom != nil:
		return createCustom(*spec.Custom)
	default:
		return nil, fmt.Errorf("clientfactory: spec must set BuiltIn or Custom")
	}
}

func createBuiltIn(spec BuiltInSpec) (*Client, error) {
	if spec.Network == "" {
		return nil, fmt.Errorf("clientfactory: builtin spec requires a network shortname")
	}
	if spec.APIKey == "" {
		return nil, fmt.Errorf("clientfactory: builtin spec requires an api key")
	}
	endpoint := fmt.Sprintf("https://%s.infura-like.io/v3/%s", spec.Network, spec.APIKey)
	provider := newHTTPProvider(endpoint, map[string]string{"X-Client": "wallet-netctl"}, 0)
	tracker := newPollingBlockTracker(provider, DefaultPollingInterval)
	return &Client{Provider: provider, BlockTracker: tracker}, nil
}

func createCustom(spec CustomSpec) (*Client, error) {
	if spec.RPCURL == "" {
		return nil, fmt.Errorf("clientfactory: custom spec requires an rpc url")
	}
	provider := newHTTPProvider(spec.RPCURL, nil, 0)
	tracker := newPollingBlockTracker(provider, DefaultPollingInterval)
	return &Client{Provider: provider, BlockTracker: tracker}, nil
}
