package network

import "errors"

// Validation errors surface synchronously from the mutating call that
// triggered them; none of them ever leave state changed.
var (
	ErrInvalidChainID          = errors.New("network: invalid chain id")
	ErrInvalidProviderConfig   = errors.New("network: invalid provider configuration")
	ErrInvalidRPCURL           = errors.New("network: invalid rpc url")
	ErrEmptyTicker             = errors.New("network: ticker must be non-empty")
	ErrMissingReferrerOrSource = errors.New("network: referrer and source are required")
	ErrCustomNetworkNotFound   = errors.New("network: custom network not found")
	ErrUnknownBuiltInShortName = errors.New("network: unknown built-in shortname")
	ErrRPCViaSetProviderType   = errors.New("network: use SetActiveNetwork for rpc networks")
	ErrEmptyAPIKey             = errors.New("network: apiKey must be a non-empty string")
)
