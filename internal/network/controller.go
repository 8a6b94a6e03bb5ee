package network

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/klingon-tech/wallet-netctl/internal/clientfactory"
	"github.com/klingon-tech/wallet-netctl/internal/eventbus"
	"github.com/klingon-tech/wallet-netctl/internal/log"
	"github.com/klingon-tech/wallet-netctl/internal/proxy"
	"github.com/klingon-tech/wallet-netctl/internal/store"
)

// BuildMode selects the constructor's default network: mainnet in
// production, goerli in debug builds, localhost for integration tests.
type BuildMode int

const (
	BuildModeProduction BuildMode = iota
	BuildModeDebug
	BuildModeIntegrationTest
)

// TrackEventPayload is the shape handed to the caller-supplied
// trackEvent sink on first-time custom network insertion.
type TrackEventPayload struct {
	Event       string
	Category    string
	ReferrerURL string
	Properties  map[string]any
}

// PersistedState is the composite record the embedding application
// layer reads and writes whole.
type PersistedState struct {
	Provider              ProviderConfiguration
	PreviousProvider      ProviderConfiguration
	NetworkID             *string
	NetworkStatus         NetworkStatus
	NetworkDetails        NetworkDetails
	NetworkConfigurations map[uuid.UUID]NetworkConfiguration
}

// Options configures a new Controller.
type Options struct {
	Messenger  *eventbus.Bus
	State      *PersistedState // nil restores from defaults
	APIKey     string
	TrackEvent func(TrackEventPayload)
	BuildMode  BuildMode
}

// Controller is the Network Controller: it owns the provider
// configuration stores, the live provider/blockTracker pair and their
// swappable proxies, the custom-network registry, and the probe state
// machine (lookupNetwork).
//
// A Controller is not safe to call concurrently from multiple
// goroutines for its mutating methods (SetActiveNetwork,
// SetProviderType, ResetConnection, RollbackToPreviousProvider,
// UpsertNetworkConfiguration) — it is single-threaded cooperative, so
// callers serialize access the way a real wallet backend serializes
// behind one event loop. The one exception is
// lookupNetwork's self-contained staleness check, which tolerates a
// switch starting while an older probe is still in flight.
type Controller struct {
	messenger  *eventbus.Bus
	apiKey     string
	trackEvent func(TrackEventPayload)

	providerStore         *store.Store[ProviderConfiguration]
	previousProviderStore *store.Store[ProviderConfiguration]
	networkIDStore        *store.Store[*string]
	networkStatusStore    *store.Store[NetworkStatus]
	networkDetailsStore   *store.Store[NetworkDetails]
	configurationsStore   *store.Store[map[uuid.UUID]NetworkConfiguration]
	registry              *NetworkConfigurations
	composed              *store.ComposedStore

	mu                sync.Mutex
	providerProxy     *proxy.Provider
	blockTrackerProxy *proxy.BlockTracker
	initialized       bool
}

// NewController constructs a Controller. No network activity occurs
// until InitializeProvider is called.
func NewController(opts Options) (*Controller, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrEmptyAPIKey
	}
	if opts.Messenger == nil {
		return nil, fmt.Errorf("network: messenger is required")
	}

	registry := NewNetworkConfigurations()

	var initial PersistedState
	if opts.State != nil {
		initial = *opts.State
		if initial.NetworkConfigurations != nil {
			registry.Replace(initial.NetworkConfigurations)
		}
		if initial.NetworkDetails.EIPS == nil {
			initial.NetworkDetails = defaultNetworkDetails()
		}
	} else {
		def := defaultProviderConfiguration(opts.BuildMode)
		initial = PersistedState{
			Provider:         def,
			PreviousProvider: def,
			NetworkID:        nil,
			NetworkStatus:    StatusUnknown,
			NetworkDetails:   defaultNetworkDetails(),
		}
	}

	c := &Controller{
		messenger:  opts.Messenger,
		apiKey:     opts.APIKey,
		trackEvent: opts.TrackEvent,
		registry:   registry,
	}
	c.providerStore = store.New(initial.Provider, ProviderConfiguration.Equal)
	c.previousProviderStore = store.New(initial.PreviousProvider, ProviderConfiguration.Equal)
	c.networkIDStore = store.New(initial.NetworkID, equalStringPtr)
	c.networkStatusStore = store.New(initial.NetworkStatus, func(a, b NetworkStatus) bool { return a == b })
	c.networkDetailsStore = store.New(initial.NetworkDetails, networkDetailsEqual)
	c.configurationsStore = store.New(registry.Snapshot(), networkConfigurationsEqual)

	c.composed = store.NewComposedStore(
		store.Named("provider", c.providerStore),
		store.Named("previousProvider", c.previousProviderStore),
		store.Named("networkId", c.networkIDStore),
		store.Named("networkStatus", c.networkStatusStore),
		store.Named("networkDetails", c.networkDetailsStore),
		store.Named("networkConfigurations", c.configurationsStore),
	)

	return c, nil
}

func defaultProviderConfiguration(mode BuildMode) ProviderConfiguration {
	if mode == BuildModeIntegrationTest {
		return ProviderConfiguration{
			Type:    ProviderType{Kind: KindRPC},
			ChainID: "0x539",
			RPCURL:  "http://localhost:8545",
			Ticker:  "ETH",
		}
	}

	shortName := Mainnet
	if mode == BuildModeDebug {
		shortName = Goerli
	}
	def := BuiltInNetworks[shortName]
	return ProviderConfiguration{
		Type:     ProviderType{Kind: KindBuiltIn, ShortName: shortName},
		ChainID:  def.ChainID,
		Ticker:   def.Ticker,
		RPCPrefs: RPCPrefs{BlockExplorerURL: def.BlockExplorerURL},
	}
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func networkConfigurationsEqual(a, b map[uuid.UUID]NetworkConfiguration) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || av != bv {
			return false
		}
	}
	return true
}

// ComposedState returns the whole persisted composite record, suitable
// for the embedding application's persistence layer.
func (c *Controller) ComposedState() PersistedState {
	return PersistedState{
		Provider:              c.providerStore.GetState(),
		PreviousProvider:      c.previousProviderStore.GetState(),
		NetworkID:             c.networkIDStore.GetState(),
		NetworkStatus:         c.networkStatusStore.GetState(),
		NetworkDetails:        c.networkDetailsStore.GetState(),
		NetworkConfigurations: c.registry.Snapshot(),
	}
}

// SubscribeComposedState registers fn to run whenever any child store
// changes, exposing the composed store for the persistence layer to hang
// a save-on-change subscriber from.
func (c *Controller) SubscribeComposedState(fn func(PersistedState)) store.Unsubscribe {
	return c.composed.Subscribe(func(map[string]any) {
		fn(c.ComposedState())
	})
}

func (c *Controller) buildClient(pc ProviderConfiguration) (*clientfactory.Client, error) {
	var spec clientfactory.ClientSpec
	switch pc.Type.Kind {
	case KindBuiltIn:
		spec.BuiltIn = &clientfactory.BuiltInSpec{Network: string(pc.Type.ShortName), APIKey: c.apiKey}
	case KindRPC:
		spec.Custom = &clientfactory.CustomSpec{RPCURL: pc.RPCURL, ChainID: string(pc.ChainID)}
	default:
		return nil, fmt.Errorf("network: unknown provider kind")
	}
	return clientfactory.CreateNetworkClient(spec)
}

// InitializeProvider reads the current provider configuration,
// constructs the provider/blockTracker pair via the factory, installs
// the two proxies (creating them on first call, retargeting
// thereafter), and runs lookupNetwork. Idempotent.
func (c *Controller) InitializeProvider() error {
	pc := c.providerStore.GetState()
	client, err := c.buildClient(pc)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.providerProxy == nil {
		c.providerProxy = proxy.NewProvider(client.Provider)
		c.blockTrackerProxy = proxy.NewBlockTracker(client.BlockTracker, proxy.FilterSkipInternal)
	} else {
		c.providerProxy.SetTarget(client.Provider)
		c.blockTrackerProxy.SetTarget(client.BlockTracker)
	}
	c.blockTrackerProxy.Start()
	c.initialized = true
	c.mu.Unlock()

	c.lookupNetwork()
	return nil
}

// GetProviderAndBlockTracker returns the current proxies, or nil/nil
// before InitializeProvider has ever been called. The identities
// returned here are stable across every subsequent switch.
func (c *Controller) GetProviderAndBlockTracker() (*proxy.Provider, *proxy.BlockTracker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil, nil
	}
	return c.providerProxy, c.blockTrackerProxy
}

type blockHeader struct {
	BaseFeePerGas *string `json:"baseFeePerGas"`
}

// GetEIP1559Compatibility is a memoizing probe. If EIPS[1559] is already
// known, it's returned directly. If there is no provider yet, it
// returns false without mutating state, a quirk kept for compatibility
// with existing callers. Otherwise it fetches the latest block and
// records whether it carries baseFeePerGas.
func (c *Controller) GetEIP1559Compatibility() (bool, error) {
	details := c.networkDetailsStore.GetState()
	if v, ok := details.EIPS[EIP1559Slot]; ok && v != nil {
		return *v, nil
	}

	c.mu.Lock()
	providerProxy := c.providerProxy
	c.mu.Unlock()
	if providerProxy == nil {
		return false, nil
	}

	var block blockHeader
	if err := providerProxy.Request(context.Background(), "eth_getBlockByNumber", []any{"latest", false}, &block); err != nil {
		return false, err
	}

	supports := block.BaseFeePerGas != nil
	c.networkDetailsStore.UpdateState(func(d NetworkDetails) NetworkDetails {
		next := CloneNetworkDetails(d)
		next.EIPS[EIP1559Slot] = boolPtr(supports)
		return next
	})
	return supports, nil
}

func (c *Controller) resetDerivedState() {
	c.networkIDStore.PutState(nil)
	c.networkStatusStore.PutState(StatusUnknown)
	c.networkDetailsStore.PutState(defaultNetworkDetails())
}

// lookupNetwork is the probe state machine: it probes the live network,
// classifies the outcome, and publishes exactly the right status/events,
// aborting cleanly if the network changes while the probe is in flight.
func (c *Controller) lookupNetwork() {
	pc := c.providerStore.GetState()

	c.mu.Lock()
	providerProxy := c.providerProxy
	c.mu.Unlock()

	if providerProxy == nil || pc.ChainID == "" {
		c.resetDerivedState()
		return
	}
	isBuiltIn := pc.Type.Kind == KindBuiltIn

	var networkChanged atomic.Bool
	var unsubscribeOnce sync.Once
	var handle eventbus.Handle
	handle = c.messenger.Subscribe(EventNetworkDidChange, func() {
		networkChanged.Store(true)
		unsubscribeOnce.Do(func() { c.messenger.Unsubscribe(handle) })
	})

	type netVersionResult struct {
		id  string
		err error
	}
	type blockResult struct {
		block blockHeader
		err   error
	}
	netCh := make(chan netVersionResult, 1)
	blockCh := make(chan blockResult, 1)

	go func() {
		var id string
		err := providerProxy.Request(context.Background(), "net_version", []any{}, &id)
		netCh <- netVersionResult{id: id, err: err}
	}()
	go func() {
		var b blockHeader
		err := providerProxy.Request(context.Background(), "eth_getBlockByNumber", []any{"latest", false}, &b)
		blockCh <- blockResult{block: b, err: err}
	}()

	netRes := <-netCh
	blockRes := <-blockCh

	var status NetworkStatus
	var networkID string
	var eip1559 *bool

	switch {
	case netRes.err == nil && blockRes.err == nil && looksNumeric(netRes.id):
		status = StatusAvailable
		networkID = netRes.id
		eip1559 = boolPtr(blockRes.block.BaseFeePerGas != nil)
	case netRes.err != nil:
		status = classifyProbeError(netRes.err)
	case blockRes.err != nil:
		status = classifyProbeError(blockRes.err)
	default:
		status = StatusUnknown
		log.Network.Warn().Str("networkId", netRes.id).Msg("net_version returned a non-numeric id")
	}

	if networkChanged.Load() {
		// A switch happened mid-probe; a fresh lookupNetwork is already
		// running or queued. Drop these results silently.
		return
	}
	unsubscribeOnce.Do(func() { c.messenger.Unsubscribe(handle) })

	c.networkStatusStore.PutState(status)

	if status == StatusAvailable {
		idCopy := networkID
		c.networkIDStore.PutState(&idCopy)
		c.networkDetailsStore.UpdateState(func(d NetworkDetails) NetworkDetails {
			next := CloneNetworkDetails(d)
			next.EIPS[EIP1559Slot] = eip1559
			return next
		})
	} else {
		c.networkIDStore.PutState(nil)
		c.networkDetailsStore.PutState(defaultNetworkDetails())
	}

	switch {
	case isBuiltIn && status == StatusAvailable:
		c.messenger.Publish(EventInfuraIsUnblocked)
	case isBuiltIn && status == StatusBlocked:
		c.messenger.Publish(EventInfuraIsBlocked)
	case !isBuiltIn:
		// Clears a latched "blocked" state left over from a prior
		// built-in connection, unconditionally.
		c.messenger.Publish(EventInfuraIsUnblocked)
	}
}

const (
	rpcInternalErrorCode   = -32603
	countryBlockedSentinel = "countryBlocked"
)

// classifyProbeError maps a probe error to a NetworkStatus. It never
// panics outward: a classification failure is itself classified as
// Unknown, with a warning logged.
func classifyProbeError(err error) (status NetworkStatus) {
	defer func() {
		if r := recover(); r != nil {
			log.Network.Warn().Interface("panic", r).Msg("network probe error classification failed")
			status = StatusUnknown
		}
	}()

	var rpcErr *clientfactory.RPCError
	if !asRPCError(err, &rpcErr) {
		return StatusUnavailable
	}
	if rpcErr.Code == rpcInternalErrorCode {
		return StatusUnknown
	}

	var body map[string]string
	if jsonErr := json.Unmarshal([]byte(rpcErr.Message), &body); jsonErr == nil {
		if body["error"] == countryBlockedSentinel {
			return StatusBlocked
		}
	}
	return StatusUnavailable
}

func asRPCError(err error, target **clientfactory.RPCError) bool {
	rpcErr, ok := err.(*clientfactory.RPCError)
	if !ok {
		return false
	}
	*target = rpcErr
	return true
}

// setProviderConfig snapshots the current provider into
// previousProviderStore, writes pc, then runs the switch sequence.
func (c *Controller) setProviderConfig(pc ProviderConfiguration) error {
	if err := pc.Validate(); err != nil {
		return err
	}
	current := c.providerStore.GetState()
	c.previousProviderStore.PutState(current)
	c.providerStore.PutState(pc)
	c.switchNetwork(pc)
	return nil
}

// switchNetwork publishes NetworkWillChange, resets derived state,
// builds and installs a new provider/blockTracker pair (retargeting the
// existing proxies so long-lived subscribers keep working), publishes
// NetworkDidChange, then fires lookupNetwork without awaiting it.
func (c *Controller) switchNetwork(pc ProviderConfiguration) {
	c.messenger.Publish(EventNetworkWillChange)
	c.resetDerivedState()

	client, err := c.buildClient(pc)
	if err != nil {
		log.Network.Error().Err(err).Msg("failed to build network client during switch")
		c.messenger.Publish(EventNetworkDidChange)
		return
	}

	c.mu.Lock()
	if c.providerProxy == nil {
		c.providerProxy = proxy.NewProvider(client.Provider)
		c.blockTrackerProxy = proxy.NewBlockTracker(client.BlockTracker, proxy.FilterSkipInternal)
	} else {
		c.providerProxy.SetTarget(client.Provider)
		c.blockTrackerProxy.SetTarget(client.BlockTracker)
	}
	c.blockTrackerProxy.Start()
	c.initialized = true
	c.mu.Unlock()

	c.messenger.Publish(EventNetworkDidChange)

	go c.lookupNetwork()
}

// SetActiveNetwork looks up the custom network by id and switches to
// it, returning its rpcUrl for convenience.
func (c *Controller) SetActiveNetwork(id uuid.UUID) (string, error) {
	nc, ok := c.registry.Get(id)
	if !ok {
		return "", ErrCustomNetworkNotFound
	}
	pc := ProviderConfiguration{
		Type:     ProviderType{Kind: KindRPC},
		ChainID:  nc.ChainID,
		RPCURL:   nc.RPCURL,
		Ticker:   nc.Ticker,
		Nickname: nc.Nickname,
		RPCPrefs: nc.RPCPrefs,
	}
	if err := c.setProviderConfig(pc); err != nil {
		return "", err
	}
	return nc.RPCURL, nil
}

// SetProviderType switches to a built-in network by shortname. "rpc" is
// rejected — callers must use SetActiveNetwork for custom networks.
func (c *Controller) SetProviderType(shortname string) error {
	if shortname == "rpc" {
		return ErrRPCViaSetProviderType
	}
	if !IsBuiltInShortName(shortname) {
		return ErrUnknownBuiltInShortName
	}
	def := BuiltInNetworks[BuiltInShortName(shortname)]
	pc := ProviderConfiguration{
		Type:     ProviderType{Kind: KindBuiltIn, ShortName: BuiltInShortName(shortname)},
		ChainID:  def.ChainID,
		Ticker:   def.Ticker,
		RPCPrefs: RPCPrefs{BlockExplorerURL: def.BlockExplorerURL},
	}
	return c.setProviderConfig(pc)
}

// ResetConnection re-applies the current provider configuration,
// forcing a fresh provider/blockTracker pair and a fresh probe even
// though the configuration itself is unchanged.
func (c *Controller) ResetConnection() {
	pc := c.providerStore.GetState()
	c.previousProviderStore.PutState(pc)
	c.providerStore.PutState(pc)
	c.switchNetwork(pc)
}

// RollbackToPreviousProvider writes previousProviderStore into
// providerStore — without snapshotting the current value first, by
// design: rolling back a rollback is not supported — and runs the
// switch sequence.
func (c *Controller) RollbackToPreviousProvider() {
	prev := c.previousProviderStore.GetState()
	c.providerStore.PutState(prev)
	c.switchNetwork(prev)
}

// UpsertNetworkConfigurationInput is the caller-supplied shape for
// UpsertNetworkConfiguration.
type UpsertNetworkConfigurationInput struct {
	RPCURL   string
	ChainID  string
	Ticker   string
	Nickname string
	RPCPrefs RPCPrefs
}

// UpsertOptions carries the analytics/activation parameters required by
// UpsertNetworkConfiguration.
type UpsertOptions struct {
	SetActive bool
	Referrer  string
	Source    string
}

// UpsertNetworkConfiguration validates and inserts or updates a custom
// network, reusing the id of any existing entry whose rpcUrl matches
// case-insensitively (idempotent on rpcUrl). On first-time insertion it
// fires trackEvent. If SetActive, it switches to the network before
// returning.
func (c *Controller) UpsertNetworkConfiguration(input UpsertNetworkConfigurationInput, opts UpsertOptions) (uuid.UUID, error) {
	cid, err := validateNetworkConfiguration(input.ChainID, input.RPCURL, input.Ticker, opts.Referrer, opts.Source)
	if err != nil {
		return uuid.Nil, err
	}

	existing, found := c.registry.FindByURL(input.RPCURL)
	id := uuid.New()
	if found {
		id = existing.ID
	}

	c.registry.Put(NetworkConfiguration{
		ID:       id,
		RPCURL:   input.RPCURL,
		ChainID:  cid,
		Ticker:   input.Ticker,
		Nickname: input.Nickname,
		RPCPrefs: input.RPCPrefs,
	})
	c.configurationsStore.PutState(c.registry.Snapshot())

	if !found && c.trackEvent != nil {
		c.trackEvent(TrackEventPayload{
			Event:       "Custom Network Added",
			Category:    "Network",
			ReferrerURL: opts.Referrer,
			Properties: map[string]any{
				"chain_id": string(cid),
				"symbol":   input.Ticker,
				"source":   opts.Source,
			},
		})
	}

	if opts.SetActive {
		if _, err := c.SetActiveNetwork(id); err != nil {
			return uuid.Nil, err
		}
	}
	return id, nil
}

// RemoveNetworkConfiguration removes a custom network by id. No-op if
// absent. It never switches away from the removed network even if it
// is currently active — callers must coordinate that themselves.
func (c *Controller) RemoveNetworkConfiguration(id uuid.UUID) {
	c.registry.Remove(id)
	c.configurationsStore.PutState(c.registry.Snapshot())
}

// Destroy stops the block tracker's polling goroutine, waiting for it
// to exit. In-flight RPC requests are not aborted.
func (c *Controller) Destroy() error {
	c.mu.Lock()
	tracker := c.blockTrackerProxy
	c.mu.Unlock()
	if tracker != nil {
		tracker.Stop()
	}
	return nil
}
