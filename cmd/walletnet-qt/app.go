package main

import (
	"context"
	"fmt"

	"github.com/klingon-tech/wallet-netctl/config"
	"github.com/klingon-tech/wallet-netctl/internal/eventbus"
	"github.com/klingon-tech/wallet-netctl/internal/log"
	"github.com/klingon-tech/wallet-netctl/internal/network"
	"github.com/klingon-tech/wallet-netctl/internal/storage"
)

// App owns the desktop process's lifecycle: the eventbus, the badger-backed
// persistence, and the Network Controller itself. Startup/shutdown hooks
// bind to wails. The controller's state persists under DataDir; the
// notifications toggle is held in memory only.
type App struct {
	ctx context.Context
	cfg *config.Config

	messenger *eventbus.Bus
	db        storage.DB
	persister *network.Persister
	ctrl      *network.Controller

	notify bool

	network    *NetworkService
	startupErr error
}

// NewApp constructs the application shell with default settings. No
// network activity or disk I/O happens until startup runs.
func NewApp(cfg *config.Config) *App {
	app := &App{cfg: cfg, notify: true}
	app.network = &NetworkService{app: app}
	return app
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	if err := log.Init(a.cfg.Log.Level, a.cfg.Log.JSON, a.cfg.Log.File); err != nil {
		a.startupErr = fmt.Errorf("init logging: %w", err)
		return
	}

	apiKey, err := resolveAPIKey(a.cfg.APIKey)
	if err != nil {
		a.startupErr = fmt.Errorf("resolve api key: %w", err)
		return
	}

	db, err := storage.NewBadger(a.cfg.StateDB())
	if err != nil {
		a.startupErr = fmt.Errorf("open state db: %w", err)
		return
	}
	a.db = db
	a.persister = network.NewPersister(db)

	state, err := a.persister.Load()
	if err != nil {
		a.startupErr = fmt.Errorf("load persisted state: %w", err)
		return
	}

	a.messenger = eventbus.New()
	ctrl, err := network.NewController(network.Options{
		Messenger:  a.messenger,
		State:      state,
		APIKey:     apiKey,
		TrackEvent: a.trackEvent,
		BuildMode:  buildModeFor(a.cfg.BuildMode),
	})
	if err != nil {
		a.startupErr = fmt.Errorf("construct controller: %w", err)
		return
	}
	a.ctrl = ctrl
	a.persister.Attach(ctrl)

	a.messenger.Subscribe(network.EventInfuraIsBlocked, func() {
		a.sendNotification("Network blocked", "The active network is blocking this connection.")
	})
	a.messenger.Subscribe(network.EventInfuraIsUnblocked, func() {
		a.sendNotification("Network connected", "The active network connection is available.")
	})

	if err := ctrl.InitializeProvider(); err != nil {
		a.startupErr = fmt.Errorf("initialize provider: %w", err)
	}
}

func (a *App) shutdown(_ context.Context) {
	if a.ctrl != nil {
		_ = a.ctrl.Destroy()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) trackEvent(payload network.TrackEventPayload) {
	log.Network.Info().
		Str("event", payload.Event).
		Str("category", payload.Category).
		Interface("properties", payload.Properties).
		Msg("analytics event")
}

// GetNotificationsEnabled returns whether desktop notifications are enabled.
func (a *App) GetNotificationsEnabled() bool {
	return a.notify
}

// SetNotificationsEnabled enables/disables desktop notifications for
// blocked/unblocked transitions.
func (a *App) SetNotificationsEnabled(enabled bool) {
	a.notify = enabled
}

func (a *App) sendNotification(title, body string) {
	if !a.notify {
		return
	}
	sendOSNotification(title, body)
}

// GetStartupError returns the startup error message, or empty if OK.
func (a *App) GetStartupError() string {
	if a.startupErr != nil {
		return a.startupErr.Error()
	}
	return ""
}

func buildModeFor(mode config.BuildMode) network.BuildMode {
	switch mode {
	case config.BuildModeDebug:
		return network.BuildModeDebug
	case config.BuildModeIntegrationTest:
		return network.BuildModeIntegrationTest
	default:
		return network.BuildModeProduction
	}
}
