// Package app composes the client with fx: configuration, storage,
// transport, the conversation view model and the terminal UI.
package app

import (
	"context"
	"os"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raunak7888/hermes-tui/internal/api"
	"github.com/Raunak7888/hermes-tui/internal/bus"
	"github.com/Raunak7888/hermes-tui/internal/config"
	"github.com/Raunak7888/hermes-tui/internal/conversation"
	"github.com/Raunak7888/hermes-tui/internal/delivery"
	"github.com/Raunak7888/hermes-tui/internal/lock"
	"github.com/Raunak7888/hermes-tui/internal/logging"
	"github.com/Raunak7888/hermes-tui/internal/presence"
	"github.com/Raunak7888/hermes-tui/internal/profile"
	"github.com/Raunak7888/hermes-tui/internal/status"
	"github.com/Raunak7888/hermes-tui/internal/store"
	"github.com/Raunak7888/hermes-tui/internal/transport"
	"github.com/Raunak7888/hermes-tui/internal/tui"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	ServerURL   string // optional override of config.toml server_url
}

// tokenSource holds the bearer credential once it is loaded. The REST
// client reads it per request.
type tokenSource struct {
	mu    sync.RWMutex
	value string
}

func (t *tokenSource) Set(v string) {
	t.mu.Lock()
	t.value = v
	t.mu.Unlock()
}

func (t *tokenSource) Get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Module returns the fx module for the client, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("hermes",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideTokenSource,
			provideConn,
			provideClient,
			provideDeliveryManager,
			providePresenceTracker,
			provideViewModel,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName)
}

func provideConfig(p Params, logger *zap.Logger) *config.Config {
	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("config unreadable, using defaults", zap.Error(err))
		}
		cfg = &config.Config{ServerURL: config.DefaultServerURL}
	}
	if p.ServerURL != "" {
		cfg.ServerURL = p.ServerURL
	}
	return cfg
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideTokenSource() *tokenSource {
	return &tokenSource{}
}

func provideConn(logger *zap.Logger) *transport.Conn {
	return transport.New(logger)
}

func provideClient(cfg *config.Config, tok *tokenSource, logger *zap.Logger) (*api.Client, error) {
	return api.NewClient(cfg.ServerURL, tok.Get, logger)
}

func provideDeliveryManager(logger *zap.Logger) *delivery.Manager {
	return delivery.NewManager(logger)
}

func providePresenceTracker(logger *zap.Logger) *presence.Tracker {
	return presence.NewTracker(logger)
}

func provideViewModel(conn *transport.Conn, mgr *delivery.Manager, tracker *presence.Tracker, client *api.Client, b *bus.Bus, logger *zap.Logger) *conversation.ViewModel {
	return conversation.NewViewModel(conn, mgr, tracker, client, b, logger)
}

func provideApp(p Params, vm *conversation.ViewModel, client *api.Client, db *store.DB, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *tui.App {
	return tui.NewApp(vm, client, db, b, machine, p.ProfileName, logger)
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, p Params, cfg *config.Config, ui *tui.App, conn *transport.Conn, vm *conversation.ViewModel, client *api.Client, tok *tokenSource, machine *status.Machine, db *store.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			token, err := profile.LoadCredential(profile.Dir(p.ProfileName))
			if err != nil {
				logger.Warn("credential unreadable", zap.Error(err))
			}

			if token == "" {
				// Without a credential the client stays offline; the
				// stored chat list is still browsable.
				logger.Info("no credential found, staying offline")
			} else {
				tok.Set(token)
				_ = machine.Transition(status.Connecting)
				go connect(cfg.ServerURL, token, conn, vm, client, machine, logger)
			}

			go func() {
				if err := ui.Run(); err != nil {
					logger.Error("ui error", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()

			return nil
		},
		OnStop: func(_ context.Context) error {
			ui.Stop()
			vm.Close()
			conn.Disconnect()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}

// connect brings the live transport up once at startup. There is no retry:
// a failed or dropped connection leaves the client where it landed until
// the user restarts it.
func connect(serverURL, token string, conn *transport.Conn, vm *conversation.ViewModel, client *api.Client, machine *status.Machine, logger *zap.Logger) {
	ctx := context.Background()

	userID, err := client.CurrentUser(ctx)
	if err != nil {
		logger.Error("identity lookup failed", zap.Error(err))
		_ = machine.Transition(status.Errored)
		return
	}
	vm.SetUser(userID)

	endpoint, err := transport.Endpoint(serverURL)
	if err != nil {
		logger.Error("bad server url", zap.Error(err))
		_ = machine.Transition(status.Errored)
		return
	}
	if err := conn.Connect(ctx, endpoint, token); err != nil {
		logger.Error("connect failed", zap.Error(err))
		_ = machine.Transition(status.Errored)
		return
	}

	_ = machine.Transition(status.Online)
	logger.Info("connected", zap.Int64("userId", userID))
}
