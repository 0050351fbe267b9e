package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tara-vision/codeforge/internal/artifact"
	"github.com/tara-vision/codeforge/internal/config"
	"github.com/tara-vision/codeforge/internal/gateway"
	"github.com/tara-vision/codeforge/internal/notify"
	"github.com/tara-vision/codeforge/internal/pipeline"
	"github.com/tara-vision/codeforge/internal/storage"
	"github.com/tara-vision/codeforge/internal/ui"
)

// flushTimeout bounds how long a command waits for pending notifications before exiting
const flushTimeout = 10 * time.Second

// app holds the long-lived pieces every command shares
type app struct {
	mu         sync.RWMutex
	reloadMu   sync.Mutex // serializes every read of the global viper after startup
	settings   *config.Settings
	store      *storage.Manager
	gateway    *gateway.Gateway
	dispatcher *notify.Dispatcher
	pipeline   *pipeline.Pipeline
	renderer   *ui.Renderer
	logger     *zap.Logger
}

// newApp loads settings and wires the gateway, store, notifier and pipeline
func newApp() (*app, error) {
	log := logger
	if log == nil {
		log = zap.NewNop()
	}

	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	store, err := storage.NewManager(settings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}

	gw := gateway.New(log)
	if _, err := gw.Reload(settings.Endpoint()); err != nil {
		return nil, err
	}

	dispatcher := notify.NewDispatcher(notify.NewTelegram(settings.TelegramAPIKey, settings.TelegramChatID), log)

	return &app{
		settings:   settings,
		store:      store,
		gateway:    gw,
		dispatcher: dispatcher,
		pipeline:   pipeline.New(gw, store, artifact.NewWriter(log), dispatcher, log),
		renderer:   newRenderer(),
		logger:     log,
	}, nil
}

// newRenderer honours --plain and --no-spinner
func newRenderer() *ui.Renderer {
	return ui.NewRendererWithConfig(&ui.Config{
		EnableSpinner:  !noSpinner,
		EnableMarkdown: !plain,
	})
}

// close waits briefly for queued notifications
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := a.dispatcher.Wait(ctx); err != nil {
		a.logger.Warn("pending notifications dropped", zap.Error(err))
	}
}

// current returns the settings in effect
func (a *app) current() *config.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// reload re-reads settings, swaps the gateway client and updates notifier credentials.
// Calls already in flight keep the client they started with.
func (a *app) reload() error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()
	return a.reloadLocked()
}

// reloadLocked re-reads the config file, if any, and applies it. reloadMu must be held.
func (a *app) reloadLocked() error {
	if viper.ConfigFileUsed() != "" {
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	version, err := a.gateway.Reload(settings.Endpoint())
	if err != nil {
		return err
	}
	a.dispatcher.SetSender(notify.NewTelegram(settings.TelegramAPIKey, settings.TelegramChatID))

	a.mu.Lock()
	a.settings = settings
	a.mu.Unlock()

	if settings.APIURL == "" {
		if err := a.store.ClearModels(); err != nil {
			a.logger.Warn("failed to clear model cache", zap.Error(err))
		}
	}

	a.logger.Info("settings reloaded", zap.Uint64("gateway_version", version))
	return nil
}

// spin runs fn under a spinner when enabled
func (a *app) spin(message string, fn func() error) error {
	if !a.renderer.SpinnerEnabled() {
		return fn()
	}
	s := ui.NewSpinner()
	s.Start(message)
	defer s.Stop()
	return fn()
}
