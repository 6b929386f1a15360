package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/pantry/internal/config"
	"github.com/mesh-intelligence/pantry/internal/identity"
	"github.com/mesh-intelligence/pantry/internal/inventory"
	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/internal/netcheck"
	"github.com/mesh-intelligence/pantry/internal/paths"
	"github.com/mesh-intelligence/pantry/internal/storeclient"
	"github.com/mesh-intelligence/pantry/pkg/store"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// env is everything a command needs to work on the signed-in user's
// inventory. Close releases it.
type env struct {
	cfg       *config.Config
	configDir string
	dataDir   string
	logger    *slog.Logger
	userID    string
	model     *inventory.Model

	closers []func() error
}

// loadSettings resolves the config directory and loads config.yaml and .env.
func (o *rootOptions) loadSettings() (string, *config.Config, error) {
	configDir, err := paths.ResolveConfigDir(o.configDir)
	if err != nil {
		return "", nil, sysError(fmt.Errorf("resolve config dir: %w", err))
	}

	config.LoadDotenvIfPresent("")
	cfg, err := config.Load(configDir)
	if err != nil {
		return "", nil, userError(fmt.Errorf("load config: %w", err))
	}
	return configDir, cfg, nil
}

// openEnv loads the configuration, attaches the store and signs the user in.
func (o *rootOptions) openEnv(ctx context.Context) (*env, error) {
	configDir, cfg, err := o.loadSettings()
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, configDir: configDir}

	logger, closeLog, err := logging.Setup(logging.Settings{File: cfg.Logging.File, Level: cfg.Logging.Level})
	if err != nil {
		return nil, sysError(fmt.Errorf("setup logging: %w", err))
	}
	e.logger = logger
	e.closers = append(e.closers, closeLog)

	e.dataDir, err = paths.ResolveDataDir(o.dataDir, cfg.DataDir)
	if err != nil {
		e.Close()
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	backend, err := store.Open(cfg.StoreConfig(e.dataDir))
	if err != nil {
		e.Close()
		return nil, sysError(err)
	}
	e.closers = append(e.closers, backend.Detach)

	session := identity.NewSession(identity.NewFileProvider(configDir), logger)
	e.userID, err = session.Start(ctx)
	if err != nil {
		e.Close()
		return nil, &exitError{code: exitSysError, msg: session.Message(), err: err}
	}

	checker := netcheck.New(netcheck.Settings{
		Offline:      cfg.Network.Offline,
		ProbeAddr:    cfg.Network.ProbeAddr,
		ProbeTimeout: cfg.Network.ProbeTimeout,
	})
	client := storeclient.New(backend, checker,
		storeclient.WithTimeout(cfg.Store.Timeout),
		storeclient.WithLogger(logger),
	)
	e.model = inventory.New(client, e.userID,
		inventory.WithPageSize(cfg.PageSize),
		inventory.WithLogger(logger),
	)
	logger.Debug("environment ready", "backend", cfg.Backend, "dataDir", e.dataDir)
	return e, nil
}

// Close releases resources in reverse order of acquisition.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// fail converts a view-model operation error into a command error.
func (e *env) fail(err error) error {
	if types.IsValidation(err) {
		return userError(err)
	}
	if msg := e.model.Message(); msg != "" {
		return opError(msg, err)
	}
	return opError("", err)
}
