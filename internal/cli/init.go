package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/config"
	"github.com/mesh-intelligence/pantry/internal/identity"
	"github.com/mesh-intelligence/pantry/internal/paths"
	"github.com/mesh-intelligence/pantry/pkg/store"
)

// initOutput is the JSON shape of the init command.
type initOutput struct {
	ConfigFile string `json:"config_file"`
	DataDir    string `json:"data_dir"`
	Backend    string `json:"backend"`
	UserID     string `json:"user_id"`
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize pantry storage",
		Long: "Create the configuration and data directories, write a default config.yaml,\n" +
			"initialize the storage backend and create the anonymous user identity.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}
}

func runInit(cmd *cobra.Command, opts *rootOptions) error {
	configDir, cfg, err := opts.loadSettings()
	if err != nil {
		return err
	}

	dataDir, err := paths.ResolveDataDir(opts.dataDir, cfg.DataDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	// Attach then Detach creates the data directory and store files.
	backend, err := store.Open(cfg.StoreConfig(dataDir))
	if err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := backend.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	userID, err := identity.NewFileProvider(configDir).SignIn(cmd.Context())
	if err != nil {
		return sysError(fmt.Errorf("create identity: %w", err))
	}

	out := initOutput{
		ConfigFile: filepath.Join(configDir, config.FileName),
		DataDir:    dataDir,
		Backend:    cfg.Backend,
		UserID:     userID,
	}
	if opts.jsonMode {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Pantry initialized successfully")
	fmt.Fprintf(cmd.OutOrStdout(), "config: %s\ndata:   %s (%s)\nuser:   %s\n", out.ConfigFile, out.DataDir, out.Backend, out.UserID)
	return nil
}
