package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/identity"
)

type whoamiOutput struct {
	UserID       string `json:"user_id"`
	IdentityFile string `json:"identity_file"`
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the anonymous user ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _, err := opts.loadSettings()
			if err != nil {
				return err
			}

			provider := identity.NewFileProvider(configDir)
			session := identity.NewSession(provider, nil)
			userID, err := session.Start(cmd.Context())
			if err != nil {
				return &exitError{code: exitSysError, msg: session.Message(), err: err}
			}

			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), whoamiOutput{UserID: userID, IdentityFile: provider.Path()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), userID)
			return nil
		},
	}
}
