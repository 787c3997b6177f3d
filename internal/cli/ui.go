package cli

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fenggwsx/NickDirectory/internal/client"
)

// NewUICommand creates the ui command.
func NewUICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the terminal interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// Logs would tear the alternate screen; keep them only when asked for.
			var logOut io.Writer = io.Discard
			if rootOpts.Verbose {
				logOut = cmd.ErrOrStderr()
			}
			s, err := openSession(ctx, rootOpts, logOut)
			if err != nil {
				return err
			}
			defer s.Close()

			model := client.NewApp(ctx, s.cfg.Client, s.store)
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}
