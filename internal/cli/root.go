package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fenggwsx/NickDirectory/internal/config"
	"github.com/fenggwsx/NickDirectory/internal/directory"
	"github.com/fenggwsx/NickDirectory/internal/logger"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // storage or unexpected failure
	ExitCommandError = 2 // bad input: validation, address, missing record
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Database string
	Format   string
	Verbose  bool
}

// NewRootCommand creates the root command for the nickdir CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "nickdir",
		Short:         "Nickname directory",
		Long:          "Store, list and remove friends' nicknames in a local SQLite directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the SQLite database (overrides NICKDIR_DB_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewTypeCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewUICommand(opts))

	return cmd
}

// ExitCode maps a command error onto a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case directory.IsUserError(err):
		return ExitCommandError
	default:
		return ExitFailure
	}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// session bundles what a command needs to talk to the store.
type session struct {
	cfg   config.Config
	store *directory.RecordStore
	log   *zap.Logger
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Warn("close store", zap.Error(err))
	}
	logger.Flush(s.log)
}

// openSession loads configuration, applies flag overrides and opens the store.
// Logs go to logOut so they never mix with command output.
func openSession(ctx context.Context, opts *RootOptions, logOut io.Writer) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log.Level, logOut)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	log.Debug("opening database", zap.String("path", cfg.Database.Path))
	store, err := directory.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, store: store, log: log}, nil
}
