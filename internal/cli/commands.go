package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fenggwsx/NickDirectory/internal/protocol"
	"github.com/fenggwsx/NickDirectory/internal/storage"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		sort   string
		filter storage.Filter
	)

	cmd := &cobra.Command{
		Use:   "list [address]",
		Short: "List records sorted by name",
		Long: `List the records of the directory, or the single record an item
address points at. Results are sorted by name unless --sort is given.

Example:
  nickdir list
  nickdir list --sort nickname --name Ann
  nickdir list nicknames/3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := storage.Collection()
			if len(args) == 1 {
				parsed, err := parseTarget(args[0])
				if err != nil {
					return err
				}
				addr = parsed
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				payload := protocol.ListPayload{Sort: sort, Filter: filter}
				resp, err := s.store.Dispatch(ctx, protocol.NewRequest(protocol.MethodGet, addr, payload))
				if err != nil {
					return err
				}
				return newFormatter(rootOpts, cmd.OutOrStdout()).records(resp)
			})
		},
	}

	cmd.Flags().StringVar(&sort, "sort", string(storage.DefaultSort), "sort column (id|name|nickname)")
	addFilterFlags(cmd, &filter)
	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|address>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			if addr.Kind() != storage.KindItem {
				return &storage.InvalidAddressError{Address: args[0]}
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				resp, err := s.store.Dispatch(ctx, protocol.NewRequest(protocol.MethodGet, addr, nil))
				if err != nil {
					return err
				}
				if len(resp.Records) == 0 {
					return fmt.Errorf("%s: %w", addr, storage.ErrNotFound)
				}
				return newFormatter(rootOpts, cmd.OutOrStdout()).record(resp.Records[0])
			})
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <nickname>",
		Short: "Insert a new record",
		Long: `Insert a new record. The nickname may be several words.

Example:
  nickdir add Robert "Bob the builder"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := protocol.InsertPayload{Name: args[0], Nickname: strings.Join(args[1:], " ")}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				resp, err := s.store.Dispatch(ctx, protocol.NewRequest(protocol.MethodPost, storage.Collection(), payload))
				if err != nil {
					return err
				}
				return newFormatter(rootOpts, cmd.OutOrStdout()).inserted(resp)
			})
		},
	}
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		name     string
		nickname string
		filter   storage.Filter
	)

	cmd := &cobra.Command{
		Use:   "update <id|address>",
		Short: "Change the name or nickname of matching records",
		Long: `Change fields of the addressed records. Use "nicknames" to address
every record, optionally narrowed with --where-name / --where-nickname.

Example:
  nickdir update 3 --nickname B2
  nickdir update nicknames --where-name Ann --nickname Annie`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			payload := protocol.UpdatePayload{Filter: filter}
			if cmd.Flags().Changed("name") {
				payload.Name = &name
			}
			if cmd.Flags().Changed("nickname") {
				payload.Nickname = &nickname
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				resp, err := s.store.Dispatch(ctx, protocol.NewRequest(protocol.MethodPut, addr, payload))
				if err != nil {
					return err
				}
				return newFormatter(rootOpts, cmd.OutOrStdout()).affected(resp, "updated")
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&nickname, "nickname", "", "new nickname")
	cmd.Flags().StringVar(&filter.Name, "where-name", "", "only records with this name")
	cmd.Flags().StringVar(&filter.Nickname, "where-nickname", "", "only records with this nickname")
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var filter storage.Filter

	cmd := &cobra.Command{
		Use:   "delete <id|address>",
		Short: "Delete matching records",
		Long: `Delete the addressed records. "nicknames" deletes every record.

Example:
  nickdir delete 3
  nickdir delete nicknames`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				req := protocol.NewRequest(protocol.MethodDelete, addr, protocol.DeletePayload{Filter: filter})
				resp, err := s.store.Dispatch(ctx, req)
				if err != nil {
					return err
				}
				return newFormatter(rootOpts, cmd.OutOrStdout()).affected(resp, "deleted")
			})
		},
	}

	cmd.Flags().StringVar(&filter.Name, "where-name", "", "only records with this name")
	cmd.Flags().StringVar(&filter.Nickname, "where-nickname", "", "only records with this nickname")
	return cmd
}

// NewTypeCommand creates the type command.
func NewTypeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "type <address>",
		Short: "Print the content type of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			contentType, err := addr.ContentType()
			if err != nil {
				return err
			}
			return newFormatter(rootOpts, cmd.OutOrStdout()).message("type", string(contentType))
		},
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the table (destroys every record)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return &storage.ValidationError{Field: "force", Reason: "reset destroys every record; pass --force"}
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) error {
				if err := s.store.Reset(ctx); err != nil {
					return err
				}
				return newFormatter(rootOpts, cmd.OutOrStdout()).message("status", "Table dropped and recreated.")
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "confirm the destructive reset")
	return cmd
}

func addFilterFlags(cmd *cobra.Command, filter *storage.Filter) {
	cmd.Flags().StringVar(&filter.Name, "name", "", "only records with this name")
	cmd.Flags().StringVar(&filter.Nickname, "nickname", "", "only records with this nickname")
}

// parseTarget accepts a bare record id as shorthand for nicknames/<id>.
func parseTarget(arg string) (storage.Address, error) {
	value := strings.TrimSpace(arg)
	if value != "" && strings.Trim(value, "0123456789") == "" {
		addr, err := storage.ParseAddress(storage.CollectionPath + "/" + value)
		if err != nil {
			return storage.Address{}, &storage.InvalidAddressError{Address: arg}
		}
		return addr, nil
	}
	return storage.ParseAddress(value)
}

func withSession(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}
