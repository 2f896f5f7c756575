package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/atanenl/portabase-go/internal/app"
)

func newHostsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "Inspect hosts (gastouders)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all hosts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.ListHosts(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one host by numeric id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.GetHost(ctx, args[0])
			})
		},
	})

	return cmd
}

func newManagersCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "managers",
		Short: "Inspect managers (bemiddelingsmedewerkers)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all managers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.ListManagers(ctx)
			})
		},
	})

	return cmd
}
