package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	proposalsApp "proposals/internal/app"
	"proposals/internal/config"
	"proposals/internal/service"
)

func loadConfig() (config.Config, error) {
	return config.Load(cfgPath)
}

// withHeadless runs fn against the service stack without the desktop shell.
func withHeadless(fn func(ctx context.Context, h *proposalsApp.Headless) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	h, err := proposalsApp.OpenHeadless(cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return fn(ctx, h)
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return proposalsApp.ServeMCP(cfg)
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored proposals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHeadless(func(_ context.Context, h *proposalsApp.Headless) error {
				list, err := h.Proposals.ListProposals()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, p := range list {
					fmt.Fprintf(out, "%s\t%s\t%s\tupdated %s\n", p.ID, p.Name, p.Client, humanize.Time(p.UpdatedAt))
				}
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <proposal-id>",
		Short: "Write a vector PDF of a stored proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHeadless(func(_ context.Context, h *proposalsApp.Headless) error {
				path := output
				if path == "" {
					path = args[0] + ".pdf"
				}
				res, err := service.ExportStored(h.Backend.Store, args[0], path, h.Config)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d pages, %s)\n", res.Path, res.Pages, humanize.Bytes(uint64(res.Bytes)))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <proposal-id>.pdf)")
	return cmd
}

func newReflowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reflow <proposal-id>",
		Short: "Re-run pagination over every content page of a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHeadless(func(ctx context.Context, h *proposalsApp.Headless) error {
				if _, err := h.Proposals.OpenProposal(ctx, args[0]); err != nil {
					return err
				}
				res, err := h.Proposals.ReflowAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d page(s) changed, %d created, %d with unsplittable content\n",
					len(res.Changed), len(res.Created), len(res.Unsplittable))
				return nil
			})
		},
	}
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Snapshot every proposal into the backup directory now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHeadless(func(ctx context.Context, h *proposalsApp.Headless) error {
				run, err := h.Backups.RunOnce(ctx)
				if err != nil {
					return err
				}
				if run.Skipped {
					fmt.Fprintln(cmd.OutOrStdout(), "backup directory is locked by another process, skipped")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d snapshot(s), pruned %d\n", run.Written, run.Pruned)
				return nil
			})
		},
	}
}
