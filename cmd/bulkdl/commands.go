package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/handiism/bulk-downloader/internal/history"
	"github.com/handiism/bulk-downloader/internal/model"
	"github.com/spf13/cobra"
)

func newArchiveCmd(opts *options) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "archive [url [filename]]...",
		Short: "Download URLs and pack the successes into one zip archive",
		Example: `  bulkdl archive https://example.com/a.png https://example.com/b.png
  bulkdl archive -i urls.txt --name photos --folder photos
  bulkdl archive --page https://example.com/gallery --match '\.jpe?g$'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args, model.ModeArchive, name)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Archive file name (default: download.zip)")
	return cmd
}

func newFilesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "files [url [filename]]...",
		Short: "Download URLs and save each success as its own file",
		Example: `  bulkdl files -o ./out https://example.com/a.png https://example.com/b.png
  bulkdl files --strategy intercepted --referer https://example.com/ -i urls.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args, model.ModeFiles, "")
		},
	}
}

func newLinksCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "links PAGE",
		Short: "Print the links harvested from a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.settings(cmd)
			if err != nil {
				return err
			}
			setupLogging(settings)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reqs, err := harvest(ctx, settings, args[0], opts.match)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, req := range reqs {
				fmt.Fprintln(out, req.URL)
			}
			return nil
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or edit the download history",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List downloaded URLs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withLedger(cmd, opts, func(ctx context.Context, ledger history.Ledger) error {
					urls, err := ledger.List(ctx)
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					for _, url := range urls {
						fmt.Fprintln(out, url)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "forget URL...",
			Short: "Remove URLs from the history",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withLedger(cmd, opts, func(ctx context.Context, ledger history.Ledger) error {
					return ledger.Remove(ctx, args...)
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every URL from the history",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withLedger(cmd, opts, func(ctx context.Context, ledger history.Ledger) error {
					return ledger.Clear(ctx)
				})
			},
		},
	)
	return cmd
}

func withLedger(cmd *cobra.Command, opts *options, fn func(ctx context.Context, ledger history.Ledger) error) error {
	settings, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	setupLogging(settings)

	target := settings.HistoryTarget()
	if target == "" {
		return fmt.Errorf("no history configured, use --history")
	}

	ctx := cmd.Context()
	ledger, closeLedger, err := history.Open(ctx, target)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer closeLedger()

	return fn(ctx, ledger)
}
