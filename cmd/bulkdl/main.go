package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(&options{}).Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "\nDownload cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "bulkdl",
		Short: "Bulk Downloader - fetch many URLs into one archive or a folder",
		Long: `Bulk Downloader fetches a list of URLs with bounded concurrency.

Successful downloads are either packed into a single zip archive (archive)
or saved one file per URL (files). Failed URLs never stop the batch; a
summary is printed at the end.

For interactive mode, use: bulkdl-tui`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts.bindPersistent(root)

	root.AddCommand(
		newArchiveCmd(opts),
		newFilesCmd(opts),
		newLinksCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}
