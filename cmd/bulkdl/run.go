package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/handiism/bulk-downloader/internal/config"
	"github.com/handiism/bulk-downloader/internal/download"
	"github.com/handiism/bulk-downloader/internal/history"
	"github.com/handiism/bulk-downloader/internal/logging"
	"github.com/handiism/bulk-downloader/internal/manifest"
	"github.com/handiism/bulk-downloader/internal/model"
	"github.com/handiism/bulk-downloader/internal/notify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func setupLogging(settings *config.Settings) {
	logging.Setup(settings.ToLoggingConfig())
}

func runBatch(cmd *cobra.Command, opts *options, args []string, mode model.Mode, name string) error {
	settings, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	if _, err := download.ParseStrategy(settings.Strategy); err != nil {
		return err
	}
	if _, err := download.ParsePrefixMode(settings.PrefixMode); err != nil {
		return err
	}
	setupLogging(settings)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if settings.MetricsAddr != "" {
		shutdown := serveMetrics(settings.MetricsAddr)
		defer shutdown()
	}

	reqs, err := gatherRequests(ctx, opts, settings, args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()

	var ledger history.Ledger
	if target := settings.HistoryTarget(); target != "" {
		l, closeLedger, err := history.Open(ctx, target)
		if err != nil {
			log.Warn().Err(err).Str("history", target).Msg("History unavailable")
		} else {
			defer closeLedger()
			ledger = l
		}
	}

	if ledger != nil && settings.SkipDownloaded {
		keep, skipped, err := history.Filter(ctx, ledger, reqs)
		if err != nil {
			return fmt.Errorf("filtering history: %w", err)
		}
		if len(skipped) > 0 {
			fmt.Fprintf(stderr, "Skipping %d already downloaded URL(s)\n", len(skipped))
		}
		if len(keep) == 0 && len(reqs) > 0 {
			fmt.Fprintln(stderr, "Nothing left to download.")
			return nil
		}
		reqs = keep
	}

	notifier := notify.Multi{notify.NewConsoleNotifier(stderr)}
	if !settings.LogPretty {
		notifier = append(notifier, notify.NewLogNotifier())
	}

	bar := newProgressBar(stderr, len(reqs), mode)
	downloader := download.NewDownloader(settings.ToDownloadConfig(),
		download.WithNotifier(notifier),
		download.WithProgress(func(p model.Progress) {
			if p.Total > 0 {
				bar.ChangeMax(p.Total)
			}
			_ = bar.Set(p.Current)
		}),
		download.WithEvents(func(event download.ProgressEvent) {
			if event.Stage != "" {
				bar.Describe(describeStage(event.Stage))
			}
		}),
	)

	start := time.Now()
	var report *model.Report
	switch mode {
	case model.ModeArchive:
		report, err = downloader.DownloadArchive(ctx, reqs, name)
	default:
		report, err = downloader.DownloadFiles(ctx, reqs)
	}
	_ = bar.Finish()
	fmt.Fprintln(stderr)

	if report != nil {
		printReport(stderr, report, time.Since(start), opts.verbose)
		if opts.manifest != "" {
			creator := manifest.NewCreator(manifest.FormatForPath(opts.manifest), true)
			if writeErr := creator.Write(context.WithoutCancel(ctx), opts.manifest, report); writeErr != nil {
				log.Warn().Err(writeErr).Str("path", opts.manifest).Msg("Could not write manifest")
			}
		}
		if ledger != nil && err == nil {
			if markErr := history.MarkReport(ctx, ledger, report); markErr != nil {
				log.Warn().Err(markErr).Msg("Could not update history")
			}
		}
	}

	if err != nil && ctx.Err() != nil {
		return context.Canceled
	}
	return err
}

func newProgressBar(w io.Writer, total int, mode model.Mode) *progressbar.ProgressBar {
	unit := "file"
	if mode == model.ModeArchive {
		unit = "item"
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(describeStage(model.StageNormalizing)),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func describeStage(stage model.Stage) string {
	return fmt.Sprintf("%-11s", stage.String())
}

func printReport(w io.Writer, report *model.Report, elapsed time.Duration, verbose bool) {
	if report.Archive != "" {
		fmt.Fprintf(w, "Archive: %s\n", report.Archive)
	} else if verbose {
		for _, item := range report.Successes {
			fmt.Fprintf(w, "  saved  %s\n", item.Name)
		}
	}
	for _, item := range report.Failures {
		fmt.Fprintf(w, "  failed %s: %v\n", item.URL, item.Err)
	}
	fmt.Fprintf(w, "Finished in %s (%d succeeded, %d failed)\n",
		elapsed.Round(time.Millisecond), len(report.Successes), len(report.Failures))
}

// serveMetrics exposes the Prometheus registry until shutdown is called.
func serveMetrics(addr string) (shutdown func()) {
	mux := nethttp.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &nethttp.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
