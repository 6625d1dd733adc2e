package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/handiism/bulk-downloader/internal/config"
	"github.com/spf13/cobra"
)

// options holds the flags shared by every command.
type options struct {
	configPath     string
	input          string
	output         string
	concurrency    int
	timeout        time.Duration
	retries        int
	referer        string
	headers        []string
	anonymous      bool
	saveAs         bool
	prefix         string
	strategy       string
	folder         string
	rps            float64
	history        string
	skipDownloaded bool
	logLevel       string
	logPretty      bool
	metricsAddr    string
	page           string
	match          string
	manifest       string
	verbose        bool
}

func (o *options) bindPersistent(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "Path to settings file (default: user config dir)")
	flags.StringVarP(&o.input, "input", "i", "", "File with one request per line: url [filename] (- for stdin)")
	flags.StringVarP(&o.output, "output", "o", "", "Output directory (overrides config)")
	flags.IntVarP(&o.concurrency, "concurrency", "c", 0, "Number of concurrent downloads (0 uses the mode default)")
	flags.DurationVar(&o.timeout, "timeout", 0, "Timeout per request attempt (e.g. 30s)")
	flags.IntVar(&o.retries, "retries", 0, "Retries for network errors, timeouts, 5xx and 429")
	flags.StringVar(&o.referer, "referer", "", "Referer header sent with every request")
	flags.StringArrayVarP(&o.headers, "header", "H", nil, "Extra request header as key=value (repeatable)")
	flags.BoolVar(&o.anonymous, "anonymous", false, "Drop Cookie and Authorization headers")
	flags.BoolVar(&o.saveAs, "save-as", true, "Never overwrite existing files; pick a free \"name (n)\" instead")
	flags.StringVar(&o.prefix, "prefix", "", "Name prefix mode: none or prepend (adds the 1-based input index)")
	flags.StringVar(&o.strategy, "strategy", "", "Files mode retrieval: auto, direct or intercepted")
	flags.StringVar(&o.folder, "folder", "", "Top-level folder inside the archive")
	flags.Float64Var(&o.rps, "rps", 0, "Maximum requests per second (0 = unlimited)")
	flags.StringVar(&o.history, "history", "", "Download history: file path or redis://host:port/db/key")
	flags.BoolVar(&o.skipDownloaded, "skip-downloaded", false, "Skip URLs already in the download history")
	flags.StringVar(&o.logLevel, "log-level", "", "Logging level (debug, info, warn, error)")
	flags.BoolVar(&o.logPretty, "log-pretty", true, "Human-readable log output instead of JSON")
	flags.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	flags.StringVar(&o.page, "page", "", "Harvest request URLs from this page")
	flags.StringVar(&o.match, "match", "", "Regular expression harvested links must match")
	flags.StringVar(&o.manifest, "manifest", "", "Write a batch manifest (.m3u, .pls or .json)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Show debug logs and every saved file")
}

// settings loads the settings file and applies every flag the user set.
func (o *options) settings(cmd *cobra.Command) (*config.Settings, error) {
	path := o.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	settings, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	changed := cmd.Flags().Changed

	if changed("output") {
		settings.DownloadsPath = o.output
	}
	if changed("concurrency") {
		settings.Concurrency = o.concurrency
	}
	if changed("timeout") {
		settings.TimeoutSeconds = o.timeout.Seconds()
	}
	if changed("retries") {
		settings.DownloadMaxRetries = o.retries
	}
	if changed("referer") {
		settings.Referer = o.referer
	}
	if changed("header") {
		headers, err := parseHeaders(o.headers)
		if err != nil {
			return nil, err
		}
		if settings.Headers == nil {
			settings.Headers = make(map[string]string)
		}
		for k, v := range headers {
			settings.Headers[k] = v
		}
	}
	if changed("anonymous") {
		settings.Anonymous = o.anonymous
	}
	if changed("save-as") {
		settings.SaveAs = o.saveAs
	}
	if changed("prefix") {
		settings.PrefixMode = o.prefix
	}
	if changed("strategy") {
		settings.Strategy = o.strategy
	}
	if changed("folder") {
		settings.ArchiveFolder = o.folder
	}
	if changed("rps") {
		settings.RequestsPerSecond = o.rps
	}
	if changed("history") {
		settings.HistoryPath = o.history
		settings.RedisAddr = ""
	}
	if changed("skip-downloaded") {
		settings.SkipDownloaded = o.skipDownloaded
	}
	if changed("log-level") {
		settings.LogLevel = o.logLevel
	} else if o.verbose {
		settings.LogLevel = "debug"
	}
	if changed("log-pretty") {
		settings.LogPretty = o.logPretty
	}
	if changed("metrics-addr") {
		settings.MetricsAddr = o.metricsAddr
	}
	return settings, nil
}

// parseHeaders converts "key=value" (or "key: value") pairs to a map.
func parseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			key, value, ok = strings.Cut(pair, ":")
		}
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}
