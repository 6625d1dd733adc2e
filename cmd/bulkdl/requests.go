package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/handiism/bulk-downloader/internal/collect"
	"github.com/handiism/bulk-downloader/internal/config"
	"github.com/handiism/bulk-downloader/internal/http"
	"github.com/handiism/bulk-downloader/internal/model"
)

// gatherRequests collects requests from arguments, the input file and the
// harvested page, in that order.
func gatherRequests(ctx context.Context, opts *options, settings *config.Settings, args []string, stdin io.Reader) ([]model.Request, error) {
	var reqs []model.Request
	for _, arg := range args {
		req, err := model.ParseRequestLine(arg)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}

	if opts.input != "" {
		r := stdin
		if opts.input != "-" {
			file, err := os.Open(opts.input)
			if err != nil {
				return nil, fmt.Errorf("opening input: %w", err)
			}
			defer file.Close()
			r = file
		}
		fromFile, err := readRequests(r)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, fromFile...)
	}

	if opts.page != "" {
		harvested, err := harvest(ctx, settings, opts.page, opts.match)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, harvested...)
	}

	return reqs, nil
}

// readRequests parses one request per line. Blank lines and lines starting
// with # are skipped.
func readRequests(r io.Reader) ([]model.Request, error) {
	var reqs []model.Request
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		req, err := model.ParseRequestLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return reqs, nil
}

func harvest(ctx context.Context, settings *config.Settings, page, match string) ([]model.Request, error) {
	var pattern *regexp.Regexp
	if match != "" {
		var err error
		pattern, err = regexp.Compile(match)
		if err != nil {
			return nil, fmt.Errorf("invalid --match: %w", err)
		}
	}

	cfg := settings.ToDownloadConfig()
	client := http.NewClient(http.Config{
		Timeout:           cfg.Timeout,
		Retries:           cfg.Retries,
		RetryCooldown:     cfg.RetryCooldown,
		RetryExponent:     cfg.RetryExponent,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	return collect.NewCollector(client, settings.ToRequestOptions()).Collect(ctx, page, pattern)
}
