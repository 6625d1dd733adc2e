// Package history remembers which URLs have already been downloaded.
//
// Front ends use a Ledger to skip URLs from earlier batches and to mark the
// successes of a finished batch. Two stores are provided: FileLedger keeps
// one JSON document on disk, RedisLedger keeps one Redis hash so several
// machines can share the same history.
package history

import (
	"context"
	"time"

	"github.com/handiism/bulk-downloader/internal/model"
)

// Ledger is a set of downloaded URLs.
type Ledger interface {
	// Has reports whether url is marked.
	Has(ctx context.Context, url string) (bool, error)

	// Mark records urls as downloaded.
	Mark(ctx context.Context, urls ...string) error

	// Remove forgets urls.
	Remove(ctx context.Context, urls ...string) error

	// Clear forgets everything.
	Clear(ctx context.Context) error

	// List returns every marked URL in sorted order.
	List(ctx context.Context) ([]string, error)
}

// Filter drops requests whose URL is already in the ledger and returns the
// remaining requests together with the skipped ones, both in input order.
func Filter(ctx context.Context, ledger Ledger, reqs []model.Request) (keep, skipped []model.Request, err error) {
	for _, req := range reqs {
		has, err := ledger.Has(ctx, req.URL)
		if err != nil {
			return nil, nil, err
		}
		if has {
			skipped = append(skipped, req)
		} else {
			keep = append(keep, req)
		}
	}
	return keep, skipped, nil
}

// MarkReport marks every success of a finished batch.
func MarkReport(ctx context.Context, ledger Ledger, report *model.Report) error {
	if report == nil || len(report.Successes) == 0 {
		return nil
	}
	urls := make([]string, len(report.Successes))
	for i, item := range report.Successes {
		urls[i] = item.URL
	}
	return ledger.Mark(ctx, urls...)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
