// Package download provides the batch download pipeline: a bounded
// concurrency pool, the resource fetcher and the coordinator that packs or
// saves the results.
//
// # Downloader
//
// The Downloader runs one batch through a linear sequence of stages:
//
//  1. Normalizing: validate the request list
//  2. Fetching: fetch every request with bounded concurrency
//  3. Aggregating: split results into successes and failures
//  4. Packaging: pack successes into a zip archive (archive mode only)
//  5. Saving: hand the output to the saver
//  6. Done or Failed
//
// # Basic Usage
//
//	d := download.NewDownloader(download.DefaultConfig(),
//	    download.WithProgress(func(p model.Progress) {
//	        fmt.Printf("%d/%d (%d%%)\n", p.Current, p.Total, p.Percent)
//	    }),
//	)
//
//	report, err := d.DownloadArchive(ctx, model.NewRequests(urls...), "photos")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Modes
//
// DownloadArchive saves one archive per batch. DownloadFiles saves every
// success as its own file, either by handing the URL straight to the saver
// (direct) or by fetching the bytes first (intercepted). See Strategy.
//
// # Failures
//
// A failed item never stops the batch. The batch itself fails only for an
// invalid request list (ErrInvalidInput), when nothing succeeded
// (ErrAllFailed), or when the archive cannot be packed or saved. Each batch
// produces exactly one notification.
//
// # Progress Tracking
//
// Progress is reported via callbacks:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	    Stage   model.Stage
//	}
//
// # Retry Logic
//
// Failed requests are retried with exponential backoff when Config.Retries
// is set. Only network errors, timeouts, 5xx and 429 responses are retried.
package download
