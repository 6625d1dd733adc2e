// Package model defines the core data structures used throughout
// the bulk-downloader application.
//
// # Request
//
// Request is one normalized item of a batch:
//
//	reqs := model.NewRequests("https://example.com/a.png", "https://example.com/b.png")
//	reqs, err := model.Normalize(reqs)
//
// A request line in a text list has the form "url [filename]":
//
//	req, err := model.ParseRequestLine("https://example.com/a.png cover.png")
//
// # Fetch Results
//
// FetchResult is the per-item outcome of a fetch. Partition splits a batch of
// results into successes and failures without changing their relative order:
//
//	outcome := model.Partition(results)
//	fmt.Println(len(outcome.Successes), len(outcome.Failures))
//
// # Progress
//
// Progress is an immutable snapshot of a running batch:
//
//	p := model.NewProgress(3, 10) // {Current: 3, Total: 10, Percent: 30}
package model
