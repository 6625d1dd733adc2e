package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrEmptyRequests is returned by Normalize when the request list is empty.
var ErrEmptyRequests = errors.New("request list is empty")

// InvalidRequestError reports a request item that cannot be downloaded.
type InvalidRequestError struct {
	Index  int
	URL    string
	Reason string
}

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("request %d (%q): %s", e.Index, e.URL, e.Reason)
}

// Request is a single resource to download.
//
// FileName is an optional caller-provided hint. When empty, the name is
// resolved from the response or the URL at fetch time.
type Request struct {
	// URL is the absolute http(s) URL of the resource.
	URL string `json:"url"`

	// FileName is the preferred output name, if any.
	FileName string `json:"filename,omitempty"`
}

// NewRequests builds requests from bare URLs.
func NewRequests(urls ...string) []Request {
	reqs := make([]Request, len(urls))
	for i, u := range urls {
		reqs[i] = Request{URL: u}
	}
	return reqs
}

// ParseRequestLine parses a text line of the form "url [filename]".
//
// Everything after the first run of whitespace is taken as the filename, so
// names containing spaces are preserved:
//
//	ParseRequestLine("https://a/x.png my photo.png") // {URL: "https://a/x.png", FileName: "my photo.png"}
func ParseRequestLine(line string) (Request, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Request{}, fmt.Errorf("empty request line")
	}

	fields := strings.Fields(line)
	req := Request{URL: fields[0]}
	if len(fields) > 1 {
		req.FileName = strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	}
	return req, nil
}

// Normalize validates and canonicalizes a request list.
//
// URLs and filenames are trimmed. Every URL must be absolute with an http or
// https scheme. The input slice is not modified.
//
// Returns ErrEmptyRequests for an empty list and *InvalidRequestError for the
// first malformed item.
func Normalize(reqs []Request) ([]Request, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyRequests
	}

	out := make([]Request, len(reqs))
	for i, req := range reqs {
		rawURL := strings.TrimSpace(req.URL)
		if rawURL == "" {
			return nil, &InvalidRequestError{Index: i, URL: req.URL, Reason: "empty url"}
		}

		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, &InvalidRequestError{Index: i, URL: req.URL, Reason: err.Error()}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, &InvalidRequestError{Index: i, URL: req.URL, Reason: "scheme must be http or https"}
		}
		if u.Host == "" {
			return nil, &InvalidRequestError{Index: i, URL: req.URL, Reason: "missing host"}
		}

		out[i] = Request{URL: rawURL, FileName: strings.TrimSpace(req.FileName)}
	}

	return out, nil
}
