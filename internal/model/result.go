package model

// FetchResult is the outcome of fetching one request.
//
// Exactly one FetchResult exists per request, and Index is the position of
// that request in the normalized input list. On success Err is nil and Data
// holds the payload; on failure Data is nil.
type FetchResult struct {
	Index    int
	URL      string
	FileName string
	Data     []byte
	Err      error
}

// OK reports whether the fetch succeeded.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// BatchOutcome is a partitioned view over all fetch results of a batch.
type BatchOutcome struct {
	Successes []FetchResult
	Failures  []FetchResult
}

// Partition splits results into successes and failures, keeping input order
// within each group.
func Partition(results []FetchResult) BatchOutcome {
	var outcome BatchOutcome
	for _, r := range results {
		if r.OK() {
			outcome.Successes = append(outcome.Successes, r)
		} else {
			outcome.Failures = append(outcome.Failures, r)
		}
	}
	return outcome
}

// Mode selects how a batch is persisted.
type Mode string

const (
	// ModeArchive packs all successes into one zip archive.
	ModeArchive Mode = "archive"

	// ModeFiles saves each success as its own file.
	ModeFiles Mode = "files"
)

// SavedItem is a successfully persisted request.
type SavedItem struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// FailedItem is a request that could not be fetched or saved.
type FailedItem struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Err  error  `json:"-"`
}

// Report summarizes a finished batch.
type Report struct {
	BatchID   string       `json:"batch_id"`
	Mode      Mode         `json:"mode"`
	Successes []SavedItem  `json:"successes"`
	Failures  []FailedItem `json:"failures"`

	// Archive is the saved archive path in ModeArchive.
	Archive string `json:"archive,omitempty"`
}
