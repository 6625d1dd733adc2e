package download

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/handiism/bulk-downloader/internal/archive"
	"github.com/handiism/bulk-downloader/internal/http"
	ioutils "github.com/handiism/bulk-downloader/internal/io"
	"github.com/handiism/bulk-downloader/internal/logging"
	"github.com/handiism/bulk-downloader/internal/model"
	"github.com/handiism/bulk-downloader/internal/notify"
	"github.com/handiism/bulk-downloader/internal/save"
	"github.com/rs/zerolog"
)

const (
	// DefaultArchiveConcurrency is the fetch concurrency of archive batches.
	DefaultArchiveConcurrency = 4

	// DefaultFilesConcurrency is the fetch concurrency of direct-save batches.
	DefaultFilesConcurrency = 2

	// DefaultSaveTimeout bounds a single save action.
	DefaultSaveTimeout = 2 * time.Minute
)

// Config holds batch settings. Zero values are replaced by defaults when the
// Downloader is constructed.
type Config struct {
	// Concurrency caps in-flight fetches. Zero uses the mode default.
	Concurrency int

	// SaveAs never overwrites existing files; a free "name (n)" is chosen.
	SaveAs bool

	// Timeout bounds each request attempt.
	Timeout time.Duration

	// Request shapes every request of the batch.
	Request http.RequestOptions

	PrefixMode PrefixMode
	Strategy   Strategy

	Retries           int
	RetryCooldown     time.Duration
	RetryExponent     float64
	RequestsPerSecond float64

	// ArchiveFolder, when set, is the top-level folder inside archives.
	ArchiveFolder string

	// OutputDir is where the default saver writes.
	OutputDir string

	// SaveTimeout bounds each save action. Negative disables the guard.
	SaveTimeout time.Duration
}

// DefaultConfig returns the default batch configuration.
func DefaultConfig() Config {
	httpCfg := http.DefaultConfig()
	return Config{
		Timeout:       httpCfg.Timeout,
		PrefixMode:    PrefixNone,
		Strategy:      StrategyAuto,
		RetryCooldown: httpCfg.RetryCooldown,
		RetryExponent: httpCfg.RetryExponent,
		OutputDir:     ".",
		SaveTimeout:   DefaultSaveTimeout,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.PrefixMode == "" {
		c.PrefixMode = def.PrefixMode
	}
	if c.Strategy == "" {
		c.Strategy = def.Strategy
	}
	if c.RetryCooldown <= 0 {
		c.RetryCooldown = def.RetryCooldown
	}
	if c.RetryExponent <= 0 {
		c.RetryExponent = def.RetryExponent
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.SaveTimeout == 0 {
		c.SaveTimeout = def.SaveTimeout
	}
	return c
}

func (c Config) concurrency(mode model.Mode) int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	if mode == model.ModeFiles {
		return DefaultFilesConcurrency
	}
	return DefaultArchiveConcurrency
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithSaver sets the save destination. The default is a DiskSaver on
// Config.OutputDir.
func WithSaver(saver save.Saver) Option {
	return func(d *Downloader) { d.saver = saver }
}

// WithNotifier sets where batch notifications go. The default logs them.
func WithNotifier(n notify.Notifier) Option {
	return func(d *Downloader) { d.notifier = n }
}

// WithHTTPClient sets the HTTP client used for fetching.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) { d.client = client }
}

// WithLogger sets the base logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Downloader) { d.logger = logger }
}

// WithProgress sets the batch progress callback. It receives 0% when
// fetching starts, one snapshot per finished item, and 100% at the end.
func WithProgress(fn func(model.Progress)) Option {
	return func(d *Downloader) { d.onProgress = fn }
}

// WithEvents sets the callback for stage changes and per-item messages.
func WithEvents(fn func(ProgressEvent)) Option {
	return func(d *Downloader) { d.onEvent = fn }
}

// WithPackProgress sets the callback for archive packing progress (0-100).
func WithPackProgress(fn func(percent int)) Option {
	return func(d *Downloader) { d.onPack = fn }
}

// Downloader runs download batches.
//
// A Downloader holds no per-batch state and may run several batches
// concurrently.
type Downloader struct {
	config    Config
	client    *http.Client
	saver     save.Saver
	persister *save.Persister
	archiver  *archive.Archiver
	notifier  notify.Notifier
	logger    zerolog.Logger

	onProgress func(model.Progress)
	onEvent    func(ProgressEvent)
	onPack     func(percent int)
}

// NewDownloader creates a Downloader.
func NewDownloader(cfg Config, opts ...Option) *Downloader {
	cfg = cfg.withDefaults()

	d := &Downloader{
		config:   cfg,
		archiver: archive.NewArchiver(),
		logger:   logging.NewLogger("download"),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.client == nil {
		d.client = http.NewClient(http.Config{
			Timeout:           cfg.Timeout,
			Retries:           cfg.Retries,
			RetryCooldown:     cfg.RetryCooldown,
			RetryExponent:     cfg.RetryExponent,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	}
	if d.saver == nil {
		d.saver = save.NewDiskSaver(cfg.OutputDir, cfg.SaveAs, d.client)
	}
	if d.notifier == nil {
		d.notifier = notify.NewLogNotifier()
	}

	saveTimeout := cfg.SaveTimeout
	if saveTimeout < 0 {
		saveTimeout = 0
	}
	d.persister = save.NewPersister(d.saver, saveTimeout)

	return d
}

// Config returns the resolved configuration.
func (d *Downloader) Config() Config {
	return d.config
}

// DownloadArchive fetches every request, packs the successes into one zip
// archive and saves it once under name (".zip" is appended when missing).
//
// The batch fails with ErrInvalidInput for an empty or malformed list, with
// ErrAllFailed when nothing could be fetched, with *archive.ArchiveError when
// packing fails and with *save.SaveError when the archive cannot be saved.
// Every outcome produces exactly one notification.
func (d *Downloader) DownloadArchive(ctx context.Context, reqs []model.Request, name string) (*model.Report, error) {
	b := d.newBatch(model.ModeArchive)

	reqs, err := b.normalize(reqs)
	if err != nil {
		return b.report, err
	}

	archiveName := archive.FileName(name)
	b.logger.Info().
		Int("requests", len(reqs)).
		Str("archive", archiveName).
		Msg("Starting archive batch")

	b.setStage(model.StageFetching)
	fetcher := NewFetcher(d.client, d.config.Request, b.logger)
	b.progress(0, len(reqs))

	outcomes := MapWithConcurrency(ctx, reqs, d.config.concurrency(model.ModeArchive),
		func(ctx context.Context, req model.Request, index int) (model.FetchResult, error) {
			result := fetcher.Fetch(ctx, req, index, true)
			return result, result.Err
		},
		b.itemDone,
	)

	b.setStage(model.StageAggregating)
	outcome := model.Partition(fetchResults(reqs, outcomes))
	b.recordFailures(outcome.Failures)
	if len(outcome.Successes) == 0 {
		return b.fail(ErrAllFailed, "all downloads failed")
	}

	b.setStage(model.StagePackaging)
	names := make([]string, len(outcome.Successes))
	for i, success := range outcome.Successes {
		names[i] = b.prefixed(success.FileName, success.Index, len(reqs))
	}
	names = ioutils.UniqueFileNames(names)

	entries := make([]archive.Entry, len(outcome.Successes))
	for i, success := range outcome.Successes {
		entries[i] = archive.Entry{Name: names[i], Data: success.Data}
	}

	data, err := d.archiver.Pack(ctx, entries, archive.Options{Folder: d.config.ArchiveFolder}, d.onPack)
	if err != nil {
		return b.fail(err, fmt.Sprintf("archive failed: %v", err))
	}
	archiveSize.Observe(float64(len(data)))

	b.setStage(model.StageSaving)
	path, err := d.persister.Save(ctx, archiveName, data)
	savesTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return b.fail(err, fmt.Sprintf("saving %s failed: %v", archiveName, err))
	}

	b.report.Archive = path
	for i, success := range outcome.Successes {
		b.report.Successes = append(b.report.Successes, model.SavedItem{URL: success.URL, Name: names[i]})
	}

	return b.succeed()
}

// DownloadFiles saves every request as its own file.
//
// Each success is saved inside the fetch pool, so saves overlap with other
// fetches. Names are reserved in a batch-wide table as items complete; with
// concurrency above 1 the "(n)" suffixes therefore follow completion order.
// A failed save counts as a failed item. The batch fails only for invalid
// input or when no item was saved.
func (d *Downloader) DownloadFiles(ctx context.Context, reqs []model.Request) (*model.Report, error) {
	b := d.newBatch(model.ModeFiles)

	reqs, err := b.normalize(reqs)
	if err != nil {
		return b.report, err
	}

	b.logger.Info().
		Int("requests", len(reqs)).
		Str("strategy", string(d.config.Strategy)).
		Msg("Starting files batch")

	b.setStage(model.StageFetching)
	job := &filesJob{
		d:       d,
		b:       b,
		fetcher: NewFetcher(d.client, d.config.Request, b.logger),
		names:   ioutils.NewNameTable(),
		total:   len(reqs),
	}
	b.progress(0, len(reqs))

	outcomes := MapWithConcurrency(ctx, reqs, d.config.concurrency(model.ModeFiles), job.run, b.itemDone)

	b.setStage(model.StageAggregating)
	var failures []model.FetchResult
	for i, outcome := range outcomes {
		if outcome.OK {
			b.report.Successes = append(b.report.Successes, model.SavedItem{URL: reqs[i].URL, Name: outcome.Val})
			continue
		}
		name := outcome.Val
		if name == "" {
			name = ResolveFileName(reqs[i].FileName, "", reqs[i].URL, i, true)
		}
		failures = append(failures, model.FetchResult{Index: i, URL: reqs[i].URL, FileName: name, Err: outcome.Err})
	}
	b.recordFailures(failures)

	if len(b.report.Successes) == 0 {
		return b.fail(ErrAllFailed, "all downloads failed")
	}

	b.setStage(model.StageSaving)
	return b.succeed()
}

// filesJob saves one request in direct-save mode.
type filesJob struct {
	d       *Downloader
	b       *batch
	fetcher *Fetcher

	mu    sync.Mutex
	names *ioutils.NameTable
	total int
}

func (j *filesJob) reserve(name string, index int) string {
	name = j.b.prefixed(name, index, j.total)
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.names.Reserve(name)
}

func (j *filesJob) release(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.names.Release(name)
}

// run returns the saved name of the item, or on failure the name it was
// given so far. Names are reserved only once the response announced its
// own name, so a failed direct attempt reserves nothing.
func (j *filesJob) run(ctx context.Context, req model.Request, index int) (string, error) {
	strategy := j.d.strategyFor()

	var name string
	if strategy != StrategyIntercepted {
		// The saver calls back from its own goroutine.
		var (
			mu       sync.Mutex
			reserved string
		)
		path, err := j.d.persister.SaveURL(ctx, req.URL, func(announced string) string {
			mu.Lock()
			defer mu.Unlock()
			if reserved == "" {
				reserved = j.reserve(ResolveFileName(req.FileName, announced, req.URL, index, true), index)
			}
			return reserved
		}, j.d.config.Request)
		savesTotal.WithLabelValues(resultLabel(err)).Inc()

		mu.Lock()
		name = reserved
		mu.Unlock()
		if err == nil {
			return savedName(path, name), nil
		}
		if strategy == StrategyDirect || ctx.Err() != nil {
			if name == "" {
				name = j.b.prefixed(ResolveFileName(req.FileName, "", req.URL, index, true), index, j.total)
			}
			return name, err
		}
		j.b.logger.Debug().
			Err(err).
			Str("url", req.URL).
			Msg("Direct save failed, falling back to intercepted fetch")
		if name != "" {
			j.release(name)
		}
	}

	result := j.fetcher.Fetch(ctx, req, index, true)
	if result.Err != nil {
		return j.b.prefixed(result.FileName, index, j.total), result.Err
	}

	name = j.reserve(result.FileName, index)
	path, err := j.d.persister.Save(ctx, name, result.Data)
	savesTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return name, err
	}
	return savedName(path, name), nil
}

// savedName is the file name of a saved path, or name when the saver
// reported no path.
func savedName(path, name string) string {
	if path == "" {
		return name
	}
	return filepath.Base(path)
}

// strategyFor resolves the retrieval strategy of direct-save mode.
func (d *Downloader) strategyFor() Strategy {
	if !d.persister.SupportsURL() {
		return StrategyIntercepted
	}
	switch d.config.Strategy {
	case StrategyDirect, StrategyIntercepted:
		return d.config.Strategy
	}
	if d.config.Request.IsShaped() {
		return StrategyIntercepted
	}
	return StrategyAuto
}

// batch is the state of one running batch.
type batch struct {
	d        *Downloader
	report   *model.Report
	logger   zerolog.Logger
	stage    model.Stage
	started  time.Time
	lastDone int
}

func (d *Downloader) newBatch(mode model.Mode) *batch {
	id := uuid.NewString()
	return &batch{
		d:       d,
		report:  &model.Report{BatchID: id, Mode: mode},
		logger:  d.logger.With().Str("batch_id", id).Str("mode", string(mode)).Logger(),
		stage:   model.StageIdle,
		started: time.Now(),
	}
}

func (b *batch) normalize(reqs []model.Request) ([]model.Request, error) {
	b.setStage(model.StageNormalizing)
	normalized, err := model.Normalize(reqs)
	if err != nil {
		_, err = b.fail(fmt.Errorf("%w: %w", ErrInvalidInput, err), err.Error())
		return nil, err
	}
	return normalized, nil
}

func (b *batch) setStage(stage model.Stage) {
	b.stage = stage
	b.logger.Debug().Str("stage", stage.String()).Msg("Stage changed")
	b.event(ProgressEvent{Message: stage.String(), Level: LevelVerbose, Stage: stage})
}

func (b *batch) event(event ProgressEvent) {
	if b.d.onEvent != nil {
		b.d.onEvent(event)
	}
}

func (b *batch) progress(done, total int) {
	b.lastDone = done
	if b.d.onProgress != nil {
		b.d.onProgress(model.NewProgress(done, total))
	}
}

// itemDone is the pool completion callback; calls are serialized.
func (b *batch) itemDone(done, total int) {
	b.progress(done, total)
}

func (b *batch) prefixed(name string, index, total int) string {
	if b.d.config.PrefixMode != PrefixPrepend {
		return name
	}
	return ioutils.PrefixIndex(name, index, total)
}

func (b *batch) recordFailures(failures []model.FetchResult) {
	for _, f := range failures {
		b.report.Failures = append(b.report.Failures, model.FailedItem{URL: f.URL, Name: f.FileName, Err: f.Err})
		b.logger.Warn().
			Err(f.Err).
			Str("url", f.URL).
			Int("index", f.Index).
			Msg("Item failed")
		b.event(ProgressEvent{Message: fmt.Sprintf("Failed %s: %v", f.URL, f.Err), Level: LevelWarning, Stage: b.stage})
	}
}

func (b *batch) fail(err error, msg string) (*model.Report, error) {
	b.setStage(model.StageFailed)
	batchesTotal.WithLabelValues(string(b.report.Mode), "failure").Inc()

	b.logger.Error().
		Err(err).
		Int("successes", len(b.report.Successes)).
		Int("failures", len(b.report.Failures)).
		Dur("duration", time.Since(b.started)).
		Msg("Batch failed")

	b.d.notifier.Error(msg)
	b.event(ProgressEvent{Message: msg, Level: LevelError, Stage: model.StageFailed})
	return b.report, err
}

func (b *batch) succeed() (*model.Report, error) {
	total := len(b.report.Successes) + len(b.report.Failures)
	if b.lastDone != total {
		b.progress(total, total)
	}

	b.setStage(model.StageDone)
	batchesTotal.WithLabelValues(string(b.report.Mode), "success").Inc()

	msg := notify.Summary(len(b.report.Successes), len(b.report.Failures))
	b.logger.Info().
		Int("successes", len(b.report.Successes)).
		Int("failures", len(b.report.Failures)).
		Str("archive", b.report.Archive).
		Dur("duration", time.Since(b.started)).
		Msg("Batch completed")

	b.d.notifier.Success(msg)
	b.event(ProgressEvent{Message: msg, Level: LevelSuccess, Stage: model.StageDone})
	return b.report, nil
}

// fetchResults turns pool outcomes into fetch results. Items that failed
// before the worker ran (cancellation, panic) get a result built from their
// request.
func fetchResults(reqs []model.Request, outcomes []Outcome[model.FetchResult]) []model.FetchResult {
	results := make([]model.FetchResult, len(outcomes))
	for i, outcome := range outcomes {
		result := outcome.Val
		if result.URL == "" {
			result = model.FetchResult{
				URL:      reqs[i].URL,
				FileName: ResolveFileName(reqs[i].FileName, "", reqs[i].URL, i, true),
			}
		}
		result.Index = i
		if !outcome.OK {
			result.Data = nil
			if result.Err == nil {
				result.Err = outcome.Err
			}
		}
		results[i] = result
	}
	return results
}
