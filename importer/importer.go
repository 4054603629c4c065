// Package importer refreshes the stored seeder, leecher and completed counters of every
// torrent in the index from the live tracker state.
//
// A pass walks the torrent catalog page by page and looks up each torrent on the tracker
// with a bounded number of lookups in flight. Each torrent is an independent unit of work:
// a failed lookup or write is logged and counted, it never aborts the pass. Only a
// catalog page that cannot be read, or cancellation of the context, ends a pass early.
package importer

import (
	"context"
	"fmt"
	"github.com/cenkalti/backoff/v3"
	"github.com/juju/ratelimit"
	"github.com/leighmacdonald/tindex/consts"
	imetrics "github.com/leighmacdonald/tindex/metrics"
	"github.com/leighmacdonald/tindex/model"
	"github.com/leighmacdonald/tindex/store"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"sync"
	"time"
)

const (
	defaultPageRetries   = 3
	defaultRetryInterval = 500 * time.Millisecond
)

// InfoFetcher looks up the live state of a torrent. *tracker.Service satisfies it.
type InfoFetcher interface {
	TorrentInfo(ctx context.Context, infoHash string) (model.TorrentInfo, error)
}

// Opts configures an Importer
type Opts struct {
	// Concurrency is the maximum number of tracker lookups in flight
	Concurrency int
	// PageSize is the number of info hashes read from the store at a time
	PageSize int
	// RateLimit caps lookups per second, 0 disables the limit
	RateLimit float64
	// Registry receives the importer metrics, a private registry is used when nil
	Registry metrics.Registry
	// PageRetries is the number of times a failed catalog page read is retried
	PageRetries uint64
	// RetryInterval is the initial backoff between page read attempts
	RetryInterval time.Duration
}

// Outcome is the result of importing a single torrent
type Outcome int

// Import outcomes
const (
	Updated Outcome = iota
	NotFoundOnTracker
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case NotFoundOnTracker:
		return "not_found"
	default:
		return "failed"
	}
}

// Summary counts the outcomes of a pass. Attempted always equals
// Updated + Skipped + Failed once the pass has returned.
type Summary struct {
	Attempted int `json:"attempted"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (s Summary) String() string {
	return fmt.Sprintf("attempted: %d updated: %d skipped: %d failed: %d",
		s.Attempted, s.Updated, s.Skipped, s.Failed)
}

func (s *Summary) add(o Outcome) {
	s.Attempted++
	switch o {
	case Updated:
		s.Updated++
	case NotFoundOnTracker:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Importer runs statistics import passes. Passes must not overlap, see RunEvery.
type Importer struct {
	fetcher InfoFetcher
	db      store.TorrentStatsStore
	opts    Opts
	bucket  *ratelimit.Bucket
	metrics *imetrics.Importer
}

// New validates the options and returns a ready to use Importer
func New(fetcher InfoFetcher, db store.TorrentStatsStore, opts Opts) (*Importer, error) {
	if opts.Concurrency <= 0 {
		return nil, errors.Wrapf(consts.ErrInvalidConfig, "concurrency must be positive: %d", opts.Concurrency)
	}
	if opts.PageSize <= 0 {
		return nil, errors.Wrapf(consts.ErrInvalidConfig, "page size must be positive: %d", opts.PageSize)
	}
	if opts.RateLimit < 0 {
		return nil, errors.Wrapf(consts.ErrInvalidConfig, "rate limit cannot be negative: %f", opts.RateLimit)
	}
	if opts.Registry == nil {
		opts.Registry = metrics.NewRegistry()
	}
	if opts.PageRetries == 0 {
		opts.PageRetries = defaultPageRetries
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	im := &Importer{
		fetcher: fetcher,
		db:      db,
		opts:    opts,
		metrics: imetrics.NewImporter(opts.Registry),
	}
	if opts.RateLimit > 0 {
		capacity := int64(opts.RateLimit)
		if capacity < 1 {
			capacity = 1
		}
		im.bucket = ratelimit.NewBucketWithRate(opts.RateLimit, capacity)
	}
	return im, nil
}

// Run performs a single pass over the catalog. The returned error is non nil only when
// the pass was aborted, in which case the summary covers the torrents attempted so far.
func (im *Importer) Run(ctx context.Context) (Summary, error) {
	var (
		summary Summary
		mu      sync.Mutex
		wg      sync.WaitGroup
		runErr  error
		after   string
		sem     = semaphore.NewWeighted(int64(im.opts.Concurrency))
		start   = time.Now()
	)
	im.metrics.Runs.Inc(1)
	log.Infof("Starting statistics import")
pages:
	for {
		page, err := im.page(ctx, after)
		if err != nil {
			runErr = err
			break
		}
		for _, infoHash := range page {
			if err := im.wait(ctx, sem); err != nil {
				runErr = err
				break pages
			}
			wg.Add(1)
			go func(ih string) {
				defer wg.Done()
				defer sem.Release(1)
				outcome := im.importOne(ctx, ih)
				mu.Lock()
				summary.add(outcome)
				mu.Unlock()
			}(infoHash)
		}
		if len(page) < im.opts.PageSize {
			break
		}
		after = page[len(page)-1]
	}
	wg.Wait()
	if runErr != nil {
		log.Errorf("Statistics import aborted after %s: %v (%s)", time.Since(start), runErr, summary)
		return summary, runErr
	}
	log.Infof("Statistics import completed in %s: %s", time.Since(start), summary)
	return summary, nil
}

// RunEvery runs passes back to back, sleeping interval between the end of one pass and
// the start of the next, until the context is cancelled. Failed passes are logged and
// retried on the next tick.
func (im *Importer) RunEvery(ctx context.Context, interval time.Duration) {
	for {
		if _, err := im.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("Statistics import pass failed: %v", err)
		}
		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// wait blocks until a lookup may be dispatched
func (im *Importer) wait(ctx context.Context, sem *semaphore.Weighted) error {
	// Acquire succeeds on a cancelled context when a slot is free
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if im.bucket == nil {
		return nil
	}
	d := im.bucket.Take(1)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		sem.Release(1)
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// page reads the next catalog page, retrying with exponential backoff
func (im *Importer) page(ctx context.Context, after string) ([]string, error) {
	var page []string
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = im.opts.RetryInterval
	op := func() error {
		var err error
		page, err = im.db.TorrentInfoHashes(ctx, after, im.opts.PageSize)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		log.Warnf("Failed to read torrent page after %q, retrying in %s: %v", after, next, err)
	}
	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, im.opts.PageRetries), ctx), notify)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(consts.ErrDatabase, err.Error())
	}
	return page, nil
}

// importOne looks up a single torrent and stores its counters
func (im *Importer) importOne(ctx context.Context, infoHash string) Outcome {
	im.metrics.Attempted.Inc(1)
	start := time.Now()
	info, err := im.fetcher.TorrentInfo(ctx, infoHash)
	im.metrics.Lookup.UpdateSince(start)
	if err != nil {
		if errors.Is(err, consts.ErrTorrentNotFound) {
			log.WithField("info_hash", infoHash).Debugf("Torrent not known by tracker, skipping")
			im.metrics.Skipped.Inc(1)
			return NotFoundOnTracker
		}
		log.WithField("info_hash", infoHash).Errorf("Failed to fetch torrent info: %v", err)
		im.metrics.Failed.Inc(1)
		return Failed
	}
	if err := im.db.TorrentStatsUpdate(ctx, infoHash, info.Stats()); err != nil {
		log.WithField("info_hash", infoHash).Errorf("Failed to store torrent stats: %v", err)
		im.metrics.Failed.Inc(1)
		return Failed
	}
	im.metrics.Updated.Inc(1)
	return Updated
}
