// Package metrics provides the counters recorded by the importer and the http api
package metrics

import (
	"context"
	"fmt"
	"github.com/leighmacdonald/tindex/util"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Metric names
const (
	ImportAttempted = "import_attempted"
	ImportUpdated   = "import_updated"
	ImportSkipped   = "import_skipped"
	ImportFailed    = "import_failed"
	ImportRuns      = "import_runs"
	ImportLookup    = "import_lookup"
	APIRequests     = "api_ok"
	APIRequestsFail = "api_err"
)

// Importer holds the counters updated while importing torrent statistics
type Importer struct {
	Attempted metrics.Counter
	Updated   metrics.Counter
	Skipped   metrics.Counter
	Failed    metrics.Counter
	Runs      metrics.Counter
	// Lookup times each tracker torrent info request
	Lookup metrics.Timer
}

// NewImporter registers the importer metrics with the registry. Metrics already present
// in the registry are reused.
func NewImporter(registry metrics.Registry) *Importer {
	return &Importer{
		Attempted: metrics.GetOrRegisterCounter(ImportAttempted, registry),
		Updated:   metrics.GetOrRegisterCounter(ImportUpdated, registry),
		Skipped:   metrics.GetOrRegisterCounter(ImportSkipped, registry),
		Failed:    metrics.GetOrRegisterCounter(ImportFailed, registry),
		Runs:      metrics.GetOrRegisterCounter(ImportRuns, registry),
		Lookup:    metrics.GetOrRegisterTimer(ImportLookup, registry),
	}
}

// API holds the counters updated by the http api
type API struct {
	Requests     metrics.Counter
	RequestsFail metrics.Counter
}

// NewAPI registers the api metrics with the registry
func NewAPI(registry metrics.Registry) *API {
	return &API{
		Requests:     metrics.GetOrRegisterCounter(APIRequests, registry),
		RequestsFail: metrics.GetOrRegisterCounter(APIRequestsFail, registry),
	}
}

// Stats is a point in time snapshot of the registry
type Stats struct {
	GoRoutines int
	MemAlloc   uint64
	Counters   map[string]int64
	// Timers holds the mean duration of each timer
	Timers map[string]time.Duration
}

// Get takes a snapshot of the registry along with some basic runtime stats
func Get(registry metrics.Registry) Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	s := Stats{
		GoRoutines: runtime.NumGoroutine(),
		MemAlloc:   mem.Alloc,
		Counters:   make(map[string]int64),
		Timers:     make(map[string]time.Duration),
	}
	registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			s.Counters[name] = m.Count()
		case metrics.Timer:
			s.Timers[name] = time.Duration(m.Snapshot().Mean())
		}
	})
	return s
}

// String returns a single log friendly line
func (s Stats) String() string {
	var names []string
	for name := range s.Counters {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "goroutines: %d mem_alloc: %s", s.GoRoutines, util.IBytes(s.MemAlloc))
	for _, name := range names {
		_, _ = fmt.Fprintf(&b, " %s: %d", name, s.Counters[name])
	}
	names = names[:0]
	for name := range s.Timers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(&b, " %s_mean: %s", name, s.Timers[name])
	}
	return b.String()
}

// LogEvery periodically logs a snapshot of the registry until the context is cancelled
func LogEvery(ctx context.Context, registry metrics.Registry, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			log.Infof("Stats: %s", Get(registry))
		case <-ctx.Done():
			return
		}
	}
}
