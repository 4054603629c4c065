package metrics

import (
	"context"
	"github.com/fortytw2/leaktest"
	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
	"os"
	"strings"
	"testing"
	"time"
)

func TestStats_String(t *testing.T) {
	r := metrics.NewRegistry()
	m := NewImporter(r)
	m.Attempted.Inc(3)
	m.Updated.Inc(2)
	m.Lookup.Update(time.Millisecond)
	s := Get(r)
	require.Greater(t, s.GoRoutines, 0)
	require.Equal(t, int64(3), s.Counters[ImportAttempted])
	require.Equal(t, int64(2), s.Counters[ImportUpdated])
	require.Equal(t, time.Millisecond, s.Timers[ImportLookup])
	line := s.String()
	require.True(t, strings.Contains(line, "import_attempted: 3"))
	require.True(t, strings.Contains(line, "import_lookup_mean: 1ms"))
}

func TestNewImporter_Reuse(t *testing.T) {
	r := metrics.NewRegistry()
	NewImporter(r).Failed.Inc(1)
	require.Equal(t, int64(1), NewImporter(r).Failed.Count())
	api := NewAPI(r)
	api.Requests.Inc(5)
	require.Equal(t, int64(5), Get(r).Counters[APIRequests])
}

func TestLogEvery(t *testing.T) {
	defer leaktest.Check(t)()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		LogEvery(ctx, metrics.NewRegistry(), 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done
}

func TestMain(m *testing.M) {
	// go-metrics meters share one ticker goroutine that runs for the life of the process,
	// start it before any leak check takes its snapshot
	metrics.NewMeter().Stop()
	os.Exit(m.Run())
}
