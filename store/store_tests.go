package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/leighmacdonald/tindex/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	mrand "math/rand"
	"sort"
	"testing"
	"time"
)

// GenerateTestInfoHash returns a random hex encoded info hash. Used for testing.
func GenerateTestInfoHash() string {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		panic("Failed to generate info_hash")
	}
	return hex.EncodeToString(b)
}

// GenerateTestKey creates a tracker key valid for the duration provided. Used for testing.
func GenerateTestKey(validFor time.Duration) model.TrackerKey {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("Failed to generate key")
	}
	return model.TrackerKey{
		Key:        hex.EncodeToString(b),
		ValidUntil: time.Now().Add(validFor).Unix(),
	}
}

// TestStore tests a driver for conformance to the Store interface
func TestStore(t *testing.T, s Store) {
	ctx := context.Background()
	userID := int64(mrand.Intn(1000000) + 1)

	_, errNoKey := s.TrackerKeyGet(ctx, userID)
	require.True(t, errors.Is(errNoKey, consts.ErrNoTrackerKey), "[%s] expected no key", s.Name())

	older := GenerateTestKey(time.Hour)
	newer := GenerateTestKey(2 * time.Hour)
	require.NoError(t, s.TrackerKeyAdd(ctx, userID, older))
	require.NoError(t, s.TrackerKeyAdd(ctx, userID, newer))
	fetched, err := s.TrackerKeyGet(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, newer, fetched, "[%s] expected most recent key", s.Name())

	var hashes []string
	for i := 0; i < 7; i++ {
		ih := GenerateTestInfoHash()
		hashes = append(hashes, ih)
		require.NoError(t, s.TorrentAdd(ctx, ih))
	}
	require.True(t, errors.Is(s.TorrentAdd(ctx, hashes[0]), consts.ErrDuplicate), "[%s] expected duplicate", s.Name())
	sort.Strings(hashes)

	// Walk the catalog in pages, the store may contain torrents from other tests
	var seen []string
	after := ""
	for {
		page, err := s.TorrentInfoHashes(ctx, after, 3)
		require.NoError(t, err)
		require.LessOrEqual(t, len(page), 3)
		if len(page) == 0 {
			break
		}
		require.True(t, sort.StringsAreSorted(page))
		if after != "" {
			require.Greater(t, page[0], after)
		}
		seen = append(seen, page...)
		after = page[len(page)-1]
	}
	present := map[string]bool{}
	for _, ih := range seen {
		require.False(t, present[ih], "[%s] info_hash returned twice: %s", s.Name(), ih)
		present[ih] = true
	}
	for _, ih := range hashes {
		require.True(t, present[ih], "[%s] info_hash missing: %s", s.Name(), ih)
	}

	stats := model.TorrentStats{Seeders: 5, Leechers: 2, Completed: 10}
	require.NoError(t, s.TorrentStatsUpdate(ctx, hashes[0], stats))
	fetchedStats, err := s.TorrentStats(ctx, hashes[0])
	require.NoError(t, err)
	require.Equal(t, stats, fetchedStats)

	// Overwrite, not accumulate
	stats2 := model.TorrentStats{Seeders: 1, Leechers: 0, Completed: 11}
	require.NoError(t, s.TorrentStatsUpdate(ctx, hashes[0], stats2))
	fetchedStats2, err := s.TorrentStats(ctx, hashes[0])
	require.NoError(t, err)
	require.Equal(t, stats2, fetchedStats2)

	untouched, err := s.TorrentStats(ctx, hashes[1])
	require.NoError(t, err)
	require.Equal(t, model.TorrentStats{}, untouched)

	_, errUnknown := s.TorrentStats(ctx, GenerateTestInfoHash())
	require.True(t, errors.Is(errUnknown, consts.ErrInvalidInfoHash))
	require.True(t, errors.Is(s.TorrentStatsUpdate(ctx, GenerateTestInfoHash(), stats), consts.ErrInvalidInfoHash))
}
