// Package memory provides a non persistent store, suitable for testing and single process
// deployments
package memory

import (
	"context"
	"github.com/leighmacdonald/tindex/config"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/leighmacdonald/tindex/model"
	"github.com/leighmacdonald/tindex/store"
	"sort"
	"sync"
)

const (
	driverName = "memory"
)

// Driver is the memory backed store.Store implementation
type Driver struct {
	keys       map[int64]model.TrackerKey
	torrents   map[string]model.TorrentStats
	keysMu     *sync.RWMutex
	torrentsMu *sync.RWMutex
}

// NewDriver instantiates a new in-memory store
func NewDriver() *Driver {
	return &Driver{
		keys:       make(map[int64]model.TrackerKey),
		torrents:   make(map[string]model.TorrentStats),
		keysMu:     &sync.RWMutex{},
		torrentsMu: &sync.RWMutex{},
	}
}

// Name returns the driver name
func (d *Driver) Name() string {
	return driverName
}

// TrackerKeyGet returns the last key added for the user
func (d *Driver) TrackerKeyGet(_ context.Context, userID int64) (model.TrackerKey, error) {
	d.keysMu.RLock()
	defer d.keysMu.RUnlock()
	k, found := d.keys[userID]
	if !found {
		return model.TrackerKey{}, consts.ErrNoTrackerKey
	}
	return k, nil
}

// TrackerKeyAdd stores a new key for the user, replacing the previous one
func (d *Driver) TrackerKeyAdd(_ context.Context, userID int64, key model.TrackerKey) error {
	d.keysMu.Lock()
	d.keys[userID] = key
	d.keysMu.Unlock()
	return nil
}

// TorrentAdd adds a new torrent to the memory store
func (d *Driver) TorrentAdd(_ context.Context, infoHash string) error {
	d.torrentsMu.Lock()
	defer d.torrentsMu.Unlock()
	if _, found := d.torrents[infoHash]; found {
		return consts.ErrDuplicate
	}
	d.torrents[infoHash] = model.TorrentStats{}
	return nil
}

// TorrentInfoHashes returns the next page of info hashes after the one provided
func (d *Driver) TorrentInfoHashes(_ context.Context, after string, limit int) ([]string, error) {
	d.torrentsMu.RLock()
	var hashes []string
	for ih := range d.torrents {
		if ih > after {
			hashes = append(hashes, ih)
		}
	}
	d.torrentsMu.RUnlock()
	sort.Strings(hashes)
	if len(hashes) > limit {
		hashes = hashes[:limit]
	}
	return hashes, nil
}

// TorrentStatsUpdate overwrites the stored counters of the torrent
func (d *Driver) TorrentStatsUpdate(_ context.Context, infoHash string, stats model.TorrentStats) error {
	d.torrentsMu.Lock()
	defer d.torrentsMu.Unlock()
	if _, found := d.torrents[infoHash]; !found {
		// Deleted torrent before the update occurred
		return consts.ErrInvalidInfoHash
	}
	d.torrents[infoHash] = stats
	return nil
}

// TorrentStats returns the stored counters of the torrent
func (d *Driver) TorrentStats(_ context.Context, infoHash string) (model.TorrentStats, error) {
	d.torrentsMu.RLock()
	defer d.torrentsMu.RUnlock()
	stats, found := d.torrents[infoHash]
	if !found {
		return model.TorrentStats{}, consts.ErrInvalidInfoHash
	}
	return stats, nil
}

// Close is a noop for the memory store
func (d *Driver) Close() error {
	return nil
}

type driver struct{}

// New creates a new memory backed store
func (driver) New(_ config.StoreConfig) (store.Store, error) {
	return NewDriver(), nil
}

func init() {
	store.AddDriver(driverName, driver{})
}
