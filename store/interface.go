// Package store provides the persistence capability used by the tracker service and the
// statistics importer, along with the glue for the backend storage drivers.
//
// Drivers register themselves on import, eg:
//
//	import _ "github.com/leighmacdonald/tindex/store/mysql"
package store

import (
	"context"
	"github.com/leighmacdonald/tindex/config"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/leighmacdonald/tindex/model"
	log "github.com/sirupsen/logrus"
	"sort"
	"sync"
)

var (
	driversMu = sync.RWMutex{}
	drivers   = make(map[string]Driver)
)

// Driver creates a Store from a store config
type Driver interface {
	New(cfg config.StoreConfig) (Store, error)
}

// AddDriver registers a store driver under the name used by the store_type config value
func AddDriver(name string, driver Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = driver
	log.Debugf("Registered storage driver: %s", name)
}

// Drivers returns the names of the registered drivers
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	var names []string
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New opens a store using the driver named by cfg.Type
func New(cfg config.StoreConfig) (Store, error) {
	driversMu.RLock()
	driver, found := drivers[cfg.Type]
	driversMu.RUnlock()
	if !found {
		return nil, consts.ErrInvalidDriver
	}
	return driver.New(cfg)
}

// TrackerKeyStore is the key cache used when building personal announce urls
type TrackerKeyStore interface {
	// TrackerKeyGet returns the most recently issued key for the user, or
	// consts.ErrNoTrackerKey if there is none
	TrackerKeyGet(ctx context.Context, userID int64) (model.TrackerKey, error)
	// TrackerKeyAdd stores a newly issued key for the user. Existing keys are never
	// modified.
	TrackerKeyAdd(ctx context.Context, userID int64, key model.TrackerKey) error
}

// TorrentStatsStore is what the statistics importer needs from the backing store
type TorrentStatsStore interface {
	// TorrentInfoHashes returns up to limit info hashes strictly greater than after,
	// in ascending order. Passing an empty after starts at the beginning.
	TorrentInfoHashes(ctx context.Context, after string, limit int) ([]string, error)
	// TorrentStatsUpdate overwrites the tracker counters of a single torrent
	TorrentStatsUpdate(ctx context.Context, infoHash string, stats model.TorrentStats) error
}

// Store is the full persistence capability implemented by every driver
type Store interface {
	TrackerKeyStore
	TorrentStatsStore
	// TorrentAdd registers a torrent in the catalog with zeroed counters
	TorrentAdd(ctx context.Context, infoHash string) error
	// TorrentStats returns the stored counters for a torrent or
	// consts.ErrInvalidInfoHash when it is not in the catalog
	TorrentStats(ctx context.Context, infoHash string) (model.TorrentStats, error)
	// Name returns the driver name
	Name() string
	// Close should cleanup and close the underlying storage driver
	Close() error
}

// Migrator is implemented by drivers that manage their own schema
type Migrator interface {
	Migrate(ctx context.Context) error
}
