// Package mysql provides mysql/mariadb backed persistent storage
package mysql

import (
	"context"
	"database/sql"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/leighmacdonald/tindex/config"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/leighmacdonald/tindex/model"
	"github.com/leighmacdonald/tindex/store"
	"github.com/pkg/errors"
	"sync"
	"time"
)

const (
	driverName = "mysql"
	// errDuplicateEntry is the server error number for unique key violations
	errDuplicateEntry = 1062
)

// MariaDBStore is the MariaDB backed store.Store implementation
type MariaDBStore struct {
	db *sqlx.DB
}

// Name returns the driver name
func (s *MariaDBStore) Name() string {
	return driverName
}

// TrackerKeyGet returns the most recently issued key for the user
func (s *MariaDBStore) TrackerKeyGet(ctx context.Context, userID int64) (model.TrackerKey, error) {
	const q = `
		SELECT tracker_key, valid_until
		FROM tracker_keys
		WHERE user_id = ?
		ORDER BY tracker_key_id DESC
		LIMIT 1`
	var key model.TrackerKey
	if err := s.db.GetContext(ctx, &key, q, userID); err != nil {
		if err == sql.ErrNoRows {
			return key, consts.ErrNoTrackerKey
		}
		return key, errors.Wrap(err, "Could not query tracker key by user_id")
	}
	return key, nil
}

// TrackerKeyAdd inserts a newly issued key for the user
func (s *MariaDBStore) TrackerKeyAdd(ctx context.Context, userID int64, key model.TrackerKey) error {
	const q = `INSERT INTO tracker_keys (user_id, tracker_key, valid_until) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, userID, key.Key, key.ValidUntil); err != nil {
		return errors.Wrap(err, "Failed to insert tracker key")
	}
	return nil
}

// TorrentAdd inserts a new torrent into the catalog
func (s *MariaDBStore) TorrentAdd(ctx context.Context, infoHash string) error {
	const q = `INSERT INTO torrents (info_hash) VALUES (?)`
	if _, err := s.db.ExecContext(ctx, q, infoHash); err != nil {
		if myErr, ok := err.(*mysqlDriver.MySQLError); ok && myErr.Number == errDuplicateEntry {
			return consts.ErrDuplicate
		}
		return errors.Wrap(err, "Failed to insert torrent")
	}
	return nil
}

// TorrentInfoHashes returns the next page of info hashes using keyset pagination
func (s *MariaDBStore) TorrentInfoHashes(ctx context.Context, after string, limit int) ([]string, error) {
	const q = `SELECT info_hash FROM torrents WHERE info_hash > ? ORDER BY info_hash LIMIT ?`
	var hashes []string
	if err := s.db.SelectContext(ctx, &hashes, q, after, limit); err != nil {
		return nil, errors.Wrap(err, "Failed to select torrent info hashes")
	}
	return hashes, nil
}

// TorrentStatsUpdate overwrites the tracker counters of a single torrent
func (s *MariaDBStore) TorrentStatsUpdate(ctx context.Context, infoHash string, stats model.TorrentStats) error {
	const q = `
		UPDATE torrents
		SET seeders          = ?,
			leechers         = ?,
			completed        = ?,
			stats_updated_on = ?
		WHERE info_hash = ?`
	res, err := s.db.ExecContext(ctx, q, stats.Seeders, stats.Leechers, stats.Completed,
		time.Now().UTC(), infoHash)
	if err != nil {
		return errors.Wrap(err, "Failed to update torrent stats")
	}
	// clientFoundRows is forced on so a matched row counts as affected
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "Failed to read affected rows")
	}
	if n == 0 {
		return consts.ErrInvalidInfoHash
	}
	return nil
}

// TorrentStats returns the stored counters of a torrent
func (s *MariaDBStore) TorrentStats(ctx context.Context, infoHash string) (model.TorrentStats, error) {
	const q = `SELECT seeders, leechers, completed FROM torrents WHERE info_hash = ?`
	var stats model.TorrentStats
	if err := s.db.GetContext(ctx, &stats, q, infoHash); err != nil {
		if err == sql.ErrNoRows {
			return stats, consts.ErrInvalidInfoHash
		}
		return stats, errors.Wrap(err, "Could not query torrent stats")
	}
	return stats, nil
}

// Close will close the underlying database connection
func (s *MariaDBStore) Close() error {
	connectionsMu.Lock()
	defer connectionsMu.Unlock()
	for k, db := range connections {
		if db == s.db {
			delete(connections, k)
		}
	}
	return s.db.Close()
}

// Migrate creates the tables used by the store if they do not exist
func (s *MariaDBStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "Failed to create schema")
	}
	return nil
}

var (
	connections   map[string]*sqlx.DB
	connectionsMu *sync.Mutex
)

func getOrCreateConn(cfg config.StoreConfig) (*sqlx.DB, error) {
	connectionsMu.Lock()
	defer connectionsMu.Unlock()
	dsn, errDSN := buildDSN(cfg)
	if errDSN != nil {
		return nil, errDSN
	}
	existing, found := connections[dsn]
	if found {
		return existing, nil
	}
	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "Could not connect to mysql database")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(50)
	db.SetConnMaxLifetime(time.Minute)
	connections[dsn] = db
	return db, nil
}

// buildDSN forces the connection options the store relies on:
// multiStatements to exec the full schema at once and clientFoundRows so updates
// report matched rows.
func buildDSN(cfg config.StoreConfig) (string, error) {
	myCfg, err := mysqlDriver.ParseDSN(cfg.DSN())
	if err != nil {
		return "", errors.Wrap(consts.ErrInvalidConfig, err.Error())
	}
	myCfg.MultiStatements = true
	myCfg.ClientFoundRows = true
	myCfg.ParseTime = true
	return myCfg.FormatDSN(), nil
}

type driver struct{}

// New creates a new mysql backed store.
func (driver) New(cfg config.StoreConfig) (store.Store, error) {
	db, err := getOrCreateConn(cfg)
	if err != nil {
		return nil, err
	}
	return &MariaDBStore{db: db}, nil
}

func init() {
	connections = make(map[string]*sqlx.DB)
	connectionsMu = &sync.Mutex{}
	store.AddDriver(driverName, driver{})
}
