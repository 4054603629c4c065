// Package postgres provides the backing store for postgresql
package postgres

import (
	"context"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/leighmacdonald/tindex/config"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/leighmacdonald/tindex/model"
	"github.com/leighmacdonald/tindex/store"
	"github.com/pkg/errors"
	"time"
)

const (
	driverName = "postgres"
	// uniqueViolation is the SQLSTATE for duplicate keys
	uniqueViolation = "23505"
)

// Store is the postgres backed store.Store implementation
type Store struct {
	db *pgxpool.Pool
}

// Name returns the driver name
func (s *Store) Name() string {
	return driverName
}

// TrackerKeyGet returns the most recently issued key for the user
func (s *Store) TrackerKeyGet(ctx context.Context, userID int64) (model.TrackerKey, error) {
	const q = `
		SELECT 
		    tracker_key, valid_until 
		FROM 
		    tracker_keys 
		WHERE 
		    user_id = $1 
		ORDER BY tracker_key_id DESC 
		LIMIT 1`
	var key model.TrackerKey
	if err := s.db.QueryRow(ctx, q, userID).Scan(&key.Key, &key.ValidUntil); err != nil {
		if err == pgx.ErrNoRows {
			return key, consts.ErrNoTrackerKey
		}
		return key, errors.Wrap(err, "Failed to fetch tracker key by user_id")
	}
	return key, nil
}

// TrackerKeyAdd inserts a newly issued key for the user
func (s *Store) TrackerKeyAdd(ctx context.Context, userID int64, key model.TrackerKey) error {
	const q = `INSERT INTO tracker_keys (user_id, tracker_key, valid_until) VALUES ($1, $2, $3)`
	if _, err := s.db.Exec(ctx, q, userID, key.Key, key.ValidUntil); err != nil {
		return errors.Wrap(err, "Failed to insert tracker key")
	}
	return nil
}

// TorrentAdd inserts a new torrent into the catalog
func (s *Store) TorrentAdd(ctx context.Context, infoHash string) error {
	const q = `INSERT INTO torrents (info_hash) VALUES ($1)`
	if _, err := s.db.Exec(ctx, q, infoHash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return consts.ErrDuplicate
		}
		return errors.Wrap(err, "Failed to insert torrent")
	}
	return nil
}

// TorrentInfoHashes returns the next page of info hashes using keyset pagination
func (s *Store) TorrentInfoHashes(ctx context.Context, after string, limit int) ([]string, error) {
	const q = `SELECT info_hash FROM torrents WHERE info_hash > $1 ORDER BY info_hash LIMIT $2`
	rows, err := s.db.Query(ctx, q, after, limit)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to select torrent info hashes")
	}
	defer rows.Close()
	var hashes []string
	for rows.Next() {
		var ih string
		if err := rows.Scan(&ih); err != nil {
			return nil, errors.Wrap(err, "Failed to scan info hash")
		}
		hashes = append(hashes, ih)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "Failed to read info hashes")
	}
	return hashes, nil
}

// TorrentStatsUpdate overwrites the tracker counters of a single torrent
func (s *Store) TorrentStatsUpdate(ctx context.Context, infoHash string, stats model.TorrentStats) error {
	const q = `
		UPDATE 
			torrents
		SET
			seeders = $1,
			leechers = $2,
			completed = $3,
			stats_updated_on = $4
		WHERE 
			info_hash = $5`
	tag, err := s.db.Exec(ctx, q, stats.Seeders, stats.Leechers, stats.Completed, time.Now(), infoHash)
	if err != nil {
		return errors.Wrap(err, "Failed to update torrent stats")
	}
	if tag.RowsAffected() == 0 {
		return consts.ErrInvalidInfoHash
	}
	return nil
}

// TorrentStats returns the stored counters of a torrent
func (s *Store) TorrentStats(ctx context.Context, infoHash string) (model.TorrentStats, error) {
	const q = `SELECT seeders, leechers, completed FROM torrents WHERE info_hash = $1`
	var stats model.TorrentStats
	err := s.db.QueryRow(ctx, q, infoHash).Scan(&stats.Seeders, &stats.Leechers, &stats.Completed)
	if err != nil {
		if err == pgx.ErrNoRows {
			return stats, consts.ErrInvalidInfoHash
		}
		return stats, errors.Wrap(err, "Failed to fetch torrent stats")
	}
	return stats, nil
}

// Migrate creates the tables used by the store if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "Failed to create schema")
	}
	return nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

type driver struct{}

// New creates a new postgres backed store
func (driver) New(cfg config.StoreConfig) (store.Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL("postgres"))
	if err != nil {
		return nil, errors.Wrap(consts.ErrInvalidConfig, err.Error())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "Could not connect to postgres database")
	}
	return &Store{db: db}, nil
}

func init() {
	store.AddDriver(driverName, driver{})
}
