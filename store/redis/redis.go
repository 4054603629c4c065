// Package redis provides a redis backed store. Tracker keys are stored with a redis
// expiry matching their validity, the torrent catalog is kept in a lexically ordered
// sorted set so it can be paged without SCAN returning duplicates.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/go-redis/redis/v7"
	"github.com/leighmacdonald/tindex/config"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/leighmacdonald/tindex/model"
	"github.com/leighmacdonald/tindex/store"
	"github.com/leighmacdonald/tindex/util"
	"github.com/pkg/errors"
	"strconv"
	"time"
)

const (
	driverName = "redis"

	prefixKey     = "tk:"
	prefixTorrent = "t:"
	keyCatalog    = "torrents"
)

// Store is the redis backed store.Store implementation
type Store struct {
	client *redis.Client
}

func keyUser(userID int64) string {
	return fmt.Sprintf("%s%d", prefixKey, userID)
}

func keyTorrent(infoHash string) string {
	return prefixTorrent + infoHash
}

// Name returns the driver name
func (s *Store) Name() string {
	return driverName
}

// TrackerKeyGet returns the current key for the user
func (s *Store) TrackerKeyGet(ctx context.Context, userID int64) (model.TrackerKey, error) {
	var key model.TrackerKey
	v, err := s.client.WithContext(ctx).Get(keyUser(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return key, consts.ErrNoTrackerKey
		}
		return key, errors.Wrap(err, "Failed to fetch tracker key")
	}
	if err := json.Unmarshal(v, &key); err != nil {
		return key, errors.Wrap(err, "Failed to decode tracker key")
	}
	return key, nil
}

// TrackerKeyAdd stores a key for the user, expiring it in redis when the key itself
// expires. Already expired keys are not stored.
func (s *Store) TrackerKeyAdd(ctx context.Context, userID int64, key model.TrackerKey) error {
	ttl := key.ExpiresIn(time.Now())
	if ttl < time.Second {
		return nil
	}
	b, err := json.Marshal(key)
	if err != nil {
		return errors.Wrap(err, "Failed to encode tracker key")
	}
	if err := s.client.WithContext(ctx).Set(keyUser(userID), b, ttl).Err(); err != nil {
		return errors.Wrap(err, "Failed to store tracker key")
	}
	return nil
}

// TorrentAdd adds a torrent to the catalog
func (s *Store) TorrentAdd(ctx context.Context, infoHash string) error {
	added, err := s.client.WithContext(ctx).ZAddNX(keyCatalog, &redis.Z{Score: 0, Member: infoHash}).Result()
	if err != nil {
		return errors.Wrap(err, "Failed to add torrent")
	}
	if added == 0 {
		return consts.ErrDuplicate
	}
	return nil
}

// TorrentInfoHashes returns the next page of the catalog in lexical order
func (s *Store) TorrentInfoHashes(ctx context.Context, after string, limit int) ([]string, error) {
	lower := "-"
	if after != "" {
		lower = "(" + after
	}
	hashes, err := s.client.WithContext(ctx).ZRangeByLex(keyCatalog, &redis.ZRangeBy{
		Min:   lower,
		Max:   "+",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to page torrent catalog")
	}
	return hashes, nil
}

func (s *Store) exists(c *redis.Client, infoHash string) (bool, error) {
	if err := c.ZScore(keyCatalog, infoHash).Err(); err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, errors.Wrap(err, "Failed to lookup torrent")
	}
	return true, nil
}

// TorrentStatsUpdate overwrites the tracker counters of a single torrent
func (s *Store) TorrentStatsUpdate(ctx context.Context, infoHash string, stats model.TorrentStats) error {
	c := s.client.WithContext(ctx)
	found, err := s.exists(c, infoHash)
	if err != nil {
		return err
	}
	if !found {
		return consts.ErrInvalidInfoHash
	}
	if err := c.HSet(keyTorrent(infoHash),
		"seeders", stats.Seeders,
		"leechers", stats.Leechers,
		"completed", stats.Completed,
		"updated_on", time.Now().Unix()).Err(); err != nil {
		return errors.Wrap(err, "Failed to update torrent stats")
	}
	return nil
}

// TorrentStats returns the stored counters of a torrent
func (s *Store) TorrentStats(ctx context.Context, infoHash string) (model.TorrentStats, error) {
	var stats model.TorrentStats
	c := s.client.WithContext(ctx)
	found, err := s.exists(c, infoHash)
	if err != nil {
		return stats, err
	}
	if !found {
		return stats, consts.ErrInvalidInfoHash
	}
	v, err := c.HGetAll(keyTorrent(infoHash)).Result()
	if err != nil {
		return stats, errors.Wrap(err, "Failed to fetch torrent stats")
	}
	stats.Seeders = util.StringToInt64(v["seeders"], 0)
	stats.Leechers = util.StringToInt64(v["leechers"], 0)
	stats.Completed = util.StringToInt64(v["completed"], 0)
	return stats, nil
}

// Close closes the redis client
func (s *Store) Close() error {
	return s.client.Close()
}

type driver struct{}

// New creates a new redis backed store. The store_database value selects the redis db
func (driver) New(cfg config.StoreConfig) (store.Store, error) {
	db := 0
	if cfg.Database != "" {
		v, err := strconv.Atoi(cfg.Database)
		if err != nil {
			return nil, errors.Wrapf(consts.ErrInvalidConfig, "invalid redis db: %s", cfg.Database)
		}
		db = v
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       db,
	})
	if err := client.Ping().Err(); err != nil {
		return nil, errors.Wrap(err, "Could not connect to redis")
	}
	return &Store{client: client}, nil
}

func init() {
	store.AddDriver(driverName, driver{})
}
