package redis

import (
	"github.com/leighmacdonald/tindex/config"
	"github.com/leighmacdonald/tindex/store"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
)

func TestDriver(t *testing.T) {
	s, err := store.New(config.GetStoreConfig())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	clearDB(t, s.(*Store))
	store.TestStore(t, s)
}

func clearDB(t *testing.T, s *Store) {
	require.NoError(t, s.client.FlushDB().Err())
}

func TestMain(m *testing.M) {
	if err := config.Read("tindex_testing_redis.yaml"); err != nil {
		log.Info("Skipping redis tests, failed to find config: tindex_testing_redis.yaml")
		os.Exit(0)
		return
	}
	if config.GetString(config.StoreType) != driverName {
		log.Info("Skipping redis tests, store_type is not redis")
		os.Exit(0)
		return
	}
	os.Exit(m.Run())
}
