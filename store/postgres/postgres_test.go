package postgres

import (
	"context"
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
	store.TestStore(t, s)
}

func TestMain(m *testing.M) {
	if err := config.Read("tindex_testing_postgres.yaml"); err != nil {
		log.Info("Skipping database tests, failed to find config: tindex_testing_postgres.yaml")
		os.Exit(0)
		return
	}
	if config.GetString(config.StoreType) != driverName {
		log.Info("Skipping database tests, store_type is not postgres")
		os.Exit(0)
		return
	}
	s, err := driver{}.New(config.GetStoreConfig())
	if err != nil {
		log.Fatalf("Failed to connect to test database: %s", err)
	}
	ctx := context.Background()
	pg := s.(*Store)
	if _, err := pg.db.Exec(ctx, schemaDrop); err != nil {
		log.Fatalf("Failed to drop schema: %s", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		log.Fatalf("Failed to create schema: %s", err)
	}
	exitCode := m.Run()
	_, _ = pg.db.Exec(ctx, schemaDrop)
	_ = pg.Close()
	os.Exit(exitCode)
}
