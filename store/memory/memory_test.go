package memory

import (
	"github.com/leighmacdonald/tindex/config"
	"github.com/leighmacdonald/tindex/store"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDriver(t *testing.T) {
	store.TestStore(t, NewDriver())
}

func TestRegistered(t *testing.T) {
	s, err := store.New(config.StoreConfig{Type: driverName})
	require.NoError(t, err)
	require.Equal(t, driverName, s.Name())
	require.Contains(t, store.Drivers(), driverName)
}
