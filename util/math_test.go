package util_test

import (
	"github.com/leighmacdonald/tindex/util"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestIBytes(t *testing.T) {
	require.Equal(t, "79MiB", util.IBytes(82854982))
	require.Equal(t, "1.0KiB", util.IBytes(1024))
	require.Equal(t, "5B", util.IBytes(5))
}
