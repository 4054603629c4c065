package util

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestStringToInt64(t *testing.T) {
	require.Equal(t, int64(10), StringToInt64("10", 1))
	require.Equal(t, int64(-10), StringToInt64("-10", 1))
	require.Equal(t, int64(1000000000000), StringToInt64("1000000000000", 1))
	require.Equal(t, int64(10), StringToInt64("", 10))
}
