package model

import (
	"github.com/leighmacdonald/tindex/consts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNormalizeInfoHash(t *testing.T) {
	ih, err := NormalizeInfoHash(" 443C7602B4FDE83D1154D6D9DA48808418B181B6 ")
	require.NoError(t, err)
	require.Equal(t, "443c7602b4fde83d1154d6d9da48808418b181b6", ih)

	for _, bad := range []string{"", "abc123", "zz3c7602b4fde83d1154d6d9da48808418b181b6"} {
		_, err := NormalizeInfoHash(bad)
		require.True(t, errors.Is(err, consts.ErrInvalidInfoHash), bad)
	}
}
