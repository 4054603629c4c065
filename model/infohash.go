package model

import (
	"github.com/anacrolix/torrent/metainfo"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/pkg/errors"
	"strings"
)

// NormalizeInfoHash validates a hex encoded v1 info hash and returns it in the lower
// case form used by the tracker and the stores.
func NormalizeInfoHash(s string) (string, error) {
	var h metainfo.Hash
	if err := h.FromHexString(strings.TrimSpace(s)); err != nil {
		return "", errors.Wrap(consts.ErrInvalidInfoHash, err.Error())
	}
	return h.HexString(), nil
}
