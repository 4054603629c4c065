package model

import (
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestDecodeTorrentInfo(t *testing.T) {
	body := []byte(`{
		"info_hash": "443c7602b4fde83d1154d6d9da48808418b181b6",
		"seeders": 1,
		"completed": 3,
		"leechers": 0,
		"extra": "ignored",
		"peers": [{
			"peer_id": {"id": "0x2d7142343431302d", "client": null},
			"peer_addr": "2.137.87.41:1754",
			"updated": 1669397478934,
			"uploaded": 0,
			"downloaded": 0,
			"left": 0,
			"event": "Started"
		}]
	}`)
	info, err := DecodeTorrentInfo(body)
	require.NoError(t, err)
	require.Equal(t, "443c7602b4fde83d1154d6d9da48808418b181b6", info.InfoHash)
	require.Equal(t, TorrentStats{Seeders: 1, Leechers: 0, Completed: 3}, info.Stats())
	require.Len(t, info.Peers, 1)
	require.Nil(t, info.Peers[0].PeerID.Client)
	require.Equal(t, int64(1669397478934), *info.Peers[0].Updated)

	empty, err := DecodeTorrentInfo([]byte(`{"info_hash": "abc", "seeders": 0, "completed": 0, "leechers": 0, "peers": []}`))
	require.NoError(t, err)
	require.Empty(t, empty.Peers)
}

func TestDecodeTorrentInfo_Invalid(t *testing.T) {
	for _, body := range []string{
		``,
		`torrent not known`,
		`[]`,
		`{"seeders": 1, "completed": 1, "leechers": 1, "peers": []}`,
		`{"info_hash": "abc", "completed": 1, "leechers": 1, "peers": []}`,
		`{"info_hash": "abc", "seeders": 1, "leechers": 1, "peers": []}`,
		`{"info_hash": "abc", "seeders": 1, "completed": 1, "peers": []}`,
		`{"info_hash": "abc", "seeders": 1, "completed": 1, "leechers": 1}`,
		`{"info_hash": "abc", "seeders": "lots", "completed": 1, "leechers": 1, "peers": []}`,
	} {
		_, err := DecodeTorrentInfo([]byte(body))
		require.Error(t, err, body)
	}
}

func TestTrackerKey_Expired(t *testing.T) {
	now := time.Unix(1600000000, 0)
	k := TrackerKey{Key: "abc", ValidUntil: now.Unix() + 60}
	require.False(t, k.Expired(now))
	require.Equal(t, time.Minute, k.ExpiresIn(now))
	require.True(t, k.Expired(now.Add(time.Minute)))
	require.Equal(t, time.Duration(0), k.ExpiresIn(now.Add(time.Hour)))
}
