package model

import (
	"encoding/json"
	"github.com/pkg/errors"
)

// PeerID is the peer identity as reported by the tracker. The client field is the
// tracker's best guess at the peer's software.
type PeerID struct {
	ID     *string `json:"id"`
	Client *string `json:"client"`
}

// Peer is a single swarm member as reported by the tracker admin API. Every field is
// optional since the response shape differs between tracker versions.
type Peer struct {
	PeerID     *PeerID `json:"peer_id"`
	Addr       *string `json:"peer_addr"`
	Updated    *int64  `json:"updated"`
	Uploaded   *int64  `json:"uploaded"`
	Downloaded *int64  `json:"downloaded"`
	Left       *int64  `json:"left"`
	Event      *string `json:"event"`
}

// TorrentInfo is a live snapshot of a torrent swarm. It is never cached or persisted
// as is, see TorrentStats for the stored projection.
type TorrentInfo struct {
	InfoHash  string `json:"info_hash"`
	Seeders   int64  `json:"seeders"`
	Completed int64  `json:"completed"`
	Leechers  int64  `json:"leechers"`
	Peers     []Peer `json:"peers"`
}

// Stats returns the counters we persist for the torrent
func (t TorrentInfo) Stats() TorrentStats {
	return TorrentStats{
		Seeders:   t.Seeders,
		Leechers:  t.Leechers,
		Completed: t.Completed,
	}
}

// TorrentStats are the tracker counters stored alongside a torrent in the index
type TorrentStats struct {
	Seeders   int64 `db:"seeders" json:"seeders"`
	Leechers  int64 `db:"leechers" json:"leechers"`
	Completed int64 `db:"completed" json:"completed"`
}

// torrentInfoWire mirrors TorrentInfo with pointers so we can tell a missing field
// apart from a zero value.
type torrentInfoWire struct {
	InfoHash  *string `json:"info_hash"`
	Seeders   *int64  `json:"seeders"`
	Completed *int64  `json:"completed"`
	Leechers  *int64  `json:"leechers"`
	Peers     *[]Peer `json:"peers"`
}

// DecodeTorrentInfo parses a tracker torrent response. All of the top level fields
// must be present, unknown fields are ignored.
func DecodeTorrentInfo(body []byte) (TorrentInfo, error) {
	var w torrentInfoWire
	if err := json.Unmarshal(body, &w); err != nil {
		return TorrentInfo{}, errors.Wrap(err, "Could not decode torrent info")
	}
	switch {
	case w.InfoHash == nil:
		return TorrentInfo{}, errors.New("torrent info missing info_hash")
	case w.Seeders == nil:
		return TorrentInfo{}, errors.New("torrent info missing seeders")
	case w.Completed == nil:
		return TorrentInfo{}, errors.New("torrent info missing completed")
	case w.Leechers == nil:
		return TorrentInfo{}, errors.New("torrent info missing leechers")
	case w.Peers == nil:
		return TorrentInfo{}, errors.New("torrent info missing peers")
	}
	return TorrentInfo{
		InfoHash:  *w.InfoHash,
		Seeders:   *w.Seeders,
		Completed: *w.Completed,
		Leechers:  *w.Leechers,
		Peers:     *w.Peers,
	}, nil
}
