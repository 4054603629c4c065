package consts

import "time"

// BuildVersion and BuildTime are replaced at build time
var (
	BuildVersion = "master"
	BuildTime    = time.Now().UTC().Format(time.ANSIC)
)

// TorrentNotKnown is the plain text body some tracker versions send with a 200 status
// instead of a 404 for unknown torrents.
const TorrentNotKnown = "torrent not known"
