package consts

import "github.com/pkg/errors"

var (
	// ErrTrackerOffline is returned when the tracker admin API could not be reached at all
	ErrTrackerOffline = errors.New("tracker offline")
	// ErrWhitelisting is returned when the tracker was reachable but refused the whitelist change
	ErrWhitelisting = errors.New("tracker rejected whitelist update")
	// ErrTorrentNotFound means the tracker has no record of the info hash
	ErrTorrentNotFound = errors.New("torrent not found on tracker")
	// ErrInternalServer covers unexpected response shapes and other unclassified failures
	ErrInternalServer = errors.New("internal server error")
	// ErrDatabase wraps any failure of the backing store
	ErrDatabase = errors.New("database error")

	// ErrBadResponseCode is returned by the api client when a non-2xx response is received
	// for an operation that expects a decoded payload
	ErrBadResponseCode = errors.New("invalid response code")
	// ErrNoTrackerKey is returned by stores when the user has no tracker key
	ErrNoTrackerKey = errors.New("no tracker key for user")
	// ErrInvalidInfoHash is returned for malformed or unknown info hashes
	ErrInvalidInfoHash = errors.New("invalid info hash")
	// ErrInvalidUserID is returned for non numeric or non positive user ids
	ErrInvalidUserID = errors.New("invalid user_id")
	// ErrDuplicate duplicate entry error
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidConfig is issued when a invalid config value is used
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidDriver is for when a unknown driver is used.
	// Either misspelled or using driver that wasn't built into the binary
	ErrInvalidDriver = errors.New("invalid driver")
)
