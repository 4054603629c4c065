// Package tracker translates the tracker admin API into index level operations.
//
// It owns the rules the rest of the index relies on:
//
//   - whitelisting is idempotent, a repeated add is not an error
//   - user keys are only issued when the cached key is missing or expired
//   - unknown torrents are always reported as consts.ErrTorrentNotFound, whichever
//     way the tracker chose to signal it
//
// Errors returned by Service wrap one of consts.ErrTrackerOffline, consts.ErrWhitelisting,
// consts.ErrTorrentNotFound, consts.ErrInternalServer or consts.ErrDatabase.
package tracker
