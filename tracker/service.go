package tracker

import (
	"context"
	"fmt"
	"github.com/leighmacdonald/tindex/client"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/leighmacdonald/tindex/model"
	"github.com/leighmacdonald/tindex/store"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// API is the subset of the tracker admin API used by the service. *client.Client
// satisfies it.
type API interface {
	WhitelistAdd(ctx context.Context, infoHash string) (*client.Response, error)
	WhitelistRemove(ctx context.Context, infoHash string) (*client.Response, error)
	IssueKey(ctx context.Context, ttlSeconds uint64) (model.TrackerKey, error)
	TorrentInfo(ctx context.Context, infoHash string) (*client.Response, error)
}

// Opts configures a Service
type Opts struct {
	// TrackerURL is the announce base url, keys are appended as the last path segment
	TrackerURL string
	// TokenValidSeconds is the lifetime requested for new keys
	TokenValidSeconds uint64
	// Now is used for key expiry checks, defaults to time.Now
	Now func() time.Time
	// IssueTimeout bounds a shared key issuance, defaults to defaultIssueTimeout
	IssueTimeout time.Duration
}

const defaultIssueTimeout = 10 * time.Second

// Service is safe for concurrent use. It holds no state other than the in flight key
// issuance calls.
type Service struct {
	api               API
	keys              store.TrackerKeyStore
	trackerURL        string
	tokenValidSeconds uint64
	now               func() time.Time
	issueTimeout      time.Duration
	issuing           singleflight.Group
}

// New creates a tracker service backed by the admin api and key store provided
func New(api API, keys store.TrackerKeyStore, opts Opts) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	issueTimeout := opts.IssueTimeout
	if issueTimeout <= 0 {
		issueTimeout = defaultIssueTimeout
	}
	return &Service{
		api:               api,
		keys:              keys,
		trackerURL:        strings.TrimRight(opts.TrackerURL, "/"),
		tokenValidSeconds: opts.TokenValidSeconds,
		now:               now,
		issueTimeout:      issueTimeout,
	}
}

// WhitelistInfoHash adds the torrent to the tracker whitelist. Whitelisting an already
// whitelisted torrent succeeds.
func (s *Service) WhitelistInfoHash(ctx context.Context, infoHash string) error {
	resp, err := s.api.WhitelistAdd(ctx, infoHash)
	if err != nil {
		return errors.Wrap(consts.ErrTrackerOffline, err.Error())
	}
	if !resp.IsSuccess() {
		return errors.Wrapf(consts.ErrWhitelisting, "status %d", resp.StatusCode)
	}
	return nil
}

// RemoveInfoHashFromWhitelist removes the torrent from the tracker whitelist. The
// tracker does not tell "not whitelisted" apart from other failures so any rejection
// is an internal error.
func (s *Service) RemoveInfoHashFromWhitelist(ctx context.Context, infoHash string) error {
	resp, err := s.api.WhitelistRemove(ctx, infoHash)
	if err != nil {
		return errors.Wrap(consts.ErrTrackerOffline, err.Error())
	}
	if !resp.IsSuccess() {
		return errors.Wrapf(consts.ErrInternalServer, "whitelist removal status %d", resp.StatusCode)
	}
	return nil
}

// PersonalAnnounceURL returns the announce url of the user, eg:
//
//	https://tracker:7070/USER_TRACKER_KEY
//
// The cached key is reused while it is valid, otherwise a new one is issued by the
// tracker and stored. Issuance is collapsed per user so concurrent requests in this
// process share one new key.
func (s *Service) PersonalAnnounceURL(ctx context.Context, userID int64) (string, error) {
	key, found, err := s.cachedKey(ctx, userID)
	if err != nil {
		return "", err
	}
	if found {
		return s.announceURL(key), nil
	}
	ch := s.issuing.DoChan(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		// The flight is shared, it must outlive the caller that started it
		flightCtx, cancel := context.WithTimeout(context.Background(), s.issueTimeout)
		defer cancel()
		// Another flight may have stored a key between our read and now
		k, ok, errCached := s.cachedKey(flightCtx, userID)
		if errCached != nil {
			return nil, errCached
		}
		if ok {
			return k, nil
		}
		return s.issueKey(flightCtx, userID)
	})
	select {
	case <-ctx.Done():
		return "", errors.Wrap(consts.ErrTrackerOffline, ctx.Err().Error())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return s.announceURL(res.Val.(model.TrackerKey)), nil
	}
}

// cachedKey returns the stored key of the user if it has not expired yet
func (s *Service) cachedKey(ctx context.Context, userID int64) (model.TrackerKey, bool, error) {
	key, err := s.keys.TrackerKeyGet(ctx, userID)
	if err != nil {
		if errors.Is(err, consts.ErrNoTrackerKey) {
			return key, false, nil
		}
		return key, false, errors.Wrap(consts.ErrDatabase, err.Error())
	}
	if key.Expired(s.now()) {
		log.WithField("user_id", userID).Debugf("Cached tracker key expired")
		return key, false, nil
	}
	return key, true, nil
}

// issueKey requests a new key from the tracker and stores it for the user
func (s *Service) issueKey(ctx context.Context, userID int64) (model.TrackerKey, error) {
	key, err := s.api.IssueKey(ctx, s.tokenValidSeconds)
	if err != nil {
		log.WithField("user_id", userID).Errorf("Failed to issue tracker key: %v", err)
		return key, errors.Wrap(consts.ErrTrackerOffline, err.Error())
	}
	if err := s.keys.TrackerKeyAdd(ctx, userID, key); err != nil {
		return key, errors.Wrap(consts.ErrDatabase, err.Error())
	}
	log.WithField("user_id", userID).Debugf("Issued new tracker key")
	return key, nil
}

func (s *Service) announceURL(key model.TrackerKey) string {
	return fmt.Sprintf("%s/%s", s.trackerURL, key.Key)
}

// TorrentInfo fetches the live swarm info of a torrent from the tracker
func (s *Service) TorrentInfo(ctx context.Context, infoHash string) (model.TorrentInfo, error) {
	resp, err := s.api.TorrentInfo(ctx, infoHash)
	if err != nil {
		return model.TorrentInfo{}, errors.Wrap(consts.ErrInternalServer, err.Error())
	}
	if resp.StatusCode == http.StatusNotFound {
		return model.TorrentInfo{}, consts.ErrTorrentNotFound
	}
	if !resp.IsSuccess() {
		return model.TorrentInfo{}, errors.Wrapf(consts.ErrInternalServer, "torrent info status %d", resp.StatusCode)
	}
	// Some tracker versions answer unknown torrents with a 200 and a plain text body
	if string(resp.Body) == consts.TorrentNotKnown {
		return model.TorrentInfo{}, consts.ErrTorrentNotFound
	}
	info, err := model.DecodeTorrentInfo(resp.Body)
	if err != nil {
		log.WithField("info_hash", infoHash).Errorf(
			"Failed to parse torrent info from tracker response: %v Body: %s", err, resp.Body)
		return model.TorrentInfo{}, errors.Wrap(consts.ErrInternalServer, err.Error())
	}
	return info, nil
}
