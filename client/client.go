// Package client implements a thin transport for the tracker admin API.
//
// Each method maps to a single endpoint and reports exactly what happened on the wire,
// interpreting responses is left to the tracker service.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/leighmacdonald/tindex/model"
	"github.com/pkg/errors"
	"net/http"
	"net/url"
	"time"
)

const apiPrefix = "/api/v1"

// Client talks to the tracker admin API
type Client struct {
	*AuthedClient
}

// New creates a new admin API client for the tracker at apiURL
func New(apiURL string, token string, timeout time.Duration) *Client {
	return &Client{AuthedClient: NewAuthedClient(token, apiURL+apiPrefix, timeout)}
}

func torrentPath(prefix string, infoHash string) string {
	return fmt.Sprintf("%s/%s", prefix, url.PathEscape(infoHash))
}

// WhitelistAdd adds the info hash to the tracker whitelist
func (c *Client) WhitelistAdd(ctx context.Context, infoHash string) (*Response, error) {
	return c.Exec(ctx, Opts{
		Method: http.MethodPost,
		Path:   torrentPath("/whitelist", infoHash),
	})
}

// WhitelistRemove removes the info hash from the tracker whitelist
func (c *Client) WhitelistRemove(ctx context.Context, infoHash string) (*Response, error) {
	return c.Exec(ctx, Opts{
		Method: http.MethodDelete,
		Path:   torrentPath("/whitelist", infoHash),
	})
}

// IssueKey asks the tracker to generate a new key valid for ttlSeconds
func (c *Client) IssueKey(ctx context.Context, ttlSeconds uint64) (model.TrackerKey, error) {
	resp, err := c.Exec(ctx, Opts{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/key/%d", ttlSeconds),
	})
	if err != nil {
		return model.TrackerKey{}, err
	}
	if !resp.IsSuccess() {
		return model.TrackerKey{}, errors.Wrapf(consts.ErrBadResponseCode, "key issue status %d", resp.StatusCode)
	}
	var key model.TrackerKey
	if err := json.Unmarshal(resp.Body, &key); err != nil {
		return model.TrackerKey{}, errors.Wrap(err, "Could not decode tracker key")
	}
	if key.Key == "" {
		return model.TrackerKey{}, errors.New("Tracker returned an empty key")
	}
	return key, nil
}

// TorrentInfo fetches the raw torrent info response. The response is not decoded
// since the tracker signals unknown torrents in more than one way.
func (c *Client) TorrentInfo(ctx context.Context, infoHash string) (*Response, error) {
	return c.Exec(ctx, Opts{
		Method: http.MethodGet,
		Path:   torrentPath("/torrent", infoHash),
	})
}
