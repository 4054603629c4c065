package client

import (
	"context"
	"fmt"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testToken = "MyAccessToken"

type recorded struct {
	method string
	path   string
	token  string
}

func newTestServer(t *testing.T, h http.HandlerFunc) (*Client, *[]recorded, func()) {
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs = append(reqs, recorded{
			method: r.Method,
			path:   r.URL.Path,
			token:  r.URL.Query().Get("token"),
		})
		h(w, r)
	}))
	return New(srv.URL, testToken, time.Second), &reqs, srv.Close
}

func TestClient_Whitelist(t *testing.T) {
	const ih = "443c7602b4fde83d1154d6d9da48808418b181b6"
	c, reqs, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer done()
	resp, err := c.WhitelistAdd(context.Background(), ih)
	require.NoError(t, err)
	require.True(t, resp.IsSuccess())
	resp, err = c.WhitelistRemove(context.Background(), ih)
	require.NoError(t, err)
	require.True(t, resp.IsSuccess())
	require.Equal(t, []recorded{
		{method: http.MethodPost, path: "/api/v1/whitelist/" + ih, token: testToken},
		{method: http.MethodDelete, path: "/api/v1/whitelist/" + ih, token: testToken},
	}, *reqs)
}

func TestClient_WhitelistStatusIsNotAnError(t *testing.T) {
	c, _, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("failed to whitelist"))
	})
	defer done()
	resp, err := c.WhitelistAdd(context.Background(), "abc")
	require.NoError(t, err)
	require.False(t, resp.IsSuccess())
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "failed to whitelist", string(resp.Body))
}

func TestClient_IssueKey(t *testing.T) {
	c, reqs, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"key":"mCGfCr8nvixxA0h8","valid_until":1680000000}`)
	})
	defer done()
	key, err := c.IssueKey(context.Background(), 3600)
	require.NoError(t, err)
	require.Equal(t, "mCGfCr8nvixxA0h8", key.Key)
	require.Equal(t, int64(1680000000), key.ValidUntil)
	require.Equal(t, "/api/v1/key/3600", (*reqs)[0].path)
	require.Equal(t, http.MethodPost, (*reqs)[0].method)
}

func TestClient_IssueKeyErrors(t *testing.T) {
	badBody, _, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `not json`)
	})
	defer done()
	_, err := badBody.IssueKey(context.Background(), 60)
	require.Error(t, err)

	badStatus, _, done2 := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer done2()
	_, err = badStatus.IssueKey(context.Background(), 60)
	require.True(t, errors.Is(err, consts.ErrBadResponseCode))
}

func TestClient_TorrentInfoRaw(t *testing.T) {
	c, _, done := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, consts.TorrentNotKnown)
	})
	defer done()
	resp, err := c.TorrentInfo(context.Background(), "abc123")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, consts.TorrentNotKnown, string(resp.Body))
}

func TestClient_TransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()
	c := New(addr, testToken, time.Second)
	_, err := c.TorrentInfo(context.Background(), "abc123")
	require.Error(t, err)
	require.False(t, strings.Contains(err.Error(), testToken))
}

func TestClient_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)
	c := New(srv.URL, testToken, 50*time.Millisecond)
	t0 := time.Now()
	_, err := c.TorrentInfo(context.Background(), "abc123")
	require.Error(t, err)
	require.False(t, strings.Contains(err.Error(), testToken))
	require.Less(t, int64(time.Since(t0)), int64(time.Second))
}
