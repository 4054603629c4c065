package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/leighmacdonald/tindex/metrics"
	"github.com/leighmacdonald/tindex/model"
	"github.com/leighmacdonald/tindex/store/memory"
	"github.com/pkg/errors"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

const testIH = "443c7602b4fde83d1154d6d9da48808418b181b6"

type fakeTracker struct {
	err         error
	info        model.TorrentInfo
	whitelisted []string
}

func (f *fakeTracker) WhitelistInfoHash(_ context.Context, infoHash string) error {
	if f.err != nil {
		return f.err
	}
	f.whitelisted = append(f.whitelisted, infoHash)
	return nil
}

func (f *fakeTracker) RemoveInfoHashFromWhitelist(_ context.Context, _ string) error {
	return f.err
}

func (f *fakeTracker) PersonalAnnounceURL(_ context.Context, userID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("udp://localhost:6969/key%d", userID), nil
}

func (f *fakeTracker) TorrentInfo(_ context.Context, _ string) (model.TorrentInfo, error) {
	return f.info, f.err
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestAPI(tkr *fakeTracker) (http.Handler, *memory.Driver, gometrics.Registry) {
	db := memory.NewDriver()
	registry := gometrics.NewRegistry()
	return NewIndexHandler(tkr, db, registry), db, registry
}

func TestPing(t *testing.T) {
	h, _, _ := newTestAPI(&fakeTracker{})
	w := performRequest(h, "POST", "/ping", PingRequest{Ping: "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp PingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "hello", resp.Pong)
}

func TestWhitelist(t *testing.T) {
	tkr := &fakeTracker{}
	h, _, _ := newTestAPI(tkr)
	w := performRequest(h, "POST", "/whitelist/443C7602B4FDE83D1154D6D9DA48808418B181B6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{testIH}, tkr.whitelisted)
	require.Equal(t, http.StatusBadRequest, performRequest(h, "POST", "/whitelist/abc123", nil).Code)
	require.Equal(t, http.StatusOK, performRequest(h, "DELETE", "/whitelist/"+testIH, nil).Code)
}

func TestErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		err    error
		method string
		path   string
		status int
	}{
		{errors.Wrap(consts.ErrTrackerOffline, "dial tcp"), "POST", "/whitelist/" + testIH, http.StatusServiceUnavailable},
		{errors.Wrap(consts.ErrWhitelisting, "status 500"), "POST", "/whitelist/" + testIH, http.StatusBadGateway},
		{errors.Wrap(consts.ErrInternalServer, "status 404"), "DELETE", "/whitelist/" + testIH, http.StatusInternalServerError},
		{consts.ErrTorrentNotFound, "GET", "/torrent/" + testIH, http.StatusNotFound},
		{errors.Wrap(consts.ErrInternalServer, "bad body"), "GET", "/torrent/" + testIH, http.StatusInternalServerError},
		{errors.Wrap(consts.ErrDatabase, "gone"), "GET", "/user/1/announce_url", http.StatusInternalServerError},
		{errors.Wrap(consts.ErrTrackerOffline, "timeout"), "GET", "/user/1/announce_url", http.StatusServiceUnavailable},
	} {
		h, _, _ := newTestAPI(&fakeTracker{err: tc.err})
		w := performRequest(h, tc.method, tc.path, nil)
		require.Equal(t, tc.status, w.Code, tc.err.Error())
		var resp StatusResp
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotContains(t, resp.Err, "dial tcp")
	}
}

func TestTorrentInfo(t *testing.T) {
	tkr := &fakeTracker{info: model.TorrentInfo{InfoHash: testIH, Seeders: 5, Leechers: 2, Completed: 10, Peers: []model.Peer{}}}
	h, _, _ := newTestAPI(tkr)
	w := performRequest(h, "GET", "/torrent/"+testIH, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info model.TorrentInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	require.Equal(t, tkr.info, info)
}

func TestTorrentAddAndStats(t *testing.T) {
	h, db, _ := newTestAPI(&fakeTracker{})
	require.Equal(t, http.StatusNotFound, performRequest(h, "GET", "/torrent/"+testIH+"/stats", nil).Code)
	require.Equal(t, http.StatusCreated, performRequest(h, "POST", "/torrent/"+testIH, nil).Code)
	require.Equal(t, http.StatusConflict, performRequest(h, "POST", "/torrent/"+testIH, nil).Code)
	require.NoError(t, db.TorrentStatsUpdate(context.Background(), testIH,
		model.TorrentStats{Seeders: 5, Leechers: 2, Completed: 10}))
	w := performRequest(h, "GET", "/torrent/"+testIH+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats model.TorrentStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Equal(t, model.TorrentStats{Seeders: 5, Leechers: 2, Completed: 10}, stats)
}

func TestAnnounceURL(t *testing.T) {
	h, _, registry := newTestAPI(&fakeTracker{})
	w := performRequest(h, "GET", "/user/7/announce_url", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp AnnounceURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "udp://localhost:6969/key7", resp.AnnounceURL)
	for _, bad := range []string{"0", "-1", "bob"} {
		require.Equal(t, http.StatusBadRequest, performRequest(h, "GET", "/user/"+bad+"/announce_url", nil).Code)
	}
	counters := metrics.Get(registry).Counters
	require.Equal(t, int64(1), counters[metrics.APIRequests])
	require.Equal(t, int64(3), counters[metrics.APIRequestsFail])
}

func TestNoRoute(t *testing.T) {
	h, _, _ := newTestAPI(&fakeTracker{})
	require.Equal(t, http.StatusNotFound, performRequest(h, "GET", "/nope", nil).Code)
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}
