package http

import (
	"context"
	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/leighmacdonald/tindex/metrics"
	"github.com/leighmacdonald/tindex/model"
	"github.com/leighmacdonald/tindex/store"
	"github.com/pkg/errors"
	gometrics "github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
	"net/http"
	"strconv"
)

// TrackerService is the set of tracker operations exposed by the api. *tracker.Service
// satisfies it.
type TrackerService interface {
	WhitelistInfoHash(ctx context.Context, infoHash string) error
	RemoveInfoHashFromWhitelist(ctx context.Context, infoHash string) error
	PersonalAnnounceURL(ctx context.Context, userID int64) (string, error)
	TorrentInfo(ctx context.Context, infoHash string) (model.TorrentInfo, error)
}

// StatusResp is a generic response struct used when simple responses are all that
// is required.
type StatusResp struct {
	Err     string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// PingRequest is echoed back by the ping endpoint
type PingRequest struct {
	Ping string `json:"ping"`
}

// PingResponse is the reply to a PingRequest
type PingResponse struct {
	Pong string `json:"pong"`
}

// AnnounceURLResponse holds the personal announce url of a user
type AnnounceURLResponse struct {
	AnnounceURL string `json:"announce_url"`
}

// IndexAPI serves the website facing api
type IndexAPI struct {
	tracker  TrackerService
	db       store.Store
	registry gometrics.Registry
	metrics  *metrics.API
}

// NewIndexHandler configures a router to handle index API requests
func NewIndexHandler(tkr TrackerService, db store.Store, registry gometrics.Registry) *gin.Engine {
	r := newRouter()
	h := IndexAPI{
		tracker:  tkr,
		db:       db,
		registry: registry,
		metrics:  metrics.NewAPI(registry),
	}
	r.Use(h.count)
	r.POST("/ping", h.ping)
	r.GET("/stats", h.stats)

	r.POST("/whitelist/:info_hash", h.whitelistAdd)
	r.DELETE("/whitelist/:info_hash", h.whitelistDelete)

	r.POST("/torrent/:info_hash", h.torrentAdd)
	r.GET("/torrent/:info_hash", h.torrentInfo)
	r.GET("/torrent/:info_hash/stats", h.torrentStats)

	r.GET("/user/:user_id/announce_url", h.announceURL)
	r.NoRoute(noRoute)
	return r
}

// count records the request outcome once the handler has run
func (a *IndexAPI) count(c *gin.Context) {
	c.Next()
	if c.Writer.Status() >= http.StatusBadRequest {
		a.metrics.RequestsFail.Inc(1)
	} else {
		a.metrics.Requests.Inc(1)
	}
}

func (a *IndexAPI) ping(c *gin.Context) {
	var r PingRequest
	if err := c.BindJSON(&r); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, PingResponse{Pong: r.Ping})
}

func (a *IndexAPI) stats(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.Get(a.registry))
}

// abortWithError writes the mapped status for err. Internal details are logged, not
// returned.
func abortWithError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	msg := http.StatusText(status)
	switch {
	case errors.Is(err, consts.ErrInvalidInfoHash):
		msg = consts.ErrInvalidInfoHash.Error()
	case errors.Is(err, consts.ErrInvalidUserID):
		msg = consts.ErrInvalidUserID.Error()
	case errors.Is(err, consts.ErrTorrentNotFound):
		msg = consts.ErrTorrentNotFound.Error()
	}
	c.AbortWithStatusJSON(status, StatusResp{Err: msg})
}

func infoHashFromCtx(c *gin.Context) (string, bool) {
	ih, err := model.NormalizeInfoHash(c.Param("info_hash"))
	if err != nil {
		abortWithError(c, err)
		return "", false
	}
	return ih, true
}

func (a *IndexAPI) whitelistAdd(c *gin.Context) {
	ih, ok := infoHashFromCtx(c)
	if !ok {
		return
	}
	if err := a.tracker.WhitelistInfoHash(c.Request.Context(), ih); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatusResp{Message: "Whitelisted successfully"})
}

func (a *IndexAPI) whitelistDelete(c *gin.Context) {
	ih, ok := infoHashFromCtx(c)
	if !ok {
		return
	}
	if err := a.tracker.RemoveInfoHashFromWhitelist(c.Request.Context(), ih); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatusResp{Message: "Removed from whitelist successfully"})
}

func (a *IndexAPI) torrentAdd(c *gin.Context) {
	ih, ok := infoHashFromCtx(c)
	if !ok {
		return
	}
	if err := a.db.TorrentAdd(c.Request.Context(), ih); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, StatusResp{Message: "Torrent added successfully"})
}

func (a *IndexAPI) torrentInfo(c *gin.Context) {
	ih, ok := infoHashFromCtx(c)
	if !ok {
		return
	}
	info, err := a.tracker.TorrentInfo(c.Request.Context(), ih)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (a *IndexAPI) torrentStats(c *gin.Context) {
	ih, ok := infoHashFromCtx(c)
	if !ok {
		return
	}
	stats, err := a.db.TorrentStats(c.Request.Context(), ih)
	if err != nil {
		if errors.Is(err, consts.ErrInvalidInfoHash) {
			// The hash was well formed, it is just not in the catalog
			abortWithError(c, consts.ErrTorrentNotFound)
			return
		}
		abortWithError(c, errors.Wrap(consts.ErrDatabase, err.Error()))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *IndexAPI) announceURL(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		abortWithError(c, consts.ErrInvalidUserID)
		return
	}
	u, err := a.tracker.PersonalAnnounceURL(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, AnnounceURLResponse{AnnounceURL: u})
}
