// Package http exposes the index operations to the website over a small JSON api
package http

import (
	"context"
	"crypto/tls"
	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/toorop/gin-logrus"
	"net/http"
	"time"
)

// newRouter creates and returns a newly configured router instance using
// the default middleware handlers.
func newRouter() *gin.Engine {
	router := gin.New()
	router.Use(ginlogrus.Logger(log.StandardLogger()), gin.Recovery())
	return router
}

func noRoute(c *gin.Context) {
	c.Data(http.StatusNotFound, gin.MIMEPlain, []byte("nope"))
}

// statusForError maps the error taxonomy onto http status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, consts.ErrInvalidInfoHash), errors.Is(err, consts.ErrInvalidUserID):
		return http.StatusBadRequest
	case errors.Is(err, consts.ErrTorrentNotFound):
		return http.StatusNotFound
	case errors.Is(err, consts.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, consts.ErrWhitelisting):
		return http.StatusBadGateway
	case errors.Is(err, consts.ErrTrackerOffline):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPOpts is used to configure a http.Server instance
type HTTPOpts struct {
	ListenAddr     string
	Handler        http.Handler
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxHeaderBytes int
	// TLSConfig must carry the certificates when set
	TLSConfig *tls.Config
}

// DefaultHTTPOpts returns a default set of options for http.Server instances
func DefaultHTTPOpts() *HTTPOpts {
	return &HTTPOpts{
		ListenAddr:     "localhost:34001",
		Handler:        nil,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
		TLSConfig:      nil,
	}
}

// NewHTTPServer will configure and return a *http.Server suitable for serving requests.
// This should be used over the default ListenAndServe options as they do not set certain
// parameters, notably timeouts, which can negatively effect performance.
func NewHTTPServer(opts *HTTPOpts) *http.Server {
	return &http.Server{
		Addr:           opts.ListenAddr,
		Handler:        opts.Handler,
		TLSConfig:      opts.TLSConfig,
		ReadTimeout:    opts.ReadTimeout,
		WriteTimeout:   opts.WriteTimeout,
		MaxHeaderBytes: opts.MaxHeaderBytes,
	}
}

// Serve runs the server until the context is cancelled, then shuts it down gracefully
func Serve(ctx context.Context, srv *http.Server) error {
	errChan := make(chan error, 1)
	go func() {
		log.Infof("Listening on: %s", srv.Addr)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(c); err != nil {
		return errors.Wrap(err, "Error closing server gracefully")
	}
	return nil
}
