package util

import (
	"context"
	log "github.com/sirupsen/logrus"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context that is cancelled once the process receives a
// termination signal, or when the returned cancel func is called.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Warnf("Caught signal %s, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
