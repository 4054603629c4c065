package util

import (
	"context"
	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/require"
	"syscall"
	"testing"
	"time"
)

func TestSignalContext(t *testing.T) {
	defer leaktest.Check(t)()
	ctx, cancel := SignalContext(context.Background())
	defer cancel()
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGHUP))
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("context not cancelled by signal")
	}
}

func TestSignalContext_Cancel(t *testing.T) {
	defer leaktest.Check(t)()
	ctx, cancel := SignalContext(context.Background())
	cancel()
	<-ctx.Done()
	require.Equal(t, context.Canceled, ctx.Err())
}
