package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/linecover/logging"
)

type fakeServer struct {
	started, stopped atomic.Int32
	startErr         error
}

func (s *fakeServer) Start(ctx context.Context) error {
	s.started.Add(1)
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeServer) Stop(context.Context) error {
	s.stopped.Add(1)
	return nil
}

func TestApp_RunUntilCancelled(t *testing.T) {
	srv := &fakeServer{}
	var cleaned []string
	a := New("test", logging.Discard(),
		WithServer(srv),
		WithCleanup(func() { cleaned = append(cleaned, "first") }),
		WithCleanup(func() { cleaned = append(cleaned, "second") }),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Run(ctx))

	assert.Equal(t, int32(1), srv.started.Load())
	assert.Equal(t, int32(1), srv.stopped.Load())
	assert.Equal(t, []string{"second", "first"}, cleaned)
}

func TestApp_FailingRunnerStopsEverything(t *testing.T) {
	srv := &fakeServer{}
	boom := errors.New("listen failed")
	a := New("test", logging.Discard(),
		WithServer(srv),
		WithRunner("metrics", func(context.Context) error { return boom }),
	)

	err := a.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), srv.stopped.Load())
}
