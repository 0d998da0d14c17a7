package workers

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type closerFunc func(ctx context.Context) error

func (f closerFunc) Close(ctx context.Context) error { return f(ctx) }

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestHTTPServerWorker_ServesUntilCanceled(t *testing.T) {
	req := require.New(t)
	addr := freeAddr(t)
	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	}

	drained := false
	worker := NewHTTPServerWorker(slog.Default(), server, time.Second, closerFunc(func(context.Context) error {
		drained = true
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	req.Eventually(func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/", addr))
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		req.NoError(err)
		req.True(drained)
	case <-time.After(2 * time.Second):
		req.Fail("worker should stop once canceled")
	}
}

func TestHTTPServerWorker_ListenFailureIsReturned(t *testing.T) {
	req := require.New(t)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	defer func() { _ = l.Close() }()

	worker := NewHTTPServerWorker(slog.Default(), &http.Server{Addr: l.Addr().String()}, time.Second)
	req.Error(worker.Run(context.Background()))
}

type fixedSessions int

func (f fixedSessions) Count() int { return int(f) }

func TestHeartbeatWorker_StopsWithContext(t *testing.T) {
	req := require.New(t)
	worker := NewHeartbeatWorker(slog.Default(), fixedSessions(3), 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	req.NoError(worker.Run(ctx))
}
