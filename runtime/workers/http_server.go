package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"
)

// Closer is a component to drain before the listener goes away, such as the realtime gateway.
type Closer interface {
	Close(ctx context.Context) error
}

// HTTPServerWorker serves the API and the realtime endpoint until ctx is canceled,
// then drains hijacked connections and shuts the server down gracefully.
type HTTPServerWorker struct {
	log             *slog.Logger
	server          *http.Server
	drain           []Closer
	shutdownTimeout time.Duration
}

func NewHTTPServerWorker(log *slog.Logger, server *http.Server, shutdownTimeout time.Duration, drain ...Closer) *HTTPServerWorker {
	return &HTTPServerWorker{log: log, server: server, drain: drain, shutdownTimeout: shutdownTimeout}
}

func (w *HTTPServerWorker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		w.log.Info("HTTP server listening", "addr", w.server.Addr)
		errCh <- w.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.shutdownTimeout)
	defer cancel()
	for _, c := range w.drain {
		if err := c.Close(shutdownCtx); err != nil {
			w.log.Warn("Drain incomplete", "error", err)
		}
	}
	if err := w.server.Shutdown(shutdownCtx); err != nil {
		w.log.Error("HTTP server shutdown failed", "error", err)
		return nil
	}
	w.log.Info("HTTP server stopped")
	return nil
}
