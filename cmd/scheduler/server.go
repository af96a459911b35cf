package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

func newHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serve blocks until the server stops. A graceful shutdown is not an error.
func (app *application) serve(server *http.Server) error {
	app.logger.Info("starting realtime server", slog.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("realtime server failed: %w", err)
	}
	return nil
}

// shutdown stops accepting connections and waits, up to the configured
// timeout, for in-flight job ticks to finish.
func (app *application) shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("realtime server shutdown failed: %w", err))
	}

	done := make(chan struct{})
	go func() {
		app.supervisor.Wait()
		close(done)
	}()
	select {
	case <-done:
		app.logger.Info("all job runners stopped")
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("job runners did not stop within %s", app.config.Server.ShutdownTimeout))
	}
	return errors.Join(errs...)
}
