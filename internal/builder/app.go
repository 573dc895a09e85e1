package builder

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futig/rag-assistant/internal/session"
	"go.uber.org/zap"
)

// App represents the application with all its components
type App struct {
	server   *http.Server
	sessions *session.Registry
	cancel   context.CancelFunc
	logger   *zap.Logger
}

// Run starts the application and blocks until a shutdown signal or a server error
func (a *App) Run() error {
	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		a.logger.Error("Server error", zap.Error(err))
		a.closeSessions()
		return err
	case sig := <-sigChan:
		a.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	return a.shutdown()
}

// shutdown gracefully shuts down the application
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.logger.Info("Shutting down server gracefully")

	err := a.server.Shutdown(ctx)
	if err != nil {
		a.logger.Error("Server shutdown error", zap.Error(err))
	}

	a.closeSessions()

	if err != nil {
		return err
	}

	a.logger.Info("Application stopped gracefully")
	return nil
}

// closeSessions cancels in-flight backend requests and ends live views
func (a *App) closeSessions() {
	a.logger.Info("Closing client sessions", zap.Int("sessions", a.sessions.Count()))
	a.sessions.Close()
	a.cancel()
}
