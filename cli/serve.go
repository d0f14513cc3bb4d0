package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	actx "go.hackfix.me/scriptomate/app/context"
	aerrors "go.hackfix.me/scriptomate/app/errors"
	"go.hackfix.me/scriptomate/sequence"
	"go.hackfix.me/scriptomate/sequence/store"
	"go.hackfix.me/scriptomate/web/server"
)

// Serve starts the sequence number service.
type Serve struct {
	Address  string `arg:"" optional:"" help:"[host]:port to listen on. Defaults to the configured server address."`
	Password string `help:"Password clients must send. Defaults to the configured server password."`
}

// Run the serve command.
func (c *Serve) Run(appCtx *actx.Context) error {
	if c.Password == "" {
		return aerrors.NewWith("a server password is required")
	}

	cfg := appCtx.Config.Sequence
	st, err := store.Open(appCtx.Ctx, cfg.StoreOptions())
	if err != nil {
		return aerrors.NewWithCause("failed opening counter store", err, "store", cfg.Store.V)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			appCtx.Logger.Warn("failed closing counter store", "error", cerr.Error())
		}
	}()

	alloc, err := sequence.NewAllocator(
		sequence.WithStore(st),
		sequence.WithTimeNow(appCtx.TimeNow),
		sequence.WithLogger(appCtx.Logger),
	)
	if err != nil {
		return err //nolint:wrapcheck // Validation error.
	}

	srv := server.New(c.Address, alloc, c.Password, appCtx.Logger)

	// Gracefully shutdown the server if a process signal is received, or the
	// main context is done.
	// See https://dev.to/mokiat/proper-http-shutdown-in-go-3fji
	srvDone := make(chan error, 1)
	go func() {
		srvErr := srv.ListenAndServe()
		slog.Debug("web server shutdown")
		srvDone <- srvErr
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		slog.Debug("process received signal", "signal", s)
	case <-appCtx.Ctx.Done():
		slog.Debug("app context is done")
	case srvErr := <-srvDone:
		if srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
			return fmt.Errorf("web server error: %w", srvErr)
		}
		return nil
	}

	// The main context may already be done, so don't use it for shutting down.
	if err = srv.Shutdown(context.WithoutCancel(appCtx.Ctx)); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed shutting down web server: %w", err)
	}
	<-srvDone

	return nil
}
