// Command stubserver serves the page endpoints targeted by the default salvo
// configuration, with configurable status, latency and failure pattern.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/torosent/salvo/internal/logging"
	"github.com/torosent/salvo/internal/stubserver"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		addr     string
		opts     stubserver.Options
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "stubserver",
		Short:         "Serve /api/test/{applications,issues,applicants} for local load runs",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logging.Options{Level: logLevel, Writer: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			if opts.Status < 100 || opts.Status > 599 {
				return fmt.Errorf("status must be between 100 and 599, got %d", opts.Status)
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			return serve(cmd.Context(), ln, stubserver.New(opts), logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":7100", "listen address")
	flags.IntVar(&opts.Status, "status", http.StatusOK, "status code returned by page endpoints")
	flags.DurationVar(&opts.Latency, "latency", 0, "delay before each page response")
	flags.IntVar(&opts.FailEvery, "fail-every", 0, "answer 500 to every n-th request (0 disables)")
	flags.StringVar(&logLevel, "log-level", "info", "log level")

	return cmd
}

// serve runs handler on ln until ctx ends, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("stub server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down stub server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
