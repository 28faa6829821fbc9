package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"parking-system/internal/config"
	"parking-system/internal/logging"
	"parking-system/internal/parking"
	"parking-system/internal/server"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "parking-lot",
		Short:        "A fixed-capacity parking lot driven by line commands",
		Long:         `Reads parking lot commands from standard input, one per line, and writes results to standard output. Can also serve the same lot over HTTP.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml)")
	cmd.Flags().String("mode", "cli", "Mode to run: cli, server, or both")
	cmd.Flags().String("port", "8080", "Port for HTTP server")
	cmd.Flags().String("prompt", "$ ", "Prompt written before each command; empty disables it")
	cmd.Flags().String("slot-mode", "compact", "Slot numbering: compact or fixed")

	_ = v.BindPFlag("mode", cmd.Flags().Lookup("mode"))
	_ = v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("shell.prompt", cmd.Flags().Lookup("prompt"))
	_ = v.BindPFlag("lot.slot_mode", cmd.Flags().Lookup("slot-mode"))

	return cmd
}

func run(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logCloser, err := logging.Configure(cfg.Log, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	telemetryProvider, err := parking.NewTelemetryProvider(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer shutdownTelemetry(telemetryProvider)

	slotMode, err := parking.ParseSlotMode(cfg.Lot.SlotMode)
	if err != nil {
		return err
	}

	session, err := parking.NewSession(telemetryProvider, slotMode)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shell := parking.NewShell(session,
		parking.WithInput(in),
		parking.WithOutput(out),
		parking.WithPrompt(cfg.Shell.Prompt),
	)

	switch cfg.Mode {
	case "cli":
		return runCLI(ctx, shell)
	case "server":
		return runServer(ctx, cfg, session)
	case "both":
		return runBoth(ctx, cfg, session, shell)
	default:
		return fmt.Errorf("invalid mode: %s. Must be cli, server, or both", cfg.Mode)
	}
}

// startShell runs the shell in its own goroutine; a blocked read cannot
// observe cancellation, so callers select on ctx as well.
func startShell(ctx context.Context, shell *parking.Shell) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- shell.Run(ctx)
	}()
	return done
}

func runCLI(ctx context.Context, shell *parking.Shell) error {
	select {
	case err := <-startShell(ctx, shell):
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case <-ctx.Done():
		logging.Info(context.Background(), "Shutting down...")
		return nil
	}
}

func startServer(cfg config.Config, session *parking.Session) (*server.Server, <-chan error) {
	srv := server.NewServer(cfg.Server, session, cfg.Telemetry.ServiceName)

	serverDone := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()
	return srv, serverDone
}

func stopServer(srv *server.Server, timeout time.Duration) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf(shutdownCtx, "Server shutdown error: %v", err)
	}
}

func runServer(ctx context.Context, cfg config.Config, session *parking.Session) error {
	logging.Infof(ctx, "Starting server mode on port %s", cfg.Server.Port)
	srv, serverDone := startServer(cfg, session)

	select {
	case err := <-serverDone:
		return err
	case <-ctx.Done():
		logging.Info(context.Background(), "Received shutdown signal...")
		stopServer(srv, cfg.Server.ShutdownTimeout)
		return <-serverDone
	}
}

func runBoth(ctx context.Context, cfg config.Config, session *parking.Session, shell *parking.Shell) error {
	logging.Infof(ctx, "Starting HTTP server on port %s", cfg.Server.Port)
	srv, serverDone := startServer(cfg, session)
	cliDone := startShell(ctx, shell)

	var err error
	select {
	case err = <-serverDone:
		return err
	case err = <-cliDone:
		logging.Info(context.Background(), "CLI exited")
	case <-ctx.Done():
		logging.Info(context.Background(), "Received shutdown signal...")
	}

	stopServer(srv, cfg.Server.ShutdownTimeout)
	<-serverDone

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func shutdownTelemetry(telemetryProvider *parking.TelemetryProvider) {
	ctx := context.Background()
	logging.Info(ctx, "Shutting down telemetry...")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		logging.Errorf(ctx, "Error shutting down telemetry: %v", err)
	}
}
