package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	bankadapter "github.com/ericfisherdev/creditgate/internal/adapter/driven/bank"
	promadapter "github.com/ericfisherdev/creditgate/internal/adapter/driven/prometheus"
	httphandler "github.com/ericfisherdev/creditgate/internal/adapter/driving/http"
	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/bootstrap"
	"github.com/ericfisherdev/creditgate/internal/config"
	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
	"github.com/ericfisherdev/creditgate/internal/platform/otel"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"store_driver", cfg.StoreDriver,
		"bank_configured", cfg.HasBank(),
		"upstream_timeout", cfg.UpstreamTimeout,
		"renewal_interval", cfg.RenewalInterval,
		"metrics_enabled", cfg.MetricsEnabled,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Tracing (no-op without an endpoint).
	shutdownTracing, err := otel.Setup(ctx, "creditgate", version, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("error flushing traces", "error", err)
		}
	}()

	// 4. Open the credential store and run its migrations.
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 5. Wire the downstream bank connector.
	var connector driven.BankConnector = unconfiguredBank{}
	if cfg.HasBank() {
		connector, err = bankadapter.NewConnector(cfg.BankBaseURL, slog.Default())
		if err != nil {
			return err
		}
	} else {
		slog.Warn("no bank bridge configured, logins will fail")
	}

	// 6. Create application services.
	sessions := application.NewSessionTable()

	var usage driven.UsageRecorder
	var metrics *promadapter.Metrics
	if cfg.MetricsEnabled {
		metrics = promadapter.New(sessions.Len)
		usage = metrics
	}

	ledger := application.NewCreditLedger(store, slog.Default())
	auth := application.NewAuthService(store, sessions, nil)
	login := application.NewLoginService(connector, sessions, cfg.UpstreamTimeout, slog.Default())
	pipeline := application.NewPipeline(ledger, usage, cfg.UpstreamTimeout, slog.Default())

	// 7. Start credit renewal when enabled.
	if cfg.RenewalInterval > 0 {
		renewal := application.NewRenewalService(store, cfg.RenewalInterval, slog.Default())
		go renewal.Start(ctx)
	}

	// 8. Create HTTP handler and server.
	apiHandler := httphandler.NewHandler(auth, login, pipeline, slog.Default())
	var handler http.Handler
	if metrics != nil {
		handler = httphandler.NewServeMux(apiHandler, metrics.Handler(), metrics, slog.Default())
	} else {
		handler = httphandler.NewServeMux(apiHandler, nil, nil, slog.Default())
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 9. Log startup complete.
	slog.Info("creditgate started", "version", version, "listen_addr", cfg.ListenAddr)

	// 10. Wait for shutdown signal or server failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		slog.Error("http server error", "error", err)
		stop()
	}

	// 11. Graceful shutdown, letting in-flight downstream calls finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.UpstreamTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// unconfiguredBank rejects every login when no bridge URL is set.
type unconfiguredBank struct{}

func (unconfiguredBank) Login(context.Context, model.LinkedAccount) (driven.BankAccount, error) {
	return nil, errors.New("bank bridge is not configured")
}
