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

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/clinicauth/internal/adapter/driven/notify"
	oauthadapter "github.com/ericfisherdev/clinicauth/internal/adapter/driven/oauth"
	pgadapter "github.com/ericfisherdev/clinicauth/internal/adapter/driven/postgres"
	"github.com/ericfisherdev/clinicauth/internal/adapter/driven/sealbox"
	sqliteadapter "github.com/ericfisherdev/clinicauth/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/clinicauth/internal/adapter/driven/token"
	httphandler "github.com/ericfisherdev/clinicauth/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/clinicauth/internal/adapter/driving/web"
	"github.com/ericfisherdev/clinicauth/internal/application"
	"github.com/ericfisherdev/clinicauth/internal/config"
	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

const tokenIssuer = "clinicauth"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// stores groups the persistence adapters selected at startup.
type stores struct {
	accounts driven.AccountStore
	ledger   driven.OTPLedger
	links    driven.ProviderLinkStore
	probe    driven.HealthProbe
	close    func()
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"postgres", cfg.UsePostgres(),
		"db_path", cfg.DBPath,
		"notifier", cfg.Notifier,
		"session_ttl", cfg.SessionTTL,
		"sweep_interval", cfg.SweepInterval,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Token encryption for provider links (optional).
	var box *sealbox.Box
	if cfg.SecretKey != nil {
		if box, err = sealbox.New(cfg.SecretKey); err != nil {
			return err
		}
	} else {
		slog.Warn("CLINICAUTH_SECRET_KEY not set, provider access tokens will not be stored")
	}

	// 4. Open the database and run migrations.
	st, err := openStores(ctx, cfg, box)
	if err != nil {
		return err
	}
	defer st.close()

	// 5. Wire driven adapters.
	signer := token.NewSigner(cfg.SessionSecret, tokenIssuer, cfg.SessionTTL)
	notifier := newNotifier(cfg)
	providers := newIdentityProviders(cfg)

	// 6. Application services.
	issuer := application.NewIssuanceService(st.accounts, st.ledger, notifier)
	verifier := application.NewVerificationService(st.accounts, st.ledger, signer)
	federated := application.NewFederatedService(st.accounts, st.links, signer, providers...)
	auth := application.NewAuthenticator(verifier, federated)
	sessions := application.NewSessionService(signer, st.accounts)
	health := application.NewHealthService(map[string]driven.HealthProbe{"database": st.probe})

	// 7. Periodic purge of expired codes.
	if cfg.SweepInterval > 0 {
		sweeper := application.NewLedgerSweeper(st.ledger, cfg.SweepInterval)
		go sweeper.Start(ctx)
	} else {
		slog.Info("otp sweeper disabled; expired codes are removed on read")
	}

	// 8. Create HTTP handler and register API routes.
	cookies := httphandler.CookieConfig{Secure: cfg.SecureCookies}
	apiHandler := httphandler.NewHandler(issuer, auth, sessions, health, cookies, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	// 9. Create web handler and register GUI routes.
	webHandler := webhandler.NewHandler(
		cfg.ClinicName,
		issuer,
		auth,
		federated,
		sessions,
		webhandler.NewSessionManager(cfg.SecureCookies),
		cookies,
		slog.Default(),
	)
	webhandler.RegisterRoutes(mux, webHandler)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("clinicauth started",
		"listen_addr", cfg.ListenAddr,
		"base_url", cfg.BaseURL,
		"providers", federated.Providers(),
	)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// openStores opens PostgreSQL when a database URL is configured and the
// embedded SQLite database otherwise. Migrations run before returning.
func openStores(ctx context.Context, cfg *config.Config, box *sealbox.Box) (*stores, error) {
	if cfg.UsePostgres() {
		db, err := pgadapter.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pgadapter.RunMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("postgres database opened, migrations complete")

		return &stores{
			accounts: pgadapter.NewAccountRepo(db),
			ledger:   pgadapter.NewOTPLedger(db),
			links:    pgadapter.NewProviderLinkRepo(db, box),
			probe:    db,
			close:    db.Close,
		}, nil
	}

	// Dual reader/writer with WAL mode.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}
	version, err := sqliteadapter.SchemaVersion(db.Writer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("sqlite database opened, migrations complete", "path", cfg.DBPath, "schema_version", version)

	return &stores{
		accounts: sqliteadapter.NewAccountRepo(db),
		ledger:   sqliteadapter.NewOTPLedger(db),
		links:    sqliteadapter.NewProviderLinkRepo(db, box),
		probe:    db,
		close: func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		},
	}, nil
}

func newNotifier(cfg *config.Config) driven.Notifier {
	if cfg.Notifier == config.NotifierSMTP {
		slog.Info("smtp notifier configured", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			Username:   cfg.SMTP.Username,
			Password:   cfg.SMTP.Password,
			From:       cfg.SMTP.From,
			ClinicName: cfg.ClinicName,
		})
	}

	slog.Warn("log notifier configured: codes are written to the log, do not use in production")
	return notify.NewLogNotifier(slog.Default())
}

func newIdentityProviders(cfg *config.Config) []driven.IdentityProvider {
	var providers []driven.IdentityProvider
	if cfg.Google.Enabled() {
		providers = append(providers, oauthadapter.NewGoogleProvider(
			cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.OAuthRedirectURL(model.ProviderGoogle)))
	}
	if cfg.GitHub.Enabled() {
		providers = append(providers, oauthadapter.NewGitHubProvider(
			cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.OAuthRedirectURL(model.ProviderGitHub)))
	}
	return providers
}
