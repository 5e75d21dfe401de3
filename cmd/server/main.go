package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/mailer"
)

// AppConfig is loaded from the environment. It satisfies identity.Config.
type AppConfig struct {
	Port                 int    `env:"PORT" envDefault:"3000"`
	DatabaseDSN          string `env:"DATABASE_DSN" envDefault:"file:identity.db?cache=shared&_pragma=foreign_keys(1)"`
	SigningKey           string `env:"SECRET_KEY,required"`
	TokenExpirationHours int    `env:"TOKEN_EXPIRATION_HOURS" envDefault:"24"`
	BcryptCost           int    `env:"BCRYPT_COST" envDefault:"10"`
	Issuer               string `env:"TOKEN_ISSUER" envDefault:"identity"`
	BaseURL              string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	AvatarsDir           string `env:"AVATARS_DIR" envDefault:"public/avatars"`
	TmpDir               string `env:"TMP_DIR" envDefault:"tmp"`
	SMTPHost             string `env:"SMTP_HOST"`
	SMTPPort             int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername         string `env:"SMTP_USERNAME"`
	SMTPPassword         string `env:"SMTP_PASSWORD"`
	SMTPFrom             string `env:"SMTP_FROM"`
}

func (c AppConfig) GetSigningKey() string   { return c.SigningKey }
func (c AppConfig) GetTokenExpiration() int { return c.TokenExpirationHours }
func (c AppConfig) GetBcryptCost() int      { return c.BcryptCost }
func (c AppConfig) GetIssuer() string       { return c.Issuer }
func (c AppConfig) GetBaseURL() string      { return c.BaseURL }

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("identity"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := AppConfig{}
	if err := env.Parse(&cfg); err != nil {
		lgr.Error("unable to load configuration", "error", err)
		os.Exit(1)
	}

	for _, dir := range []string{cfg.AvatarsDir, cfg.TmpDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			lgr.Error("unable to create directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	sqlDB, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		lgr.Error("unable to open database", "error", err)
		os.Exit(1)
	}

	if err := identity.ApplyMigrations(sqlDB, identity.GetMigrationsFS(), identity.MigrationsDir); err != nil {
		lgr.Error("unable to apply migrations", "error", err)
		os.Exit(1)
	}

	db := bun.NewDB(sqlDB, sqlitedialect.New())

	repo := identity.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		lgr.Error("repository validation failed", "error", err)
		os.Exit(1)
	}

	tokens := identity.NewTokenService(
		[]byte(cfg.SigningKey),
		cfg.TokenExpirationHours,
		cfg.Issuer,
		lgr.GetLogger("tokens"),
	)

	accounts := identity.NewAccounts(repo, cfg).
		WithLogger(lgr.GetLogger("accounts")).
		WithTokenService(tokens)

	if cfg.SMTPHost != "" {
		smtp, err := mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			lgr.Error("unable to create mailer", "error", err)
			os.Exit(1)
		}
		accounts.WithMailer(smtp)
	} else {
		lgr.Warn("SMTP_HOST not set, verification emails will be dropped")
	}

	avatars := identity.NewAvatarPipeline(repo, cfg.AvatarsDir).
		WithLogger(lgr.GetLogger("avatars"))

	auth := identity.NewRouteAuthenticator(tokens, repo).
		WithLogger(lgr.GetLogger("auth"))

	ctrl := identity.NewHTTPController(
		identity.WithControllerLogger(lgr.GetLogger("http")),
		identity.WithControllerAccounts(accounts),
		identity.WithControllerAvatars(avatars),
		identity.WithControllerAuth(auth),
		identity.WithControllerRepo(repo),
		identity.WithControllerTmpDir(cfg.TmpDir),
	)

	app := fiber.New(fiber.Config{
		AppName: "identity",
	})

	app.Static("/avatars", cfg.AvatarsDir)

	ctrl.RegisterRoutes(app)

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			lgr.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	lgr.Info("server listening", "port", cfg.Port)

	WaitExitSignal()

	if err := app.Shutdown(); err != nil {
		lgr.Error("shutdown failed", "error", err)
	}

	if err := db.Close(); err != nil {
		lgr.Error("database close failed", "error", err)
	}
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
