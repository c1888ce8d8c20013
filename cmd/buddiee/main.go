package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/buddiee-app/buddiee/internal/health"
	"github.com/buddiee-app/buddiee/internal/server"
	"github.com/buddiee-app/buddiee/internal/service"
	"github.com/buddiee-app/buddiee/internal/service/impl"
	"github.com/buddiee-app/buddiee/internal/storage"
	"github.com/buddiee-app/buddiee/internal/storage/inmemory"
	"github.com/buddiee-app/buddiee/internal/storage/postgres"
	"github.com/buddiee-app/buddiee/internal/suggestions"
	"github.com/buddiee-app/buddiee/internal/suggestions/refresher"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Host           string        `long:"http.host" env:"HTTP_HOST" default:"0.0.0.0" description:"IP to listen on"`
	Port           int           `long:"http.port" env:"HTTP_PORT" default:"8080" description:"port to listen on for insecure connections"`
	RequestTimeout time.Duration `long:"http.request_timeout" env:"HTTP_REQUEST_TIMEOUT" default:"45s" description:"request processing timeout"`

	Postgres                   string `long:"postgres" env:"POSTGRES" default:"" description:"postgres dsn, empty means the in-memory storage with a json snapshot"`
	PostgresMaxOpenConnections int    `long:"postgres.max_open_connections" env:"POSTGRES_MAX_OPEN_CONNECTIONS" default:"0" description:"postgres maximal open connections count, 0 means unlimited"`
	PostgresMaxIdleConnections int    `long:"postgres.max_idle_connections" env:"POSTGRES_MAX_IDLE_CONNECTIONS" default:"5" description:"postgres maximal idle connections count"`
	PostgresMigrations         string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`

	SnapshotPath string `long:"snapshot.path" env:"SNAPSHOT_PATH" default:"data/buddiee.json" description:"path to the in-memory storage snapshot"`

	ScraperURL      string        `long:"scraper.url" env:"SCRAPER_URL" default:"" description:"scraper backend url, empty disables the suggestions refresher"`
	ScraperInterval time.Duration `long:"scraper.interval" env:"SCRAPER_INTERVAL" default:"1h" description:"interval between suggested posts refreshes"`

	AuthSecret string `long:"auth.secret" env:"AUTH_SECRET" default:"buddiee-dev-secret" description:"secret for signing access tokens"`

	LogLevel string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"Log level" choice:"debug" choice:"info" choice:"warning" choice:"error"`
}{}

var errTerminated = errors.New("terminated")

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Buddiee"
	parser.LongDescription = "Buddiee"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	lvl, _ := logrus.ParseLevel(opts.LogLevel) // err will always be nil
	logrus.SetLevel(lvl)

	logrus.Info("service started")
	logrus.Infof("%+v", opts)

	s := mustGetStorage()
	srv := impl.New(s)

	pingers := []health.Pinger{
		health.SubjectPinger("storage", s.Ping),
	}

	r := chi.NewMux()
	server.SetupRouter(srv, r, []byte(opts.AuthSecret), opts.RequestTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	gr, _ := errgroup.WithContext(ctx)

	if ref := getRefresher(srv); ref != nil {
		pingers = append(pingers, ref)
		gr.Go(func() error {
			return ref.Run(ctx)
		})
	}

	r.Get("/health", health.Handler(
		5*time.Second,
		pingers...,
	))

	httpSrv := http.Server{
		Addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler: r,
	}

	gr.Go(httpSrv.ListenAndServe)
	gr.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		s := <-sigs

		logrus.Infof("terminating by %s signal", s)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("failed to shutdown server gracefully")
		}

		cancel()

		return errTerminated
	})

	logrus.Info("server listening")

	if err := gr.Wait(); err != nil && !errors.Is(err, errTerminated) && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("service unexpectedly closed")
	}
}

func mustGetStorage() storage.Storage {
	if opts.Postgres == "" {
		s, err := inmemory.NewWithSnapshot(opts.SnapshotPath)
		if err != nil {
			logrus.WithError(err).Fatal("failed to load storage snapshot")
		}

		logrus.WithField("path", opts.SnapshotPath).Info("using in-memory storage")

		return s
	}

	return postgres.New(mustGetDB())
}

func getRefresher(s service.Service) suggestions.Refresher {
	if opts.ScraperURL == "" {
		logrus.Info("empty scraper url")
		logrus.Warn("skip suggestions refresher initialization")

		return nil
	}

	return refresher.New(suggestions.NewClient(opts.ScraperURL), s, opts.ScraperInterval)
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}
	db.SetMaxOpenConns(opts.PostgresMaxOpenConnections)
	db.SetMaxIdleConns(opts.PostgresMaxIdleConnections)

	if err := db.PingContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	driver, err := migratep.WithInstance(db, &migratep.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create database migrate driver")
	}

	migrator, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", opts.PostgresMigrations), "postgres", driver)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}

	switch v, d, err := migrator.Version(); err {
	case nil:
		logrus.Infof("database version %d with dirty state %t", v, d)
	case migrate.ErrNilVersion:
		logrus.Info("database version: nil")
	default:
		logrus.WithError(err).Fatal("failed to get version")
	}

	switch err := migrator.Up(); err {
	case nil:
		logrus.Info("database was migrated")
	case migrate.ErrNoChange:
		logrus.Info("database is up-to-date")
	default:
		logrus.WithError(err).Fatal("failed to migrate db")
	}

	return db
}
