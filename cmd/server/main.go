package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-import/assets"
	"github.com/ogurasousui/codex-employee-import/internal/adapters/grpc/handler"
	pgrepo "github.com/ogurasousui/codex-employee-import/internal/adapters/repository/postgres"
	sqliterepo "github.com/ogurasousui/codex-employee-import/internal/adapters/repository/sqlite"
	memsession "github.com/ogurasousui/codex-employee-import/internal/adapters/session/memory"
	redissession "github.com/ogurasousui/codex-employee-import/internal/adapters/session/redis"
	fsstaging "github.com/ogurasousui/codex-employee-import/internal/adapters/staging/fs"
	s3staging "github.com/ogurasousui/codex-employee-import/internal/adapters/staging/s3"
	"github.com/ogurasousui/codex-employee-import/internal/adapters/web"
	"github.com/ogurasousui/codex-employee-import/internal/core/batch"
	"github.com/ogurasousui/codex-employee-import/internal/core/employee"
	"github.com/ogurasousui/codex-employee-import/internal/core/employeeimport"
	"github.com/ogurasousui/codex-employee-import/internal/core/selection"
	"github.com/ogurasousui/codex-employee-import/internal/platform/access"
	"github.com/ogurasousui/codex-employee-import/internal/platform/config"
	pg "github.com/ogurasousui/codex-employee-import/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-employee-import/internal/platform/db/sqlite"
	"github.com/ogurasousui/codex-employee-import/internal/platform/logging"
	"github.com/ogurasousui/codex-employee-import/internal/platform/metrics"
	"github.com/ogurasousui/codex-employee-import/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	employeeSvc, closeDB, err := newEmployeeService(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB()

	staging, err := newStagingStore(ctx, cfg.Staging)
	if err != nil {
		return err
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer closeSessions()

	authz, err := access.New(cfg.Access.Policy)
	if err != nil {
		return err
	}

	recorder := metrics.NewImport()
	importSvc := employeeimport.NewService(
		batch.NewService(staging, nil),
		selection.NewService(sessions),
		employeeSvc,
		recorder,
		employeeimport.Options{DeleteAfterImport: cfg.Staging.DeleteAfterImport},
	)

	deps := web.Deps{
		Imports:         importSvc,
		Employees:       employeeSvc,
		Authz:           authz,
		Logger:          logger,
		Session:         web.SessionOptions{CookieName: cfg.Session.CookieName, TTL: cfg.Session.TTL},
		RoleHeader:      cfg.Access.RoleHeader,
		TrustRoleHeader: cfg.Access.TrustRoleHeader,
		DefaultRole:     cfg.Access.DefaultRole,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = recorder.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	webSrv, err := web.NewServer(deps)
	if err != nil {
		return err
	}

	httpSrv := server.NewHTTP(cfg.Server.HTTPListenAddr, webSrv.Routes(), server.HTTPOptions{
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	running := 1
	go func() {
		logger.WithField("addr", cfg.Server.HTTPListenAddr).Info("http server listening")
		errs <- httpSrv.Run(ctx)
	}()

	if cfg.Server.GRPCListenAddr != "" {
		running++
		grpcSrv := server.New(cfg.Server.GRPCListenAddr, importSvc, employeeSvc, logger, authz, handler.AccessOptions{
			DefaultRole:       cfg.Access.DefaultRole,
			TrustRoleMetadata: cfg.Access.TrustRoleHeader,
		})
		go func() {
			logger.WithField("addr", cfg.Server.GRPCListenAddr).Info("grpc server listening")
			errs <- grpcSrv.Run(ctx)
		}()
	}

	var joined error
	for i := 0; i < running; i++ {
		if err := <-errs; err != nil {
			joined = errors.Join(joined, err)
		}
		cancel()
	}
	return joined
}

func newEmployeeService(ctx context.Context, cfg config.DatabaseConfig) (*employee.Service, func(), error) {
	switch cfg.Driver {
	case config.DatabaseDriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Migrate(db, assets.Migrations, path.Join("migrations", config.DatabaseDriverSQLite)); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return employee.NewService(sqliterepo.NewEmployeeRepository(db), nil, nil), closeSQL(db), nil
	default:
		pool, err := pg.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize database pool: %w", err)
		}
		return employee.NewService(pgrepo.NewEmployeeRepository(pool), nil, pg.NewTransactionManager(pool)), closePool(pool), nil
	}
}

func closeSQL(db *sql.DB) func() {
	return func() { _ = db.Close() }
}

func closePool(pool *pgxpool.Pool) func() {
	return pool.Close
}

func newStagingStore(ctx context.Context, cfg config.StagingConfig) (batch.Store, error) {
	switch cfg.Driver {
	case config.StagingDriverS3:
		return s3staging.New(ctx, s3staging.Config{
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return fsstaging.New(cfg.Dir)
	}
}

func newSessionStore(ctx context.Context, cfg config.SessionConfig) (selection.Store, func(), error) {
	switch cfg.Driver {
	case config.SessionDriverRedis:
		client, err := redissession.NewClient(ctx, redissession.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return redissession.New(client, cfg.Redis.Prefix, cfg.TTL), func() { _ = client.Close() }, nil
	default:
		return memsession.New(cfg.TTL), func() {}, nil
	}
}
