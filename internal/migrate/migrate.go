package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// migrateLogger adapts *log.Logger to migrate.Logger.
type migrateLogger struct {
	logger *log.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Printf("migrate: "+format, v...)
}

func (l migrateLogger) Verbose() bool { return false }

type runner struct {
	m     *migrate.Migrate
	sqlDB *sql.DB
}

func (r *runner) Close() {
	r.m.Close()
	r.sqlDB.Close()
}

func open(ctx context.Context, pool *pgxpool.Pool, logger *log.Logger) (*runner, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	srcDriver, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("init iofs: %w", err)
	}

	sqlDB, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return nil, fmt.Errorf("open sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sql db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "pgx", dbDriver)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	m.Log = migrateLogger{logger: logger}
	return &runner{m: m, sqlDB: sqlDB}, nil
}

// Apply runs all migrations up using the embedded migration files.
// An up-to-date schema is not an error.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *log.Logger) error {
	r, err := open(ctx, pool, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("migrate up: %w (hint: every migration version needs both `.up.sql` and `.down.sql`; migrations are embedded at build time)", err)
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Rollback reverts the given number of applied migrations.
func Rollback(ctx context.Context, pool *pgxpool.Pool, steps int, logger *log.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	r, err := open(ctx, pool, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down %d: %w", steps, err)
	}
	return nil
}

// Version reports the applied schema version. A fresh database has version 0.
func Version(ctx context.Context, pool *pgxpool.Pool) (uint, bool, error) {
	r, err := open(ctx, pool, nil)
	if err != nil {
		return 0, false, err
	}
	defer r.Close()

	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read version: %w", err)
	}
	return version, dirty, nil
}
