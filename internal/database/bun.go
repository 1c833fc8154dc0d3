package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/rechu/catalog/internal/models"
	apperrors "github.com/rechu/catalog/pkg/errors"
)

type BunDB struct {
	*bun.DB
	config Config
}

func NewBun(cfg Config) (*BunDB, error) {
	// Build connection string
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		cfg.SSLMode,
	)

	// Create SQL DB connection
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	// Configure connection pool
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(30 * time.Minute)

	// Create Bun DB instance
	db := bun.NewDB(sqldb, pgdialect.New())

	// Add query logging in development
	if cfg.MaxOpenConns <= 10 { // Assume development environment
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Register models for better query building
	registerModels(db)

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Int("max_conns", cfg.MaxOpenConns).
		Msg("Bun ORM initialized successfully")

	return &BunDB{
		DB:     db,
		config: cfg,
	}, nil
}

// NewBunFromURI opens a BunDB from a single connection URI, the shape
// settings.DatabaseURI() hands back (mirrors rechu/database.py's
// `create_engine(settings.get('database', 'uri'))`, which accepts any
// SQLAlchemy dialect URI). Only the two dialects this module's go.mod
// actually carries are recognized: "sqlite://" (file-backed, the
// default for a local catalog) and "postgres(ql)://" (the teacher's
// dialect, for a shared deployment). Any other scheme is a Validation
// error rather than a silent fallback.
func NewBunFromURI(uri string) (*BunDB, error) {
	switch {
	case strings.HasPrefix(uri, "sqlite://"):
		return newSQLiteBun(strings.TrimPrefix(uri, "sqlite://"))
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return newPostgresBunFromURI(uri)
	default:
		return nil, apperrors.ValidationF("unsupported database uri scheme: %s", uri)
	}
}

func newSQLiteBun(dsn string) (*BunDB, error) {
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	registerModels(db)
	log.Info().Str("dsn", dsn).Msg("Bun ORM initialized against sqlite")
	return &BunDB{DB: db}, nil
}

func newPostgresBunFromURI(dsn string) (*BunDB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	registerModels(db)
	log.Info().Msg("Bun ORM initialized against postgres")
	return &BunDB{DB: db}, nil
}

func (db *BunDB) Close() error {
	if db.DB != nil {
		log.Info().Msg("Closing Bun database connection")
		return db.DB.Close()
	}
	return nil
}

func (db *BunDB) Health() error {
	return db.DB.Ping()
}

// registerModels registers the DiscountItem join model so bun can
// resolve Receipt.Discounts's m2m relation (a has-many relation needs
// no registration; an m2m one does, since bun has to look the join
// model up by reflection to build the join query).
func registerModels(db *bun.DB) {
	db.RegisterModel((*models.DiscountItem)(nil))
}

// CreateTables creates every table this module persists, in dependency
// order (parents before the rows that reference them), for local
// development and the sqlite test fixtures. Production schema changes
// go through migrations, not this method.
func (db *BunDB) CreateTables() error {
	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Shop)(nil),
		(*models.Product)(nil),
		(*models.LabelMatch)(nil),
		(*models.PriceMatch)(nil),
		(*models.DiscountMatch)(nil),
		(*models.Receipt)(nil),
		(*models.ProductItem)(nil),
		(*models.Discount)(nil),
		(*models.DiscountItem)(nil),
	} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}
	return nil
}

// DropTables drops every table CreateTables creates, in reverse order,
// for test teardown.
func (db *BunDB) DropTables() error {
	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.DiscountItem)(nil),
		(*models.Discount)(nil),
		(*models.ProductItem)(nil),
		(*models.Receipt)(nil),
		(*models.DiscountMatch)(nil),
		(*models.PriceMatch)(nil),
		(*models.LabelMatch)(nil),
		(*models.Product)(nil),
		(*models.Shop)(nil),
	} {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", model, err)
		}
	}
	return nil
}
