// Package sqlitestore provides the SQLite-backed moderation.Store.
package sqlitestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mentorhub/internal/models"
	"mentorhub/internal/moderation"

	"github.com/XSAM/otelsql"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	_ "modernc.org/sqlite"
)

// Options configures Open.
type Options struct {
	// Tracing adds gorm spans on top of the driver-level otelsql spans.
	Tracing bool
	// SlowThreshold logs queries slower than this at warn level. Zero
	// disables slow query logging.
	SlowThreshold time.Duration
}

// Store implements moderation.Store on a gorm handle. Inside WithTx the
// handle is the open transaction.
type Store struct {
	db *gorm.DB
}

// Ensure Store implements the interface at compile time.
var _ moderation.Store = (*Store)(nil)

// Open opens (creating if needed) the SQLite database at path, applies the
// schema and returns a Store.
func Open(path string, opts Options) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite"
	sqlDB, err := otelsql.Open("sqlite", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "sqlite")),
	)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY on
	// transaction upgrades.
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", Conn: sqlDB}), &gorm.Config{
		Logger:  newGormLogger(opts.SlowThreshold),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("gorm tracing plugin: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		sqlDB.Close()
		return nil, err
	}

	log.Info().Str("path", path).Msg("sqlitestore: database opened")
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("error getting sql db: %w", err)
	}
	return sqlDB.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	err := db.AutoMigrate(
		&models.User{},
		&models.SubCommunity{},
		&models.Post{},
		&models.Comment{},
		&moderation.ContentReport{},
		&moderation.UserAction{},
		&moderation.ModerationLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// At most one pending report per reporter and content item.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_content_reports_pending_unique
		ON content_reports (reporter_id, type, post_id, IFNULL(comment_id, ''))
		WHERE status = 'PENDING'`).Error
	if err != nil {
		return fmt.Errorf("migrate pending report index: %w", err)
	}
	return nil
}

// WithTx runs fn in a transaction. Nested calls use savepoints.
func (s *Store) WithTx(ctx context.Context, fn func(tx moderation.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// translate maps gorm's not-found sentinel to the moderation one.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return moderation.ErrRecordNotFound
	}
	return err
}

// modernc reports constraint failures as plain errors; match on the
// message SQLite produces.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// likePattern escapes LIKE wildcards in user input.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
