// Package postgres provides a PostgreSQL PositionStore built on GORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/interfaces"
	"github.com/bobmcallan/tradebook/internal/models"
)

const (
	defaultPostgresHost    = "localhost"
	defaultPostgresPort    = 5432
	defaultPostgresSSLMode = "disable"
)

// Compile-time interface checks
var (
	_ interfaces.PositionStore  = (*Store)(nil)
	_ interfaces.StorageManager = (*Store)(nil)
)

// positionRow is the positions table. Decimals map to unbounded numeric
// columns so values round-trip exactly. Timestamps are written as given.
type positionRow struct {
	ID               string          `gorm:"primaryKey;type:text"`
	Instrument       string          `gorm:"type:text;not null;index:idx_positions_instrument"`
	Quantity         int64           `gorm:"not null"`
	AveragePrice     decimal.Decimal `gorm:"type:numeric;not null"`
	MarkPrice        decimal.Decimal `gorm:"type:numeric;not null"`
	UnrealizedPnL    decimal.Decimal `gorm:"column:unrealized_pnl;type:numeric;not null"`
	UnrealizedPnLPct decimal.Decimal `gorm:"column:unrealized_pnl_pct;type:numeric;not null"`
	Version          int64           `gorm:"not null"`
	CreatedAt        time.Time       `gorm:"autoCreateTime:false;not null"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime:false;not null"`
}

func (positionRow) TableName() string {
	return "positions"
}

func toRow(p *models.Position) positionRow {
	return positionRow{
		ID:               p.ID,
		Instrument:       p.Instrument,
		Quantity:         p.Quantity,
		AveragePrice:     p.AveragePrice,
		MarkPrice:        p.MarkPrice,
		UnrealizedPnL:    p.UnrealizedPnL,
		UnrealizedPnLPct: p.UnrealizedPnLPct,
		Version:          p.Version,
		// timestamptz keeps microseconds
		CreatedAt: p.CreatedAt.Truncate(time.Microsecond),
		UpdatedAt: p.UpdatedAt.Truncate(time.Microsecond),
	}
}

func (r positionRow) toPosition() *models.Position {
	return &models.Position{
		ID:               r.ID,
		Instrument:       r.Instrument,
		Quantity:         r.Quantity,
		AveragePrice:     r.AveragePrice,
		MarkPrice:        r.MarkPrice,
		UnrealizedPnL:    r.UnrealizedPnL,
		UnrealizedPnLPct: r.UnrealizedPnLPct,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// Store is both the StorageManager and the PositionStore for PostgreSQL.
type Store struct {
	db     *gorm.DB
	logger *common.Logger
}

// NewStore connects to PostgreSQL and migrates the positions table.
func NewStore(logger *common.Logger, config common.PostgresConfig) (*Store, error) {
	db, err := gorm.Open(postgres.Open(connString(config)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.Migrate(context.Background()); err != nil {
		s.Close()
		return nil, err
	}

	logger.Info().
		Str("host", config.Host).
		Str("database", config.Database).
		Msg("PostgreSQL storage initialized")

	return s, nil
}

// Migrate creates or updates the positions table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&positionRow{}); err != nil {
		return fmt.Errorf("failed to migrate positions table: %w", err)
	}
	return nil
}

// DB returns the underlying gorm.DB instance.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) PositionStore() interfaces.PositionStore {
	return s
}

func (s *Store) Backend() string {
	return common.BackendPostgres
}

func (s *Store) Get(ctx context.Context, id string) (*models.Position, error) {
	var row positionRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrPositionNotFound
	}
	if err != nil {
		return nil, models.NewStoreError("get position", err)
	}
	return row.toPosition(), nil
}

func (s *Store) FindByInstrument(ctx context.Context, instrument string) (*models.Position, error) {
	list, err := s.ListByInstrument(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrPositionNotFound
	}
	return list[0], nil
}

func (s *Store) ListByInstrument(ctx context.Context, instrument string) ([]*models.Position, error) {
	var rows []positionRow
	err := s.db.WithContext(ctx).
		Where("instrument = ?", instrument).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, models.NewStoreError("list positions by instrument", err)
	}
	return toPositions(rows), nil
}

func (s *Store) ListAll(ctx context.Context) ([]*models.Position, error) {
	var rows []positionRow
	if err := s.db.WithContext(ctx).Order("instrument, created_at, id").Find(&rows).Error; err != nil {
		return nil, models.NewStoreError("list positions", err)
	}
	return toPositions(rows), nil
}

func (s *Store) Upsert(ctx context.Context, p *models.Position) error {
	if err := upsert(s.db.WithContext(ctx), p); err != nil {
		return models.NewStoreError("upsert position", err)
	}
	s.logger.Debug().Str("id", p.ID).Str("instrument", p.Instrument).Msg("Position saved")
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&positionRow{}, "id = ?", id).Error; err != nil {
		return models.NewStoreError("delete position", err)
	}
	return nil
}

// ReplaceGroup upserts the survivor and deletes the absorbed rows in one
// database transaction.
func (s *Store) ReplaceGroup(ctx context.Context, survivor *models.Position, removedIDs []string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, survivor); err != nil {
			return err
		}
		if len(removedIDs) == 0 {
			return nil
		}
		return tx.Where("id IN ?", removedIDs).Delete(&positionRow{}).Error
	})
	if err != nil {
		return models.NewStoreError("replace group", err)
	}
	s.logger.Debug().Str("survivor", survivor.ID).Int("removed", len(removedIDs)).Msg("Position group replaced")
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func upsert(db *gorm.DB, p *models.Position) error {
	row := toRow(p)
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func toPositions(rows []positionRow) []*models.Position {
	out := make([]*models.Position, len(rows))
	for i, r := range rows {
		out[i] = r.toPosition()
	}
	// Database collation may not match byte order.
	models.SortPositions(out)
	return out
}

// connString builds a postgres:// URL from config. An explicit DSN wins.
func connString(cfg common.PostgresConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	host := cfg.Host
	if host == "" {
		host = defaultPostgresHost
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultPostgresSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}

	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}

	if cfg.Database != "" {
		u.Path = "/" + cfg.Database
	}

	u.RawQuery = url.Values{"sslmode": []string{sslMode}}.Encode()

	return u.String()
}
