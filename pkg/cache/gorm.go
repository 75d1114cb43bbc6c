package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const defaultSQLitePath = "unwallet-cache.db"

var _ Store = (*GormStore)(nil)

// Entry is one cached document.
type Entry struct {
	Key       string         `gorm:"column:cache_key;primaryKey"`
	Value     datatypes.JSON `gorm:"column:value;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

func (Entry) TableName() string {
	return "provider_cache_entries"
}

// GormStore keeps entries in a SQL database through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if needed) a SQLite cache at path.
func NewSQLiteStore(path string) (*GormStore, error) {
	if path == "" {
		path = defaultSQLitePath
	}

	dsn := fmt.Sprintf("file:%s?cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), quietConfig())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to SQLite database")
	}
	return NewGormStore(db)
}

// NewPostgresStore connects to the PostgreSQL database at dsn.
func NewPostgresStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), quietConfig())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to PostgreSQL database")
	}
	return NewGormStore(db)
}

// NewGormStore uses an existing connection and migrates the cache table.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, errors.Wrap(err, "failed to auto-migrate cache schema")
	}
	return &GormStore{db: db}, nil
}

func quietConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
}

func (s *GormStore) Load(ctx context.Context, key string) ([]byte, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to load cache entry %q", key)
	}
	return []byte(entry.Value), nil
}

// Save upserts value under key. value must be a JSON document.
func (s *GormStore) Save(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return errors.Errorf("cache entry %q is not valid JSON", key)
	}

	entry := Entry{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return errors.Wrapf(err, "failed to save cache entry %q", key)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&Entry{}).Error; err != nil {
		return errors.Wrapf(err, "failed to delete cache entry %q", key)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get database handle")
	}
	return sqlDB.Close()
}
