package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fenggwsx/NickDirectory/internal/config"
	"github.com/fenggwsx/NickDirectory/internal/logger"
	"github.com/fenggwsx/NickDirectory/internal/storage"
)

const (
	// DatabaseName is the fixed name of the directory database.
	DatabaseName = "NicknamesDirectory"
	// TableName holds every record.
	TableName = "Nicknames"
	// SchemaVersion is stored in PRAGMA user_version. A mismatch drops the table.
	SchemaVersion = 1
)

const createTableSQL = "CREATE TABLE " + TableName + " (" +
	"id INTEGER PRIMARY KEY AUTOINCREMENT, " +
	"name TEXT NOT NULL, " +
	"nickname TEXT NOT NULL)"

// Store is a GORM-backed SQLite implementation of storage.Backend.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

type nicknameModel struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name     string `gorm:"column:name;not null"`
	Nickname string `gorm:"column:nickname;not null"`
}

func (nicknameModel) TableName() string {
	return TableName
}

// NewStore opens the SQLite database at the configured path, creating
// parent directories as needed. Call Migrate before use.
func NewStore(cfg config.DatabaseConfig, log *zap.Logger) (*Store, error) {
	log = logger.OrNop(log).With(zap.String("component", "store"))

	path := cfg.Path
	if path == "" {
		path = DatabaseName + ".db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &storage.StorageError{Op: "create database directory", Err: err}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, &storage.StorageError{Op: "open database", Err: err}
	}

	// One handle for the process; the record store serializes writers anyway.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &storage.StorageError{Op: "open database", Err: err}
	}
	sqlDB.SetMaxOpenConns(1)

	log.Debug("database opened", zap.String("path", path))
	return &Store{db: db, log: log}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the table on a fresh database. When the stored schema
// version differs from SchemaVersion the table is dropped and recreated.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		version, err := userVersion(tx)
		if err != nil {
			return err
		}
		exists := tx.Migrator().HasTable(TableName)

		switch {
		case exists && version == SchemaVersion:
			return nil
		case exists:
			s.log.Warn("upgrading database, old data will be destroyed",
				zap.Int("from_version", version),
				zap.Int("to_version", SchemaVersion))
			if err := tx.Exec("DROP TABLE IF EXISTS " + TableName).Error; err != nil {
				return err
			}
		}

		if err := tx.Exec(createTableSQL).Error; err != nil {
			return err
		}
		return setUserVersion(tx, SchemaVersion)
	})
	if err != nil {
		return &storage.StorageError{Op: "migrate", Err: err}
	}
	return nil
}

// Reset drops the table and recreates the schema. Every record is lost.
func (s *Store) Reset(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DROP TABLE IF EXISTS " + TableName).Error; err != nil {
			return err
		}
		if err := tx.Exec(createTableSQL).Error; err != nil {
			return err
		}
		return setUserVersion(tx, SchemaVersion)
	})
	if err != nil {
		return &storage.StorageError{Op: "reset", Err: err}
	}
	s.log.Warn("table dropped and recreated", zap.String("table", TableName))
	return nil
}

// List returns the records matching addr and filter, ordered by sort ascending.
func (s *Store) List(ctx context.Context, addr storage.Address, filter storage.Filter, sort storage.SortKey) ([]storage.Record, error) {
	scoped, err := s.scope(ctx, addr, filter)
	if err != nil {
		return nil, err
	}
	sort, err = storage.ParseSortKey(string(sort))
	if err != nil {
		return nil, err
	}

	var models []nicknameModel
	if err := scoped.Order(string(sort)).Order("id").Find(&models).Error; err != nil {
		return nil, &storage.StorageError{Op: "query", Err: err}
	}

	records := make([]storage.Record, 0, len(models))
	for _, model := range models {
		records = append(records, toRecord(model))
	}
	return records, nil
}

// Insert stores a new record and sets its assigned id.
func (s *Store) Insert(ctx context.Context, record *storage.Record) error {
	if record == nil {
		return errors.New("nil record")
	}
	model := nicknameModel{
		Name:     record.Name,
		Nickname: record.Nickname,
	}
	result := s.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		return &storage.StorageError{Op: "insert", Err: result.Error}
	}
	if model.ID <= 0 {
		return &storage.StorageError{Op: "insert", Err: fmt.Errorf("fail to add a new record into %s", storage.Collection())}
	}
	record.ID = model.ID
	return nil
}

// Update applies changes to every matching record and returns the rows changed.
func (s *Store) Update(ctx context.Context, addr storage.Address, filter storage.Filter, changes storage.Changes) (int64, error) {
	if changes.IsEmpty() {
		return 0, &storage.ValidationError{Field: "changes", Reason: "no fields to update"}
	}
	scoped, err := s.scope(ctx, addr, filter)
	if err != nil {
		return 0, err
	}
	result := scoped.Updates(changes.Columns())
	if result.Error != nil {
		return 0, &storage.StorageError{Op: "update", Err: result.Error}
	}
	return result.RowsAffected, nil
}

// Delete removes every matching record and returns the rows removed.
func (s *Store) Delete(ctx context.Context, addr storage.Address, filter storage.Filter) (int64, error) {
	scoped, err := s.scope(ctx, addr, filter)
	if err != nil {
		return 0, err
	}
	result := scoped.Delete(&nicknameModel{})
	if result.Error != nil {
		return 0, &storage.StorageError{Op: "delete", Err: result.Error}
	}
	return result.RowsAffected, nil
}

// scope maps an address and filter onto a GORM statement. A collection
// address without a filter touches every row.
func (s *Store) scope(ctx context.Context, addr storage.Address, filter storage.Filter) (*gorm.DB, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&nicknameModel{})

	if id, ok := addr.ID(); ok {
		db = db.Where("id = ?", id)
	}
	if filter.ID != 0 {
		db = db.Where("id = ?", filter.ID)
	}
	if filter.Name != "" {
		db = db.Where("name = ?", filter.Name)
	}
	if filter.Nickname != "" {
		db = db.Where("nickname = ?", filter.Nickname)
	}
	return db, nil
}

func userVersion(tx *gorm.DB) (int, error) {
	var version int
	if err := tx.Raw("PRAGMA user_version").Row().Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func setUserVersion(tx *gorm.DB, version int) error {
	return tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)).Error
}

func toRecord(model nicknameModel) storage.Record {
	return storage.Record{
		ID:       model.ID,
		Name:     model.Name,
		Nickname: model.Nickname,
	}
}
