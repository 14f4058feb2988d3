package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/collections/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the SQLite database at dbPath and migrates all entities.
func NewDatabase(dbPath string) (*Database, error) {
	return open(dbPath, logger.Warn)
}

// NewSilentDatabase is NewDatabase with gorm's statement logging disabled.
func NewSilentDatabase(dbPath string) (*Database, error) {
	return open(dbPath, logger.Silent)
}

func open(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(withPragmas(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Company{},
		&entities.Collection{},
		&entities.Association{},
		&entities.Transfer{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

// withPragmas enables WAL and a busy timeout so background transfers and
// request handlers can share the file.
func withPragmas(dbPath string) string {
	if strings.Contains(dbPath, "?") || strings.HasPrefix(dbPath, "file::memory:") {
		return dbPath
	}
	return dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the underlying connection is usable.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// EnsureCollections creates a collection for every name that does not exist yet.
// Returns the collections in the order of names.
func (d *Database) EnsureCollections(names ...string) ([]entities.Collection, error) {
	result := make([]entities.Collection, 0, len(names))
	for _, name := range names {
		var existing entities.Collection
		err := d.DB.Where("collection_name = ?", name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			existing = entities.Collection{ID: uuid.New(), CollectionName: name}
			if err := d.DB.Create(&existing).Error; err != nil {
				return nil, fmt.Errorf("failed to create collection %q: %w", name, err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("failed to look up collection %q: %w", name, err)
		}
		result = append(result, existing)
	}
	return result, nil
}
