package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// SQLHistoryRepository implements domain.HistoryRepository on a relational
// database. Every operation runs on a connection acquired for that call and
// released before it returns.
type SQLHistoryRepository struct {
	db *gorm.DB
}

// NewSQLHistoryRepository opens the configured database and creates the
// downloads table if it does not exist
func NewSQLHistoryRepository(config *domain.DatabaseConfig) (*SQLHistoryRepository, error) {
	dialector, err := newDialector(config)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", config.Driver, err)
	}

	if err := db.AutoMigrate(&domain.HistoryRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLHistoryRepository{db: db}, nil
}

func newDialector(config *domain.DatabaseConfig) (gorm.Dialector, error) {
	switch config.Driver {
	case "sqlite", "":
		return sqlite.Open(config.SQLitePath), nil
	case "mysql":
		return mysql.Open(MySQLDSN(config)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", config.Driver)
	}
}

// MySQLDSN builds the driver DSN for a mysql database config
func MySQLDSN(config *domain.DatabaseConfig) string {
	dsn := gomysql.NewConfig()
	dsn.User = config.User
	dsn.Passwd = config.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	dsn.DBName = config.Name
	dsn.ParseTime = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

// Create inserts record and sets its ID
func (r *SQLHistoryRepository) Create(ctx context.Context, record *domain.HistoryRecord) error {
	if !domain.ValidateFormat(record.Format) {
		return fmt.Errorf("invalid format: %q", record.Format)
	}
	return r.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
}

// FindByID finds a record by ID
func (r *SQLHistoryRepository) FindByID(ctx context.Context, id uint) (*domain.HistoryRecord, error) {
	var record domain.HistoryRecord
	err := r.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		return tx.First(&record, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", domain.ErrHistoryNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListRecent returns at most limit records, newest first
func (r *SQLHistoryRepository) ListRecent(ctx context.Context, limit int) ([]*domain.HistoryRecord, error) {
	records := []*domain.HistoryRecord{}
	err := r.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		return tx.Order("download_time DESC").Order("id DESC").Limit(limit).Find(&records).Error
	})
	return records, err
}

// Count returns the number of records
func (r *SQLHistoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		return tx.Model(&domain.HistoryRecord{}).Count(&count).Error
	})
	return count, err
}

// Ping checks that the database is reachable
func (r *SQLHistoryRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *SQLHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
