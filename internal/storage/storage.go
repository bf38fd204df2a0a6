package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/logger"
	"github.com/KlimSani4/hydrocalc/internal/models"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNotFound       = errors.New("record not found")
)

const slowQueryThreshold = 200 * time.Millisecond

// Open connects to Postgres for postgres:// URLs and to SQLite otherwise,
// then migrates the schema. Failed and slow statements go to log; a nil log
// silences gorm.
func Open(dsn string, log *logger.Logger) (*gorm.DB, error) {
	gl := gormlogger.Default.LogMode(gormlogger.Silent)
	if log != nil {
		gl = log.Gorm(slowQueryThreshold)
	}
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         gl,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	var (
		db  *gorm.DB
		err error
	)
	if isPostgres(dsn) {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		db, err = gorm.Open(sqlite.Open(sqliteDSN(dsn)), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if strings.Contains(dsn, ":memory:") {
		// every connection to :memory: is a fresh database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Account{}, &models.Calculation{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

// Store is the row-level gateway over accounts and calculations.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) InsertAccount(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	account := &models.Account{Email: email, PasswordHash: passwordHash}
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, notFound(err, "find account by email")
	}
	return &account, nil
}

func (s *Store) FindAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, notFound(err, "find account by id")
	}
	return &account, nil
}

// DeleteAccount removes the account together with its calculations.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", id).Delete(&models.Calculation{}).Error; err != nil {
			return fmt.Errorf("delete calculations: %w", err)
		}
		res := tx.Delete(&models.Account{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete account: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// InsertCalculation stores one result. A nil accountID stores an unowned row.
func (s *Store) InsertCalculation(ctx context.Context, accountID *int64, calc *models.Calculation) (*models.Calculation, error) {
	row := *calc
	row.ID = 0
	row.AccountID = accountID
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("insert calculation: %w", err)
	}
	return &row, nil
}

// ListCalculationsByAccount returns the account's rows, newest first.
func (s *Store) ListCalculationsByAccount(ctx context.Context, accountID int64) ([]models.Calculation, error) {
	var rows []models.Calculation
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	return rows, nil
}

// FindCalculationForAccount returns ErrNotFound when the row is missing or
// belongs to someone else.
func (s *Store) FindCalculationForAccount(ctx context.Context, id, accountID int64) (*models.Calculation, error) {
	var row models.Calculation
	err := s.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		First(&row).Error
	if err != nil {
		return nil, notFound(err, "find calculation")
	}
	return &row, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
