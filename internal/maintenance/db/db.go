// Package db implements the persistent entity store on top of GORM.
// Every method touching a tenant-scoped entity is parameterized by the
// company ID of the authenticated actor; primary-key fetches are
// additionally filtered by it, so cross-tenant access surfaces as
// ErrNotFound and never leaks existence.
package db

import (
	"context"
	"errors"
	"fmt"

	e "github.com/mzeldin/upkeep/internal/maintenance/errors"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// allModels is the full migration set, leaves first.
var allModels = []interface{}{
	&models.Company{},
	&models.User{},
	&models.Location{},
	&models.Equipment{},
	&models.StorePart{},
	&models.PreventiveMaintenance{},
	&models.MaintenanceRequest{},
	&models.WorkOrder{},
	&models.WorkOrderPart{},
	&models.WorkOrderCounter{},
	&models.Subscription{},
	&models.Notification{},
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(allModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewRepositoryWithDB wraps an existing gorm handle and runs the
// migrations. Tests and tooling that manage their own connection use
// this instead of NewRepository.
func NewRepositoryWithDB(gdb *gorm.DB) (*Repository, error) {
	if err := gdb.AutoMigrate(allModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Repository{db: gdb}, nil
}

// forUpdate appends a row lock on dialects that support it. SQLite
// (used by tests) serializes writes on its own and rejects FOR UPDATE.
func (r *Repository) forUpdate(tx *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// WithTransaction runs fn against a transactional repository. Multi-
// entity mutations in the lifecycle engines go through here so that
// partial application is never observable.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// notFound maps gorm's record-not-found to the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e.ErrNotFound
	}
	return err
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
