package database

import (
	"context"
	"errors"
	"time"

	"github.com/arnavshah/advent-allocator/pkg/allocator"
	"github.com/arnavshah/advent-allocator/pkg/models"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// MemoryDSN keeps every run inside the process
const MemoryDSN = "file::memory:?cache=shared"

// ErrRunNotFound is returned when a run id is unknown or has expired
var ErrRunNotFound = errors.New("allocation run not found")

// Run represents the runs table
type Run struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Year      int       `gorm:"not null" json:"year"`
	PoolSize  int       `gorm:"not null" json:"pool_size"`
	Regime    string    `gorm:"not null" json:"regime"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Bags      []RunBag  `gorm:"constraint:OnDelete:CASCADE" json:"bags"`
}

// RunBag represents the run_bags table
type RunBag struct {
	ID       uint     `gorm:"primaryKey" json:"-"`
	RunID    string   `gorm:"index;size:36;not null" json:"-"`
	Position int      `gorm:"not null" json:"position"`
	SlotID   int      `gorm:"not null" json:"slot"`
	Day      int      `gorm:"not null" json:"day"`
	Assigned []string `gorm:"serializer:json" json:"assigned"`
}

// Usage represents the usage table, one row per day
type Usage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Date         string `gorm:"uniqueIndex;not null" json:"date"`
	Allocations  int    `gorm:"default:0" json:"allocations"`
	Participants int    `gorm:"default:0" json:"participants"`
}

// Store wraps the database handle
type Store struct {
	DB  *gorm.DB
	TTL time.Duration
	now func() time.Time
}

// InitDB opens the sqlite database and migrates the schema
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to connect database")
	}

	// A shared-cache memory database disappears when its last connection closes,
	// and concurrent writers on separate connections fail with SQLITE_LOCKED.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	if err := db.AutoMigrate(&Run{}, &RunBag{}, &Usage{}); err != nil {
		return nil, eris.Wrap(err, "failed to migrate schema")
	}
	return db, nil
}

// NewStore creates a store. Runs older than ttl are purged on save; zero keeps them.
func NewStore(db *gorm.DB, ttl time.Duration) *Store {
	return &Store{DB: db, TTL: ttl, now: time.Now}
}

// SaveRun stores an allocation result and returns the stored run
func (s *Store) SaveRun(ctx context.Context, res *allocator.Result, year int) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Year:      year,
		PoolSize:  res.PoolSize,
		Regime:    string(res.Regime),
		CreatedAt: s.now().UTC(),
	}
	for i, bag := range res.Bags {
		run.Bags = append(run.Bags, RunBag{
			Position: i,
			SlotID:   bag.SlotID,
			Day:      bag.Day,
			Assigned: bag.Assigned,
		})
	}

	if s.TTL > 0 {
		if _, err := s.PurgeBefore(ctx, run.CreatedAt.Add(-s.TTL)); err != nil {
			return nil, err
		}
	}
	if err := s.DB.WithContext(ctx).Create(run).Error; err != nil {
		return nil, eris.Wrap(err, "failed to save run")
	}
	return run, nil
}

// GetRun loads a run with its bags in calendar order
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.DB.WithContext(ctx).
		Preload("Bags", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Where("id = ?", id).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load run %s", id)
	}
	return &run, nil
}

// PurgeBefore deletes runs created before cutoff and reports how many went
func (s *Store) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&Run{}).Where("created_at < ?", cutoff).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("run_id IN ?", ids).Delete(&RunBag{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&Run{})
		total = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, eris.Wrap(err, "failed to purge runs")
	}
	return total, nil
}

// ModelBags converts stored bags back to the allocation model
func (r *Run) ModelBags() []models.Bag {
	bags := make([]models.Bag, 0, len(r.Bags))
	for _, b := range r.Bags {
		bags = append(bags, models.Bag{SlotID: b.SlotID, Day: b.Day, Assigned: b.Assigned})
	}
	return bags
}

// RecordUsage counts an allocation for today using a single upsert
func (s *Store) RecordUsage(ctx context.Context, participants int) error {
	today := s.now().UTC().Format("2006-01-02")

	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"allocations":  gorm.Expr("allocations + ?", 1),
			"participants": gorm.Expr("participants + ?", participants),
		}),
	}).Create(&Usage{
		Date:         today,
		Allocations:  1,
		Participants: participants,
	}).Error
	return eris.Wrap(err, "failed to record usage")
}

// UsageHistory returns the most recent usage rows, newest first
func (s *Store) UsageHistory(ctx context.Context, limit int) ([]Usage, error) {
	var usage []Usage
	if err := s.DB.WithContext(ctx).Order("date desc").Limit(limit).Find(&usage).Error; err != nil {
		return nil, eris.Wrap(err, "could not fetch usage details")
	}
	return usage, nil
}
