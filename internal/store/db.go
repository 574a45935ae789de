package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Analysis{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveAnalysis creates an analysis row.
func (d *Database) SaveAnalysis(a *Analysis) error {
	if a == nil {
		return errors.New("analysis is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(a).Error
}

// GetAnalysis fetches an analysis by ID, scoped to a customer when one is given.
func (d *Database) GetAnalysis(id, customerID string) (*Analysis, error) {
	query := d.gorm.Where("id = ?", id)
	if customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	var row Analysis
	if err := query.First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// AnalysisQuery encapsulates filters and pagination for listing analyses.
type AnalysisQuery struct {
	CustomerID string
	Industry   string
	Coherence  string
	MinIndex   float64
	Offset     int
	Limit      int
}

// ListAnalyses returns paginated analysis records applying optional filters.
func (d *Database) ListAnalyses(opts AnalysisQuery) ([]Analysis, int64, error) {
	base := d.gorm.Model(&Analysis{})
	if opts.CustomerID != "" {
		base = base.Where("customer_id = ?", opts.CustomerID)
	}
	if industry := strings.TrimSpace(opts.Industry); industry != "" {
		base = base.Where("industry = ?", strings.ToLower(industry))
	}
	if coherence := strings.TrimSpace(opts.Coherence); coherence != "" {
		base = base.Where("coherence = ?", coherence)
	}
	if opts.MinIndex > 0 {
		base = base.Where("index_score >= ?", opts.MinIndex)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Order("created_at DESC").Offset(opts.Offset)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var rows []Analysis
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountAnalyses returns the number of stored analyses for a customer.
// An empty customer ID counts every row.
func (d *Database) CountAnalyses(customerID string) (int64, error) {
	query := d.gorm.Model(&Analysis{})
	if customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ProviderCount is an aggregate of analyses per provider.
type ProviderCount struct {
	Provider string
	Count    int64
}

// CountByProvider returns per-provider analysis counts for a customer.
func (d *Database) CountByProvider(customerID string) ([]ProviderCount, error) {
	query := d.gorm.Model(&Analysis{}).
		Select("provider, COUNT(*) AS count").
		Group("provider").
		Order("count DESC")
	if customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	var rows []ProviderCount
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AverageIndex returns the mean decision index across a customer's analyses.
func (d *Database) AverageIndex(customerID string) (float64, error) {
	query := d.gorm.Model(&Analysis{})
	if customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	var avg *float64
	if err := query.Select("AVG(index_score)").Scan(&avg).Error; err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
