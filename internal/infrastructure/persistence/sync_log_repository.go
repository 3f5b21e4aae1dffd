package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/erp/commerce-sync/internal/domain/integration"
	"github.com/erp/commerce-sync/internal/infrastructure/persistence/models"
)

// DefaultListLimit caps a listing without an explicit limit.
const DefaultListLimit = 100

// SyncLogFilter narrows a listing of outcomes.
type SyncLogFilter struct {
	Entity     integration.Entity
	EventID    string
	FailedOnly bool
	Since      time.Time
	OrderBy    string
	OrderDir   string
	Limit      int
}

// SyncLogRepository stores invocation outcomes with gorm.
type SyncLogRepository struct {
	db *gorm.DB
}

var _ integration.OutcomeRecorder = (*SyncLogRepository)(nil)

// NewSyncLogRepository creates a SyncLogRepository.
func NewSyncLogRepository(db *gorm.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// RecordOutcome implements integration.OutcomeRecorder
func (r *SyncLogRepository) RecordOutcome(ctx context.Context, o integration.Outcome) error {
	if err := r.db.WithContext(ctx).Create(models.FromOutcome(o)).Error; err != nil {
		return fmt.Errorf("failed to record sync outcome: %w", err)
	}
	return nil
}

// List returns outcomes matching filter, newest first by default.
func (r *SyncLogRepository) List(ctx context.Context, filter SyncLogFilter) ([]integration.Outcome, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncLog{})
	if filter.Entity != "" {
		query = query.Where("entity = ?", filter.Entity.String())
	}
	if filter.EventID != "" {
		query = query.Where("event_id = ?", filter.EventID)
	}
	if filter.FailedOnly {
		query = query.Where("succeeded = ?", false)
	}
	if !filter.Since.IsZero() {
		query = query.Where("started_at >= ?", filter.Since.UTC())
	}

	orderBy := ValidateSortField(filter.OrderBy, SyncLogSortFields, "started_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	limit := filter.Limit
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	var rows []models.SyncLog
	if err := query.Order(orderBy + " " + orderDir).Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync outcomes: %w", err)
	}

	outcomes := make([]integration.Outcome, len(rows))
	for i := range rows {
		outcomes[i] = rows[i].ToOutcome()
	}
	return outcomes, nil
}

// PurgeBefore deletes outcomes that started before cutoff.
func (r *SyncLogRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("started_at < ?", cutoff.UTC()).Delete(&models.SyncLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge sync outcomes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
