// Package models holds the gorm persistence models.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

// SyncLog is one invocation outcome.
type SyncLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID    string    `gorm:"size:128;index"`
	Entity     string    `gorm:"size:32;not null;index:idx_sync_logs_entity_started"`
	RecordKey  string    `gorm:"size:255"`
	StatusCode int       `gorm:"not null;index"`
	Succeeded  bool      `gorm:"not null"`
	Message    string    `gorm:"type:text"`
	StartedAt  time.Time `gorm:"not null;index:idx_sync_logs_entity_started"`
	DurationMs int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (SyncLog) TableName() string {
	return "sync_logs"
}

// FromOutcome creates a row for o with a new id.
func FromOutcome(o integration.Outcome) *SyncLog {
	return &SyncLog{
		ID:         uuid.New(),
		EventID:    o.EventID,
		Entity:     o.Entity.String(),
		RecordKey:  o.Key,
		StatusCode: o.StatusCode,
		Succeeded:  o.Succeeded(),
		Message:    o.Message,
		StartedAt:  o.StartedAt.UTC(),
		DurationMs: o.Duration.Milliseconds(),
	}
}

// ToOutcome converts the row back to a domain outcome.
func (m *SyncLog) ToOutcome() integration.Outcome {
	return integration.Outcome{
		EventID:    m.EventID,
		Entity:     integration.Entity(m.Entity),
		Key:        m.RecordKey,
		StatusCode: m.StatusCode,
		Message:    m.Message,
		StartedAt:  m.StartedAt,
		Duration:   time.Duration(m.DurationMs) * time.Millisecond,
	}
}
