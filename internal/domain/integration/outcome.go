package integration

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Entity is the commerce object type an event carries.
type Entity string

const (
	EntityCustomer   Entity = "customer"
	EntityOrder      Entity = "order"
	EntityProduct    Entity = "product"
	EntitySubscriber Entity = "subscriber"
)

// Entities lists every synced entity.
var Entities = []Entity{EntityCustomer, EntityOrder, EntityProduct, EntitySubscriber}

// ParseEntity parses a case-insensitive entity name.
func ParseEntity(s string) (Entity, error) {
	e := Entity(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Entities {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}

func (e Entity) String() string {
	return string(e)
}

// Outcome describes one finished invocation.
type Outcome struct {
	EventID    string
	Entity     Entity
	Key        string
	StatusCode int
	Message    string
	StartedAt  time.Time
	Duration   time.Duration
}

// Succeeded reports whether the invocation returned a 2xx status.
func (o Outcome) Succeeded() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}

// OutcomeRecorder receives invocation outcomes (metrics, audit log).
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome Outcome) error
}
