package integration

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

// Event is the envelope delivered by the commerce event bus.
type Event struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Source string    `json:"source"`
	Data   EventData `json:"data"`
}

// EventData carries the entity payload and the envelope metadata.
type EventData struct {
	Value    integration.Record `json:"value"`
	Metadata integration.Record `json:"_metadata"`
}

// DecodeEvent validates and decodes an event envelope. Numbers inside the
// payload are kept as json.Number.
func DecodeEvent(raw []byte) (*Event, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, integration.NewValidationError(fmt.Sprintf("invalid event: %v", err))
	}
	if err := envelopeSchema.Validate(doc); err != nil {
		return nil, integration.NewValidationError(fmt.Sprintf("invalid event: %v", err))
	}

	dec = json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var event Event
	if err := dec.Decode(&event); err != nil {
		return nil, integration.NewValidationError(fmt.Sprintf("invalid event: %v", err))
	}
	if event.Data.Metadata == nil {
		event.Data.Metadata = integration.Record{}
	}
	return &event, nil
}
