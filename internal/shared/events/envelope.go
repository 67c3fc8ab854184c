package events

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical event envelope carried on the in-process bus.
// Payloads stay raw JSON so subscribers decode only the types they own.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}

const (
	TypeTaskAdmitted    = "ad-delivery.task.admitted"
	TypeTaskSucceeded   = "ad-delivery.task.succeeded"
	TypeTaskFailed      = "ad-delivery.task.failed"
	TypeAccountDisabled = "ad-delivery.account.disabled"
)

func New(eventID, eventType, partitionKey string, occurredAt time.Time, data any) (Envelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC(),
		SourceService: "adboost",
		PartitionKey:  partitionKey,
		Data:          payload,
	}, nil
}
