package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Actions delivered by the CMS.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ErrMalformedPayload indicates the delivered JSON is missing required fields.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Event is a content-change notification from the CMS.
type Event struct {
	Event     string    `json:"event"`
	Data      EventData `json:"data"`
	Timestamp string    `json:"timestamp"`
}

// EventData carries the changed entity's coordinates.
type EventData struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Slug   string `json:"slug,omitempty"`
	Domain string `json:"domain"`
	Status string `json:"status,omitempty"`
	Action string `json:"action,omitempty"`
}

// ParseEvent decodes and structurally validates a webhook payload.
//
// Only presence of event, data and data.type is enforced. An unknown
// data.type is not rejected here; the revalidation dispatcher handles it
// via its default branch.
func ParseEvent(body []byte) (*Event, error) {
	// Decode into a raw envelope first so a present-but-empty "data" object
	// is distinguishable from an absent one.
	var envelope struct {
		Event     *string         `json:"event"`
		Data      json.RawMessage `json:"data"`
		Timestamp string          `json:"timestamp"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedPayload, err)
	}

	if envelope.Event == nil || *envelope.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrMalformedPayload)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedPayload)
	}

	var data EventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: invalid data: %v", ErrMalformedPayload, err)
	}
	if data.Type == "" {
		return nil, fmt.Errorf("%w: missing data.type", ErrMalformedPayload)
	}

	return &Event{
		Event:     *envelope.Event,
		Data:      data,
		Timestamp: envelope.Timestamp,
	}, nil
}
