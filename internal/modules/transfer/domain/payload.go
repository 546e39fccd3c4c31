// Package domain defines the backup payloads exchanged with the outside
// world and the checks an import must pass before it may replace the log.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	evdomain "intent/internal/modules/eventlog/domain"
	apperrors "intent/internal/platform/errors"
	"intent/internal/platform/shield"
)

const (
	MaxImportEvents = evdomain.MaxEvents
	// SpotCheck is how many leading records are checked to be objects.
	SpotCheck = 50
)

// Export is the backup payload.
type Export struct {
	ExportedAt    string           `json:"exportedAt"`
	SchemaVersion int              `json:"schemaVersion"`
	Events        []evdomain.Event `json:"events"`
	LastError     *shield.Record   `json:"lastError"`
}

func NewExport(now time.Time, schemaVersion int, events []evdomain.Event, lastError *shield.Record) Export {
	if events == nil {
		events = []evdomain.Event{}
	}
	return Export{
		ExportedAt:    now.UTC().Format(time.RFC3339Nano),
		SchemaVersion: schemaVersion,
		Events:        events,
		LastError:     lastError,
	}
}

// Import is a payload that passed Validate.
type Import struct {
	Events    []any
	LastError *shield.Record
}

// Decode parses data as a JSON document.
func Decode(data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode payload: %w: %w", apperrors.ErrCorruptPayload, err)
	}
	return raw, nil
}

// Validate accepts an object with an events array of at most
// MaxImportEvents records whose first SpotCheck entries are objects. The
// legacy history/intents shape is recognized and refused.
func Validate(raw any) (Import, error) {
	p, ok := raw.(map[string]any)
	if !ok || p == nil {
		return Import{}, fmt.Errorf("payload is %T: %w", raw, apperrors.ErrCorruptPayload)
	}
	events, hasEvents := p["events"].([]any)
	if !hasEvents {
		_, history := p["history"].([]any)
		_, intents := p["intents"].([]any)
		if history && intents {
			return Import{}, apperrors.ErrLegacyPayload
		}
		return Import{}, apperrors.ErrMissingEvents
	}
	if len(events) > MaxImportEvents {
		return Import{}, fmt.Errorf("%d events, at most %d: %w", len(events), MaxImportEvents, apperrors.ErrTooManyEvents)
	}
	for i, e := range events[:min(len(events), SpotCheck)] {
		if rec, ok := e.(map[string]any); !ok || rec == nil {
			return Import{}, fmt.Errorf("event %d is %T: %w", i, e, apperrors.ErrCorruptPayload)
		}
	}
	return Import{Events: events, LastError: lastError(p)}, nil
}

func lastError(p map[string]any) *shield.Record {
	for _, key := range []string{"lastError", "_lastError"} {
		m, ok := p[key].(map[string]any)
		if !ok {
			continue
		}
		rec := shield.Record{}
		rec.TS, _ = m["ts"].(string)
		rec.Type, _ = m["type"].(string)
		rec.Message, _ = m["message"].(string)
		return &rec
	}
	return nil
}
