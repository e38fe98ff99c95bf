// Package classify interprets the heterogeneous /chat payload. The backend
// answers every chat turn with a JSON object tagged by a "type" field; this
// package maps it to a closed set of outcomes so the rest of the service
// never probes optional fields on a raw map.
package classify

import (
	"encoding/json"
	"fmt"

	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
)

// Kind is the interaction outcome of one chat turn.
type Kind string

const (
	KindMaintenanceRequest Kind = "maintenance_request"
	KindHelp               Kind = "help_request"
	KindOffTopic           Kind = "off_topic"
	KindClarification      Kind = "clarification_needed"
	KindError              Kind = "error"

	// KindUnknown covers a missing or unrecognized type tag. It renders a
	// generic fallback notice; it is not an error.
	KindUnknown Kind = "unknown"
)

// MalformedResponseError reports a chat payload that is not a JSON object.
type MalformedResponseError struct {
	Detail string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed backend response: %s", e.Detail)
}

// Result is the classified payload. Exactly the fields for its Kind are set;
// Request only for maintenance requests, Examples only for help, DetectedInfo
// only for clarifications.
type Result struct {
	Kind         Kind
	Message      string
	Request      *models.ParsedMaintenanceRequest
	Examples     []models.Example
	MissingInfo  []string
	DetectedInfo map[string]string
	RawType      string
}

// Classify dispatches a raw chat payload on its type tag. It fails only for
// payloads that are not JSON objects; an unknown tag degrades to KindUnknown,
// and a secondary field with an unexpected shape is dropped rather than
// failing the whole turn. The parsed maintenance request itself still decodes
// strictly: a parse with mis-typed fields cannot be confirmed, so it must not
// become a pending request.
func Classify(raw json.RawMessage) (*Result, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &MalformedResponseError{Detail: err.Error()}
	}

	kind := stringField(fields, "type")
	message := stringField(fields, "message")

	switch kind {
	case "maintenance_request":
		var req models.ParsedMaintenanceRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, &MalformedResponseError{Detail: err.Error()}
		}
		return &Result{Kind: KindMaintenanceRequest, Message: message, Request: &req}, nil

	case "help_request":
		var examples []models.Example
		decodeField(fields, "examples", &examples)
		return &Result{Kind: KindHelp, Message: message, Examples: examples}, nil

	case "off_topic":
		return &Result{Kind: KindOffTopic, Message: message}, nil

	case "clarification_needed":
		var missing []string
		var detected map[string]string
		decodeField(fields, "missing_info", &missing)
		decodeField(fields, "detected_info", &detected)
		return &Result{
			Kind:         KindClarification,
			Message:      message,
			MissingInfo:  missing,
			DetectedInfo: detected,
		}, nil

	case "error":
		return &Result{Kind: KindError, Message: message}, nil

	default:
		return &Result{Kind: KindUnknown, Message: message, RawType: kind}, nil
	}
}

// decodeField unmarshals one optional field into out, best effort: an absent
// field leaves out untouched and an unexpected shape is dropped.
func decodeField(fields map[string]json.RawMessage, key string, out any) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	_ = json.Unmarshal(raw, out)
}

func stringField(fields map[string]json.RawMessage, key string) string {
	var s string
	decodeField(fields, key, &s)
	return s
}
