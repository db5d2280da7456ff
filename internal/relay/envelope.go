package relay

import (
	"encoding/json"
	"time"
)

const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusError   = "error"

	msgMethodNotAllowed = "Method not allowed. Use GET request."
	msgNoResults        = "No results found for the given criteria."
	msgScriptFailed     = "Script execution failed"
	msgExecFailed       = "Failed to execute script"
	msgRateLimited      = "Rate limit exceeded. Try again shortly."

	rawOutputLimit = 500
)

type errorEnvelope struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Code      *int   `json:"code,omitempty"`
	RawOutput string `json:"rawOutput,omitempty"`
}

type emptyEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type queryEcho struct {
	Keyword  string  `json:"keyword"`
	Timespan string  `json:"timespan"`
	Country  *string `json:"country"`
}

type successEnvelope struct {
	Status       string          `json:"status"`
	Timestamp    string          `json:"timestamp"`
	Query        queryEcho       `json:"query"`
	TotalResults int             `json:"totalResults"`
	Data         json.RawMessage `json:"data"`
}

func newErrorEnvelope(msg string) errorEnvelope {
	return errorEnvelope{Status: StatusError, Error: msg}
}

func newEmptyEnvelope() emptyEnvelope {
	return emptyEnvelope{Status: StatusEmpty, Message: msgNoResults, Data: json.RawMessage("[]")}
}

func newSuccessEnvelope(q queryEcho, total int, data json.RawMessage, now time.Time) successEnvelope {
	return successEnvelope{
		Status:       StatusSuccess,
		Timestamp:    now.Format(time.RFC3339),
		Query:        q,
		TotalResults: total,
		Data:         data,
	}
}

// countRecords mirrors how the relay reports totalResults: the length of an
// array, the number of keys of an object, or 1 for a scalar.
func countRecords(data json.RawMessage) (int, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case []any:
		return len(t), nil
	case map[string]any:
		return len(t), nil
	default:
		return 1, nil
	}
}

func truncateBytes(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
