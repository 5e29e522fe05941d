package audit

import "encoding/json"

// Fields is the metadata attached to an audit event.
type Fields map[string]interface{}

// Metadata encodes fields as a JSON object for LogEvent. Empty fields encode as "".
func Metadata(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(b)
}
