package display

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON renders v indented for people reading a terminal. HTML is not
// escaped, since labels and URLs pass through untouched.
func MarshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
