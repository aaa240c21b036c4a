package domain

import (
	"bytes"
	"encoding/json"
)

// EncodeJSON encodes v like json.Marshal, or json.MarshalIndent when indent
// is set, but leaves &, < and > unescaped so domain operators stay readable.
func EncodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
