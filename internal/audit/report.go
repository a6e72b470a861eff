package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// EncodeReport renders entries as a JSON array indented by four spaces.
// A nil or empty slice encodes as [].
func EncodeReport(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteReport overwrites path with the encoded report.
func WriteReport(path string, entries []Entry) error {
	data, err := EncodeReport(entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write debug report: %w", err)
	}
	return nil
}
