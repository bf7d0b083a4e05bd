package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// unmarshalJSON decodes exactly one JSON value and rejects trailing content,
// so "yes" glued after an object does not slip through as valid output.
func unmarshalJSON(raw string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing content after JSON value")
	}
	return nil
}
