package types

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes HdrState as its spec-named string value.
func (s HdrState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the spec-named string value for HdrState.
func (s *HdrState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, ok := ParseHdrState(str)
	if !ok {
		return fmt.Errorf("types: unknown HdrState %q", str)
	}
	*s = parsed
	return nil
}
