package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FlexID holds an identifier that callers may send either as a JSON string
// or as a JSON number. It marshals back in the same shape it arrived in.
type FlexID struct {
	value  string
	number bool
}

func StringID(v string) FlexID {
	return FlexID{value: v}
}

func NumberID(v int64) FlexID {
	return FlexID{value: fmt.Sprintf("%d", v), number: true}
}

func (id FlexID) String() string {
	return id.value
}

func (id FlexID) IsZero() bool {
	return id.value == ""
}

func (id *FlexID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*id = FlexID{}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal id string: %w", err)
		}
		*id = FlexID{value: s}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshal id number: %w", err)
	}
	*id = FlexID{value: n.String(), number: true}
	return nil
}

func (id FlexID) MarshalJSON() ([]byte, error) {
	if id.number {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}
