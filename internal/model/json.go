package model

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// eventFields avoids recursion into Event's own JSON methods.
type eventFields Event

var (
	knownKeysOnce sync.Once
	knownKeys     map[string]bool
)

// eventKeys returns the set of JSON keys that map onto Event struct fields.
func eventKeys() map[string]bool {
	knownKeysOnce.Do(func() {
		t := reflect.TypeOf(Event{})
		knownKeys = make(map[string]bool, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			name, _, _ := strings.Cut(tag, ",")
			if name == "" || name == "-" {
				continue
			}
			knownKeys[name] = true
		}
	})
	return knownKeys
}

// MarshalJSON writes the typed fields followed by any preserved extra keys.
func (e Event) MarshalJSON() ([]byte, error) {
	base, err := marshalRaw(eventFields(e))
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal event")
	}
	if len(e.Extra) == 0 {
		return base, nil
	}

	merged := make(map[string]any, len(e.Extra)+16)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, eris.Wrap(err, "model: remarshal event")
	}
	known := eventKeys()
	for k, v := range e.Extra {
		if known[k] {
			continue
		}
		merged[k] = v
	}
	return marshalRaw(merged)
}

// marshalRaw encodes v without HTML escaping so links keep their '&'.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON reads the typed fields and keeps unknown keys in Extra.
// Null values in known fields decode as empty.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: unmarshal event")
	}

	var f eventFields
	if err := json.Unmarshal(data, &f); err != nil {
		return eris.Wrap(err, "model: unmarshal event fields")
	}
	*e = Event(f)

	known := eventKeys()
	for k, v := range raw {
		if known[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return eris.Wrapf(err, "model: unmarshal extra key %s", k)
		}
		if e.Extra == nil {
			e.Extra = make(map[string]any)
		}
		e.Extra[k] = val
	}
	return nil
}
