package lifecycle

import (
	"encoding/json"
	"strings"
	"time"
)

// Entity is the common envelope every criterion and processor operates on.
// The workflow platform owns persistence; this layer receives one instance
// per invocation and returns a (possibly mutated) instance.
type Entity struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Version    int            `json:"version"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// Ref identifies an entity held by the platform store.
type Ref struct {
	ID      string
	Type    string
	Version int
}

// Ref returns the platform reference for the entity.
func (e *Entity) Ref() Ref {
	if e == nil {
		return Ref{}
	}
	return Ref{ID: e.ID, Type: e.Type, Version: e.Version}
}

// Clone returns a deep copy of the entity; attribute values are copied
// through JSON so nested maps and slices do not alias.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Attributes = cloneAttributes(e.Attributes)
	return &cp
}

// Has reports whether the attribute is present and non-nil.
func (e *Entity) Has(key string) bool {
	if e == nil || e.Attributes == nil {
		return false
	}
	v, ok := e.Attributes[key]
	return ok && v != nil
}

// String returns the attribute as a trimmed string, or "" when absent.
func (e *Entity) String(key string) string {
	if e == nil || e.Attributes == nil {
		return ""
	}
	if s, ok := e.Attributes[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Float returns the attribute as float64. JSON decoding stores all numbers
// as float64, but int values written by Go code are handled too.
func (e *Entity) Float(key string) (float64, bool) {
	if e == nil || e.Attributes == nil {
		return 0, false
	}
	switch v := e.Attributes[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Int returns the attribute as int, truncating float values.
func (e *Entity) Int(key string) (int, bool) {
	f, ok := e.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Bool returns the attribute as bool.
func (e *Entity) Bool(key string) bool {
	if e == nil || e.Attributes == nil {
		return false
	}
	b, _ := e.Attributes[key].(bool)
	return b
}

// Time parses the attribute as RFC3339, the wire representation used for
// every *_at timestamp field.
func (e *Entity) Time(key string) (time.Time, bool) {
	s := e.String(key)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Set writes an attribute, allocating the map when needed.
func (e *Entity) Set(key string, value any) {
	if e == nil {
		return
	}
	if e.Attributes == nil {
		e.Attributes = map[string]any{}
	}
	e.Attributes[key] = value
}

// SetTime writes an RFC3339 timestamp attribute.
func (e *Entity) SetTime(key string, t time.Time) {
	e.Set(key, t.UTC().Format(time.RFC3339))
}

// Decode maps the entity attributes onto a concrete domain type. Each
// criterion/processor decodes at its boundary instead of casting, so a
// wrong-shaped payload surfaces as an explicit error.
func Decode(e *Entity, out any) error {
	if e == nil {
		return ErrEntityRequired
	}
	raw, err := json.Marshal(e.Attributes)
	if err != nil {
		return wrapError(err, "encode entity attributes", map[string]any{
			"entity_id":   e.ID,
			"entity_type": e.Type,
		})
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return wrapError(err, "decode entity attributes", map[string]any{
			"entity_id":   e.ID,
			"entity_type": e.Type,
		})
	}
	return nil
}

// Encode writes a concrete domain value back onto the entity attributes,
// preserving envelope fields and any attributes the domain type does not
// model.
func Encode(e *Entity, in any) error {
	if e == nil {
		return ErrEntityRequired
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return wrapError(err, "encode domain value", map[string]any{
			"entity_id":   e.ID,
			"entity_type": e.Type,
		})
	}
	patch := map[string]any{}
	if err := json.Unmarshal(raw, &patch); err != nil {
		return wrapError(err, "decode domain value", map[string]any{
			"entity_id":   e.ID,
			"entity_type": e.Type,
		})
	}
	for k, v := range patch {
		e.Set(k, v)
	}
	return nil
}

func cloneAttributes(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		out := make(map[string]any, len(attrs))
		for k, v := range attrs {
			out[k] = v
		}
		return out
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		out = make(map[string]any, len(attrs))
		for k, v := range attrs {
			out[k] = v
		}
	}
	return out
}
