// Package entity implements the typed object model of the Bot API.
//
// An Entity keeps every field of the payload it was built from, in the
// original order, so that unknown or newly introduced keys survive a
// round trip. Fields declared in the relation table are hydrated into
// nested entities; every other value is kept as verbatim JSON and decoded
// on access.
package entity

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/iancoleman/strcase"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entity is a read-only, ordered view over one JSON object.
// All methods are safe to call on a nil *Entity and return zero values.
type Entity struct {
	kind   Kind
	fields *orderedmap.OrderedMap[string, any]
}

func newEntity(kind Kind) *Entity {
	return &Entity{kind: kind, fields: orderedmap.New[string, any]()}
}

// Kind reports the entity type the payload was mapped into.
func (e *Entity) Kind() Kind {
	if e == nil {
		return KindNone
	}
	return e.kind
}

// Len returns the number of fields.
func (e *Entity) Len() int {
	if e == nil {
		return 0
	}
	return e.fields.Len()
}

// Keys returns the wire keys in payload order.
func (e *Entity) Keys() []string {
	if e == nil {
		return nil
	}
	keys := make([]string, 0, e.fields.Len())
	for pair := e.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// lookup finds the stored value for name. The exact wire key wins; an
// idiomatic spelling (messageId, MessageID) is translated to snake_case.
func (e *Entity) lookup(name string) (any, bool) {
	if e == nil {
		return nil, false
	}
	if v, ok := e.fields.Get(name); ok {
		return v, true
	}
	if key := WireKey(name); key != name {
		return e.fields.Get(key)
	}
	return nil, false
}

// Has reports whether the field is present, even when its value is null.
func (e *Entity) Has(name string) bool {
	_, ok := e.lookup(name)
	return ok
}

// Get returns the field value: *Entity or []*Entity for hydrated
// relations, otherwise the decoded JSON value (numbers as json.Number).
func (e *Entity) Get(name string) any {
	v, ok := e.lookup(name)
	if !ok {
		return nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		decoded, err := decodeValue(raw)
		if err != nil {
			return nil
		}
		return decoded
	}
	return v
}

// Raw returns the field re-encoded as JSON.
func (e *Entity) Raw(name string) (json.RawMessage, bool) {
	v, ok := e.lookup(name)
	if !ok {
		return nil, false
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return b, true
}

// String returns a string field, or "" when absent or not a string.
func (e *Entity) String(name string) string {
	s, _ := e.Get(name).(string)
	return s
}

// Int64 returns an integer field, or 0 when absent or not an integer.
func (e *Entity) Int64(name string) int64 {
	n, ok := e.Get(name).(json.Number)
	if !ok {
		return 0
	}
	i, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0
	}
	return i
}

// Float64 returns a numeric field, or 0 when absent or not a number.
func (e *Entity) Float64(name string) float64 {
	n, ok := e.Get(name).(json.Number)
	if !ok {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

// Bool returns a boolean field, or false when absent or not a boolean.
func (e *Entity) Bool(name string) bool {
	b, _ := e.Get(name).(bool)
	return b
}

// Child returns a hydrated single relation, or nil.
func (e *Entity) Child(name string) *Entity {
	child, _ := e.Get(name).(*Entity)
	return child
}

// Children returns a hydrated repeated relation, or nil.
func (e *Entity) Children(name string) []*Entity {
	list, _ := e.Get(name).([]*Entity)
	return list
}

// Type resolves the variant of a polymorphic payload: the first key of
// the kind's discriminator list present in the payload, or "" when none is.
func (e *Entity) Type() string {
	if e == nil {
		return ""
	}
	for _, key := range discriminators[e.kind] {
		if _, ok := e.fields.Get(key); ok {
			return key
		}
	}
	return ""
}

// MarshalJSON re-serializes every original key in payload order.
func (e *Entity) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	return e.fields.MarshalJSON()
}

// WireKey translates an idiomatic field name to its snake_case wire key.
func WireKey(name string) string {
	return strcase.ToSnake(name)
}

// IdiomaticKey translates a wire key to its lowerCamelCase spelling.
func IdiomaticKey(key string) string {
	return strcase.ToLowerCamel(key)
}

func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
