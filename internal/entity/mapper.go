package entity

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	apperrors "github.com/edgard/tgbotsdk/internal/errors"
)

type shape string

const (
	shapeEmpty  shape = "empty payload"
	shapeNull   shape = "null"
	shapeObject shape = "object"
	shapeArray  shape = "array"
	shapeString shape = "string"
	shapeBool   shape = "boolean"
	shapeNumber shape = "number"
)

func shapeOf(raw json.RawMessage) shape {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return shapeEmpty
	}
	switch trimmed[0] {
	case '{':
		return shapeObject
	case '[':
		return shapeArray
	case 'n':
		return shapeNull
	case '"':
		return shapeString
	case 't', 'f':
		return shapeBool
	default:
		return shapeNumber
	}
}

// Map builds the typed value for a decoded API result.
//
// With KindNone the decoded JSON value is returned unchanged. Otherwise a
// JSON object becomes a *Entity of kind, a JSON array becomes []*Entity
// in input order, and null becomes nil. Any other shape fails with a
// *errors.MappingError naming the offending field path.
func Map(raw json.RawMessage, kind Kind) (any, error) {
	if kind == KindNone {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, apperrors.NewMappingError("", "untyped value", string(shapeOf(raw)), err)
		}
		return v, nil
	}

	switch s := shapeOf(raw); s {
	case shapeNull:
		return nil, nil
	case shapeArray:
		return mapList(raw, kind, "")
	case shapeObject:
		return mapObject(raw, kind, "")
	default:
		return nil, apperrors.NewMappingError("", string(kind), string(s), nil)
	}
}

// MapEntity maps raw, which must be a JSON object, into an entity of kind.
func MapEntity(raw json.RawMessage, kind Kind) (*Entity, error) {
	if s := shapeOf(raw); s != shapeObject {
		return nil, apperrors.NewMappingError("", string(kind), string(s), nil)
	}
	return mapObject(raw, kind, "")
}

// MapEntities maps raw, which must be a JSON array of objects, into entities of kind.
func MapEntities(raw json.RawMessage, kind Kind) ([]*Entity, error) {
	return mapList(raw, kind, "")
}

func mapObject(raw json.RawMessage, kind Kind, path string) (*Entity, error) {
	fields := orderedmap.New[string, json.RawMessage]()
	if err := fields.UnmarshalJSON(raw); err != nil {
		return nil, apperrors.NewMappingError(path, string(kind), "malformed object", err)
	}

	rels := relations[kind]
	e := newEntity(kind)
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		rel, ok := rels[pair.Key]
		if !ok || shapeOf(pair.Value) == shapeNull {
			e.fields.Set(pair.Key, pair.Value)
			continue
		}

		child := joinPath(path, pair.Key)
		if rel.Repeated {
			list, err := mapList(pair.Value, rel.Kind, child)
			if err != nil {
				return nil, err
			}
			e.fields.Set(pair.Key, list)
			continue
		}

		if s := shapeOf(pair.Value); s != shapeObject {
			return nil, apperrors.NewMappingError(child, string(rel.Kind), string(s), nil)
		}
		nested, err := mapObject(pair.Value, rel.Kind, child)
		if err != nil {
			return nil, err
		}
		e.fields.Set(pair.Key, nested)
	}
	return e, nil
}

func mapList(raw json.RawMessage, kind Kind, path string) ([]*Entity, error) {
	if s := shapeOf(raw); s != shapeArray {
		return nil, apperrors.NewMappingError(path, "[]"+string(kind), string(s), nil)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperrors.NewMappingError(path, "[]"+string(kind), "malformed array", err)
	}

	out := make([]*Entity, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if s := shapeOf(item); s != shapeObject {
			return nil, apperrors.NewMappingError(itemPath, string(kind), string(s), nil)
		}
		e, err := mapObject(item, kind, itemPath)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
