package store

import (
	"bytes"
	"encoding/json"
)

// Normalize converts an arbitrary Go value into the generic JSON shape
// (map[string]any, []any, json.Number, string, bool, nil) used by the
// in-process tree helpers.
func Normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if raw, ok := value.(json.RawMessage); ok {
		return decodeGeneric(raw)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return decodeGeneric(data)
}

func decodeGeneric(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup walks root along segments. The second result is false when any
// segment is missing or an intermediate node is not an object.
func Lookup(root any, segments []string) (any, bool) {
	node := root
	for _, seg := range segments {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return node, node != nil
}

// Place writes value at segments below root, creating intermediate objects
// and replacing scalars in the way. A nil value removes the node and prunes
// parents left empty, matching Realtime Database semantics.
func Place(root map[string]any, segments []string, value any) {
	if len(segments) == 0 {
		return
	}
	if value == nil {
		remove(root, segments)
		return
	}
	node := root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
}

func remove(node map[string]any, segments []string) bool {
	key := segments[0]
	if len(segments) == 1 {
		delete(node, key)
		return len(node) == 0
	}
	child, ok := node[key].(map[string]any)
	if !ok {
		return len(node) == 0
	}
	if remove(child, segments[1:]) {
		delete(node, key)
	}
	return len(node) == 0
}

// Clone deep-copies a generic JSON tree.
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			out[k] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = Clone(child)
		}
		return out
	default:
		return v
	}
}

// Children encodes each child of an object node as raw JSON.
func Children(node any) (map[string]json.RawMessage, error) {
	obj, ok := node.(map[string]any)
	if !ok {
		return map[string]json.RawMessage{}, nil
	}
	out := make(map[string]json.RawMessage, len(obj))
	for key, child := range obj {
		raw, err := json.Marshal(child)
		if err != nil {
			return nil, err
		}
		out[key] = raw
	}
	return out, nil
}

// Assign decodes a generic node into dst.
func Assign(node any, dst any) error {
	raw, err := json.Marshal(node)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
