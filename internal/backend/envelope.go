package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// List is a normalised list response. Counted is false when the backend
// sent no count, meaning Items is the whole collection.
type List[T any] struct {
	Items      []T
	TotalCount int
	Counted    bool
}

var (
	listKeys  = []string{"results", "data", "items"}
	countKeys = []string{"count", "total_count", "total"}
)

// DecodeList accepts every list shape the API produces: a bare array,
// {"results": [...], "count": n}, or {"<field>": [...], "total_count": n}.
// When no count is present the item count is used.
func DecodeList[T any](raw []byte, field string) (List[T], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return List[T]{Items: []T{}}, nil
	}

	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return List[T]{}, fmt.Errorf("decode list: %w", err)
		}
		if items == nil {
			items = []T{}
		}
		return List[T]{Items: items, TotalCount: len(items)}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return List[T]{}, fmt.Errorf("decode list envelope: %w", err)
	}

	keys := listKeys
	if field != "" {
		keys = append([]string{field}, listKeys...)
	}

	var (
		itemsRaw json.RawMessage
		found    bool
	)
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			itemsRaw, found = v, true
			break
		}
	}
	if !found {
		return List[T]{}, fmt.Errorf("decode list envelope: no list field among %v", keys)
	}

	var items []T
	if err := json.Unmarshal(itemsRaw, &items); err != nil {
		return List[T]{}, fmt.Errorf("decode list items: %w", err)
	}
	if items == nil {
		items = []T{}
	}

	out := List[T]{Items: items, TotalCount: len(items)}
	for _, k := range countKeys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		var n int
		if err := json.Unmarshal(v, &n); err == nil {
			out.TotalCount = n
			out.Counted = true
			break
		}
	}

	return out, nil
}
