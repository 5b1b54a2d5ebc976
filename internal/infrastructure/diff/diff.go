package diff

import (
	"encoding/json"
	"reflect"
	"sort"
)

type Differ struct{}

// Diff returns the top-level keys of after whose values differ from before.
// Keys dropped from after map to nil.
func (d *Differ) Diff(before, after map[string]any) map[string]any {
	delta := map[string]any{}
	for k, v := range after {
		if prev, ok := before[k]; !ok || !reflect.DeepEqual(prev, v) {
			delta[k] = v
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			delta[k] = nil
		}
	}
	return delta
}

// ChangedFields renders two values as JSON documents and lists the
// top-level fields that differ, sorted.
func (d *Differ) ChangedFields(before, after any) ([]string, error) {
	b, err := toMap(before)
	if err != nil {
		return nil, err
	}
	a, err := toMap(after)
	if err != nil {
		return nil, err
	}
	delta := d.Diff(b, a)
	keys := make([]string, 0, len(delta))
	for k := range delta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
