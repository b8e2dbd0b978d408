package schema

import "strings"

// Pick reads keyPrefix+name from input for each name and returns a payload
// keyed by name. Absent keys are left out of the payload.
func Pick(input map[string]any, keyPrefix string, names ...string) map[string]any {
	out := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := input[keyPrefix+name]; ok {
			out[name] = v
		}
	}
	return out
}

// RemoveIfEmpty drops nil members from m and returns nil when nothing is
// left, so callers can omit the enclosing key entirely.
func RemoveIfEmpty(m map[string]any) map[string]any {
	var out map[string]any
	for k, v := range m {
		if v == nil {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(m))
		}
		out[k] = v
	}
	return out
}

// ChildMapping maps every element of items through mapItem. It reports
// false when items is absent so the parent payload can omit the key rather
// than send an empty sequence.
//
// items may be []any or []map[string]any. Elements that are not objects are
// mapped as empty input.
func ChildMapping(items any, mapItem func(map[string]any) map[string]any) ([]any, bool) {
	switch list := items.(type) {
	case nil:
		return nil, false
	case []map[string]any:
		out := make([]any, 0, len(list))
		for _, item := range list {
			out = append(out, mapItem(item))
		}
		return out, true
	case []any:
		out := make([]any, 0, len(list))
		for _, el := range list {
			item, _ := el.(map[string]any)
			out = append(out, mapItem(item))
		}
		return out, true
	default:
		return nil, false
	}
}

// Flatten is the inverse of a payload mapper. It walks fields (built in
// input mode under keyPrefix) and copies each value found in nested into a
// flat map keyed by the field key. Dotted names descend into nested
// objects. Group fields produce a sequence of flat child maps.
func Flatten(fields []Field, keyPrefix string, nested map[string]any) map[string]any {
	out := make(map[string]any)
	for _, f := range fields {
		name := strings.TrimPrefix(f.Key, keyPrefix)
		v, ok := lookup(nested, strings.Split(name, objectSeparator))
		if !ok {
			continue
		}

		if !f.IsGroup() {
			out[f.Key] = v
			continue
		}

		items, ok := ChildMapping(v, func(item map[string]any) map[string]any {
			return Flatten(f.Children, MappingPrefix(ChildPrefix(f.Key)), item)
		})
		if ok {
			out[f.Key] = items
		}
	}
	return out
}

func lookup(m map[string]any, path []string) (any, bool) {
	var cur any = m
	for _, segment := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
