package transport

import (
	"fmt"
	"net/url"
	"sort"
)

// RemoveMissingValues returns a copy of m without nil values and empty
// strings. Empty slices, empty maps, and false are kept. Returns nil when
// m is nil.
func RemoveMissingValues(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if isMissing(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isMissing(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	default:
		return false
	}
}

// EncodeParams renders params as a query string with keys in sorted order.
func EncodeParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		switch v := params[k].(type) {
		case []string:
			for _, s := range v {
				values.Add(k, s)
			}
		case []any:
			for _, item := range v {
				values.Add(k, fmt.Sprint(item))
			}
		default:
			values.Add(k, fmt.Sprint(v))
		}
	}
	return values.Encode()
}
