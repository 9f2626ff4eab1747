package textutil

import "strings"

// NormalizeStringMap trims keys and values and drops entries whose key
// becomes empty. Returns nil when nothing survives.
func NormalizeStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// MergeStringMaps overlays maps left to right, later entries winning. Keys
// and values are normalized the same way as NormalizeStringMap.
func MergeStringMaps(maps ...map[string]string) map[string]string {
	var out map[string]string
	for _, m := range maps {
		for key, value := range m {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if out == nil {
				out = make(map[string]string)
			}
			out[key] = strings.TrimSpace(value)
		}
	}
	return out
}
