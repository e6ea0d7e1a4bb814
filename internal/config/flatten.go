package config

import (
	"fmt"
	"strings"
)

var secretKeys = map[string]bool{
	"auth.admin_api_key":    true,
	"auth.advisory_api_key": true,
	"llm.api_key":           true,
	"telegram.token":        true,
	"memory.redis_url":      true,
}

// Flatten converts a nested map into a flat map with dot-separated keys.
// Arrays are left as values under their parent key.
func Flatten(nested map[string]any) map[string]any {
	flat := make(map[string]any)
	flattenInto(flat, "", nested)
	return flat
}

func flattenInto(flat map[string]any, prefix string, nested map[string]any) {
	for k, v := range nested {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := v.(map[string]any); ok {
			flattenInto(flat, key, m)
			continue
		}
		flat[key] = v
	}
}

// Unflatten converts a flat dot-separated key map back into a nested map.
func Unflatten(flat map[string]any) map[string]any {
	nested := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		cur := nested
		for _, part := range parts[:len(parts)-1] {
			next, ok := cur[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[part] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = value
	}
	return nested
}

// MaskSecrets replaces secret values with a masked form that keeps the
// last four characters for identification.
func MaskSecrets(flat map[string]any) map[string]any {
	masked := make(map[string]any, len(flat))
	for k, v := range flat {
		if secretKeys[k] {
			masked[k] = mask(fmt.Sprintf("%v", v))
			continue
		}
		masked[k] = v
	}
	return masked
}

// IsSecretKey reports whether the given flat key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "***"
	}
	return "***" + s[len(s)-4:]
}
