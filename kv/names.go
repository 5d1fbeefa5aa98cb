package kv

import "fmt"

// ValidateCollections checks that names is non-empty, free of duplicates and
// that every name matches [A-Za-z0-9_]+, which keeps names safe to embed in
// backend identifiers.
func ValidateCollections(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("kv: no collections")
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("kv: empty collection name")
		}
		for _, c := range name {
			if !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
				return fmt.Errorf("kv: invalid collection name %q", name)
			}
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("kv: duplicate collection %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
