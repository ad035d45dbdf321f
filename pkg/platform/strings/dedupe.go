// Package strings cleans user-supplied string lists, such as listing image
// URLs, before they are validated and stored.
package strings

import "strings"

// UniqueNonEmpty trims each value and keeps the first occurrence of every
// non-blank one, in input order. Comparison is case-sensitive because URL
// paths are. A nil input stays nil.
func UniqueNonEmpty(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
