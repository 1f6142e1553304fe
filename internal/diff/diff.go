// Package diff computes the set differences between two catalogs.
// Every result is sorted, so callers can rely on a stable order.
package diff

import "sort"

func toSet(names []string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func sorted(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Minus returns the names in a that are not in b.
func Minus(a, b []string) []string {
	bs := toSet(b)
	out := map[string]struct{}{}
	for _, n := range a {
		if _, ok := bs[n]; !ok {
			out[n] = struct{}{}
		}
	}
	return sorted(out)
}

// Intersect returns the names present in both a and b.
func Intersect(a, b []string) []string {
	bs := toSet(b)
	out := map[string]struct{}{}
	for _, n := range a {
		if _, ok := bs[n]; ok {
			out[n] = struct{}{}
		}
	}
	return sorted(out)
}

// MissingTables is source - destination.
func MissingTables(source, destination []string) []string {
	return Minus(source, destination)
}

// ExtraTables is destination - source.
func ExtraTables(source, destination []string) []string {
	return Minus(destination, source)
}

// CommonTables is source ∩ destination.
func CommonTables(source, destination []string) []string {
	return Intersect(source, destination)
}

// MissingColumns is the set of source column names absent from destination.
// Column order does not matter.
func MissingColumns(source, destination []string) []string {
	return Minus(source, destination)
}

// Without removes every name in ignore from names, keeping order.
func Without(names, ignore []string) []string {
	if len(ignore) == 0 {
		return names
	}
	skip := toSet(ignore)
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := skip[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
