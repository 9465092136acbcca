package search

import "strings"

// Field extracts one searchable text field from an item.
type Field[T any] func(T) string

// SearchByText keeps items where any field contains the trimmed query,
// case-insensitively. A blank query keeps everything.
func SearchByText[T any](items []T, query string, fields ...Field[T]) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, f := range fields {
			if v := f(item); v != "" && strings.Contains(strings.ToLower(v), q) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Predicate decides whether an item passes a filter.
type Predicate[T any] func(T) bool

// Filter keeps items that satisfy every predicate. Nil predicates are
// ignored, so optional criteria can be passed unconditionally.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	active := preds[:0:0]
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		keep := true
		for _, p := range active {
			if !p(item) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}

// ContainsFold returns a predicate matching items whose field contains want,
// or nil when want is empty.
func ContainsFold[T any](field Field[T], want string) Predicate[T] {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return nil
	}
	return func(item T) bool {
		return strings.Contains(strings.ToLower(field(item)), want)
	}
}

// EqualFold returns a predicate matching items whose field equals want,
// ignoring case, or nil when want is empty.
func EqualFold[T any](field Field[T], want string) Predicate[T] {
	want = strings.TrimSpace(want)
	if want == "" {
		return nil
	}
	return func(item T) bool {
		return strings.EqualFold(field(item), want)
	}
}
