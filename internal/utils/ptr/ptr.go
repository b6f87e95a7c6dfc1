// Package ptr holds helpers for optional (pointer) values such as the
// tri-state isDesktopOnly flag.
package ptr

// To creates a pointer to the given value.
func To[T any](v T) *T {
	return &v
}

// Bool creates a pointer to the given bool value.
func Bool(b bool) *bool {
	return &b
}

// Deref returns the pointed-to value, or def when p is nil.
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Equal reports whether two optional values are both nil or point to equal values.
func Equal[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
