// Package ptr has helpers to get pointers to values.
package ptr

// To returns a pointer to the given value.
func To[T any](v T) *T {
	return &v
}
