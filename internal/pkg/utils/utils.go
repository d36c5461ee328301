// Package utils holds small shared helpers.
package utils

// Ptr returns a pointer to v. Useful for optional fields and partial
// updates.
func Ptr[T any](v T) *T {
	return &v
}
