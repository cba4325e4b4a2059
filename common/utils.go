package common

// Coalesce returns the first argument that is not T's zero value. Configuration fallbacks use it
// to pick between a flag, a config entry and a built-in default.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
