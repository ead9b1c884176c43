package server

// Default returns b when a is the zero value.
func Default[T comparable](a, b T) T {
	var c T
	if a == c {
		return b
	}
	return a
}
