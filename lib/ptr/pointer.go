package ptr

// Str returns a pointer to a string.
func Str(str string) *string {
	ret := str
	return &ret
}

// Int returns a pointer to an int.
func Int(n int) *int {
	ret := n
	return &ret
}

// Bool returns a pointer to a bool.
func Bool(b bool) *bool {
	ret := b
	return &ret
}
