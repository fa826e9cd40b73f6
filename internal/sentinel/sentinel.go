package sentinel

// Compile-time check that Error implements the error interface.
var _ error = Error("")

// Error is an immutable error backed by a string constant. Because Error is
// a comparable type, the == comparison used by errors.Is works through
// wrapped error chains without any Unwrap plumbing.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
