package install

import "errors"

var (
	// ErrRejected is returned when the host answered with something that
	// is not a script (HTML error pages, binaries, empty bodies)
	ErrRejected = errors.New("response is not a script")
	// ErrTooLarge is returned when a decoded source exceeds MaxSourceSize
	ErrTooLarge = errors.New("source exceeds size limit")
	// ErrTimeout is returned when fetch plus evaluation exceeds the install timeout
	ErrTimeout = errors.New("install timed out")
)
