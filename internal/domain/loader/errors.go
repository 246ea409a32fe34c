package loader

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for identifiers missing from the registry
var ErrNotFound = errors.New("library not found")

// InstallError reports a failed fetch-and-install. Every caller that joined
// the same in-flight load receives the same *InstallError.
type InstallError struct {
	ID  string
	Err error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("failed to install library %s: %v", e.ID, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
