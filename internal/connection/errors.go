package connection

import (
	"errors"
	"fmt"
)

// ErrMissingSettings is returned by resolution while the URL, username or
// password is not configured.
var ErrMissingSettings = errors.New("missing gerrit connection settings")

// ConstructError indicates the client could not be built from complete
// credentials, for example because the URL is malformed.
type ConstructError struct {
	URL string
	Err error
}

func (e *ConstructError) Error() string {
	return fmt.Sprintf("failed to create gerrit client for %s: %v", e.URL, e.Err)
}

func (e *ConstructError) Unwrap() error {
	return e.Err
}
