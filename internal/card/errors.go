package card

import "errors"

// ErrNotFound is returned for unknown card ids. Check with errors.Is.
var ErrNotFound = errors.New("card: not found")
