package model

import "errors"

// ErrNotFound is returned by repositories and lookup collaborators when the
// requested entity does not exist.  Callers match it with errors.Is.
var ErrNotFound = errors.New("not found")
