package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("team not found")
	ErrInvalidLimit  = errors.New("invalid projection limit")
	ErrMissingColumn = errors.New("missing csv column")
	ErrMalformedRow  = errors.New("malformed csv row")
)
