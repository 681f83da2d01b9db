package split

import "errors"

// ErrInvalidArgument is returned for a fold count below two or an empty
// grouping vector.
var ErrInvalidArgument = errors.New("invalid argument")
