package hasher

import "errors"

// ErrDomainDecode is returned when a byte slice cannot be interpreted as a Domain element.
var ErrDomainDecode = errors.New("hasher: cannot decode domain element")
