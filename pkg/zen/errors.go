package zen

import "errors"

var (
	ErrEOF               = errors.New("unexpected end of archive data")
	ErrInvalidMagic      = errors.New("not a ZenGin archive")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrMalformed         = errors.New("malformed archive")
)
