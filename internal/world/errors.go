package world

import (
	"errors"
	"fmt"

	"github.com/samcharles93/zenworld/pkg/zen"
)

var (
	// ErrRootMismatch means the archive's root object is not a world.
	ErrRootMismatch = errors.New("unexpected root object class")
	// ErrTruncated means the archive ended before the world did.
	ErrTruncated = errors.New("truncated archive")
)

// decodeErr translates low-level read failures into the world-level error
// taxonomy. Buffer exhaustion never escapes as a raw zen.ErrEOF.
func decodeErr(err error) error {
	if errors.Is(err, zen.ErrEOF) {
		return fmt.Errorf("world: %w: eof reached (%v)", ErrTruncated, err)
	}
	return fmt.Errorf("world: %w", err)
}
