package encode

import "github.com/cockroachdb/errors"

var (
	// sample data would overflow the 32-bit RIFF size fields
	ErrTooLarge = errors.New("Buffer is too large to serialize as WAV")
	// the buffer violates an encoder precondition
	ErrInvariant = errors.New("Buffer violates an encoding invariant")
)
