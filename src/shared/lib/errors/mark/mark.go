package mark

import "github.com/cockroachdb/errors"

// Wrap attaches a marker to a wrapped error so that callers can classify
// it with markers.Is without depending on the concrete cause.
func Wrap(err error, marker error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), marker)
}

func Message(marker error, msg string) error {
	return errors.Mark(errors.New(msg), marker)
}
