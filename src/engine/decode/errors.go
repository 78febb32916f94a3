package decode

import "github.com/cockroachdb/errors"

// ErrBadContainer marks every decode failure: unrecognized magic bytes,
// truncated data, or a container the format decoder rejects. Check with
// markers.Is.
var ErrBadContainer = errors.New("Unrecognized or corrupt audio container")
