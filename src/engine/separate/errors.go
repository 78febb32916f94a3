package separate

import "github.com/cockroachdb/errors"

var ErrUnknownAlgorithm = errors.New("Unknown separation algorithm")
