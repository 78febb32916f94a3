package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/stemsplit/stemsplit-be/src/engine/decode"
	"github.com/stemsplit/stemsplit-be/src/engine/encode"
	"github.com/stemsplit/stemsplit-be/src/engine/separate"
)

// ErrRunInProgress is returned by Submit while a prior run on the same
// pipeline has not reached its terminal message. One pipeline instance
// processes one run at a time; hosts either wait or construct a fresh
// instance.
var ErrRunInProgress = errors.New("A separation run is already in progress")

// ErrorKind classifies a failed run for the ERROR protocol message.
type ErrorKind string

const (
	ErrorKindDecode               ErrorKind = "decode_error"
	ErrorKindUnsupportedAlgorithm ErrorKind = "unsupported_algorithm"
	ErrorKindEncode               ErrorKind = "encode_error"
	ErrorKindInternal             ErrorKind = "internal_error"
)

func KindFor(err error) ErrorKind {
	switch {
	case markers.Is(err, decode.ErrBadContainer):
		return ErrorKindDecode
	case markers.Is(err, separate.ErrUnknownAlgorithm):
		return ErrorKindUnsupportedAlgorithm
	case markers.Is(err, encode.ErrTooLarge), markers.Is(err, encode.ErrInvariant):
		return ErrorKindEncode
	default:
		return ErrorKindInternal
	}
}
