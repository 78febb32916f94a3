package runstorage

import "github.com/cockroachdb/errors"

var (
	RunNotFound      = errors.New("Run is not found")
	MarshalMark      = errors.New("Failed to marshal run record")
	UnmarshalMark    = errors.New("Failed to unmarshal run record")
	IDEmptyMark      = errors.New("Run has no ID")
	DefaultErrorMark = errors.New("Run storage failed")
)
