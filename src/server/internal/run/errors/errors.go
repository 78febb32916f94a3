package runerrors

import (
	"github.com/stemsplit/stemsplit-be/src/server/internal/errors/api"
)

const (
	RunNotFoundCode       = api.ErrorCode("run_not_found")
	BadRunDataCode        = api.ErrorCode("bad_run_data")
	UnknownAlgorithmCode  = api.ErrorCode("unknown_algorithm")
	RunNotCancellableCode = api.ErrorCode("run_not_cancellable")
)
