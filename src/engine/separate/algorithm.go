package separate

import (
	"github.com/stemsplit/stemsplit-be/src/shared/lib/errors/mark"
)

// Algorithm selects one of the three separation heuristics. The set is
// closed: there is no plugin registry, callers dispatch through Run.
//
// The UI-facing names differ: "spectral" maps to AlgorithmCorrelation
// (the heuristic is purely time-domain despite the label) and
// "AI-enhanced" maps to AlgorithmDualHeuristic (it is a heuristic, not
// a learned model).
type Algorithm string

const (
	InvalidAlgorithm       Algorithm = ""
	AlgorithmCenterChannel Algorithm = "center_channel"
	AlgorithmCorrelation   Algorithm = "correlation"
	AlgorithmDualHeuristic Algorithm = "dual_heuristic"
)

func ParseAlgorithm(tag string) (Algorithm, error) {
	switch Algorithm(tag) {
	case AlgorithmCenterChannel:
		return AlgorithmCenterChannel, nil
	case AlgorithmCorrelation:
		return AlgorithmCorrelation, nil
	case AlgorithmDualHeuristic:
		return AlgorithmDualHeuristic, nil
	default:
		return InvalidAlgorithm,
			mark.Message(ErrUnknownAlgorithm, "Value does not match any separation algorithm: "+tag)
	}
}
