package separate

import "math"

const (
	// channel difference above which a frame is assumed to carry vocals
	correlationThreshold = 0.1
	// how much of the vocal estimate is subtracted from each channel
	correlationBleed = 0.7
)

// correlationFrame thresholds the absolute L/R difference as a vocal
// presence proxy. Despite the product name for this mode ("spectral"),
// no frequency-domain transform is involved.
func correlationFrame(left, right float64) (vocal, instrLeft, instrRight float64) {
	vocal = 0
	if math.Abs(left-right) > correlationThreshold {
		vocal = (left + right) / 2
	}

	return vocal, left - correlationBleed*vocal, right - correlationBleed*vocal
}
