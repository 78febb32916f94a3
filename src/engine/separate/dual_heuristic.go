package separate

import "math"

const (
	// mid/side ratio above which a frame is classified as vocal
	vocalDominanceThreshold = 2.0
	// avoids division by zero on perfectly centered frames
	sideFloor = 1e-3
	// instrumental attenuation on frames classified as vocal
	vocalFrameDucking = 0.3
)

// dualHeuristicFrame classifies each frame by its mid/side energy ratio
// and ducks the instrumental on vocal frames. Marketed as "AI-enhanced";
// there is no model behind it, only this ratio test.
func dualHeuristicFrame(left, right float64) (vocal, instrLeft, instrRight float64) {
	center := (left + right) / 2
	side := (left - right) / 2

	vocalStrength := math.Abs(center) / (math.Abs(side) + sideFloor)
	if vocalStrength > vocalDominanceThreshold {
		return center, left * vocalFrameDucking, right * vocalFrameDucking
	}

	return 0, left, right
}
