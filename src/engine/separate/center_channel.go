package separate

// monoInstrumentalGain is the attenuation applied to the single channel
// when center channel extraction degrades to its mono fallback.
const monoInstrumentalGain = 0.3

// centerChannelFrame treats the L/R average as the vocal estimate,
// exploiting the common center-panning of vocals in stereo mixes.
func centerChannelFrame(left, right float64) (vocal, instrLeft, instrRight float64) {
	center := (left + right) / 2
	return center, left - 0.5*center, right - 0.5*center
}
