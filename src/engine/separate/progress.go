package separate

type progressReporter struct {
	onProgress  ProgressFunc
	totalFrames int
	interval    int
}

func newProgressReporter(onProgress ProgressFunc, totalFrames int, sampleRate int) progressReporter {
	return progressReporter{
		onProgress:  onProgress,
		totalFrames: totalFrames,
		// one report per second of audio
		interval: sampleRate,
	}
}

func (p progressReporter) atInterval(processedFrames int) bool {
	return processedFrames%p.interval == 0
}

func (p progressReporter) emit(processedFrames int) {
	if p.onProgress == nil {
		return
	}

	percent := 100.0
	if p.totalFrames > 0 {
		percent = float64(processedFrames) / float64(p.totalFrames) * 100
	}

	p.onProgress(processedFrames, p.totalFrames, percent)
}

// finish reports completion. Always fires, so the last value a consumer
// sees before the run's terminal message is 100.
func (p progressReporter) finish() {
	if p.onProgress == nil {
		return
	}

	p.onProgress(p.totalFrames, p.totalFrames, 100)
}
