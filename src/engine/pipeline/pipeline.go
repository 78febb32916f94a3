// Package pipeline orchestrates one separation run: decode, per-frame
// separation, PCM16 WAV encoding of both stems. The host talks to it
// through Submit/Cancel and a message channel; nothing is shared with
// the processing goroutine beyond the submitted bytes, which the caller
// hands over at submission.
package pipeline

import (
	"sync"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/stemsplit/stemsplit-be/src/engine/decode"
	"github.com/stemsplit/stemsplit-be/src/engine/separate"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/errors/mark"
)

type Pipeline struct {
	activeLock sync.Mutex
	active     *Run
}

func New() *Pipeline {
	return &Pipeline{}
}

// Submit validates the request and starts the run in the background.
// Validation failures (unknown algorithm, empty input) surface here
// as errors and no run is started; everything after that point is
// reported through the run's message channel.
func (p *Pipeline) Submit(audioBytes []byte, options Options) (*Run, error) {
	algorithm, err := separate.ParseAlgorithm(options.Algorithm)
	if err != nil {
		return nil, err
	}

	if len(audioBytes) == 0 {
		return nil, mark.Message(decode.ErrBadContainer, "No audio data submitted")
	}

	p.activeLock.Lock()
	defer p.activeLock.Unlock()

	if p.active != nil {
		return nil, ErrRunInProgress
	}

	var run *Run
	run = newRun(uuid.New().String(), func() {
		p.clearActive(run)
	})
	p.active = run

	log.WithFields(log.Fields{
		"run_id":    run.ID(),
		"algorithm": string(algorithm),
		"bytes":     len(audioBytes),
	}).Info("Starting separation run")

	go run.process(audioBytes, algorithm)

	return run, nil
}

func (p *Pipeline) clearActive(run *Run) {
	p.activeLock.Lock()
	defer p.activeLock.Unlock()

	if p.active == run {
		p.active = nil
	}
}
