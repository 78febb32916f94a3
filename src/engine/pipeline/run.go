package pipeline

import (
	"context"
	"sync"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/stemsplit/stemsplit-be/src/engine/decode"
	"github.com/stemsplit/stemsplit-be/src/engine/encode"
	"github.com/stemsplit/stemsplit-be/src/engine/separate"
)

type State string

const (
	StateIdle       State = "idle"
	StateDecoding   State = "decoding"
	StateProcessing State = "processing"
	StateEncoding   State = "encoding"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

func (s State) Terminal() bool {
	switch s {
	case StateComplete, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// Run is the handle for one separation. Messages yields progress
// followed by exactly one terminal message, then closes. After Cancel
// no message of any kind is delivered.
type Run struct {
	id       string
	messages chan Message
	ctx      context.Context
	cancel   context.CancelFunc

	stateLock sync.Mutex
	state     State

	deliverLock sync.Mutex
	cancelled   bool

	onDone func()
}

func newRun(id string, onDone func()) *Run {
	ctx, cancel := context.WithCancel(context.Background())

	return &Run{
		id:       id,
		messages: make(chan Message),
		ctx:      ctx,
		cancel:   cancel,
		state:    StateIdle,
		onDone:   onDone,
	}
}

func (r *Run) ID() string {
	return r.id
}

func (r *Run) Messages() <-chan Message {
	return r.messages
}

func (r *Run) State() State {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()
	return r.state
}

// Cancel discards the run. The processing goroutine stops at its next
// progress interval; once Cancel returns, nothing more is delivered on
// Messages, not even a terminal message. Taking deliverLock here fences
// out a delivery that was already in flight when the context fired.
func (r *Run) Cancel() {
	r.cancel()

	r.deliverLock.Lock()
	r.cancelled = true
	r.deliverLock.Unlock()

	r.setState(StateCancelled)
}

// setState moves the run forward. Terminal states are sticky so a late
// transition can never resurrect a cancelled or failed run.
func (r *Run) setState(next State) {
	r.stateLock.Lock()
	defer r.stateLock.Unlock()

	if r.state.Terminal() {
		return
	}

	log.WithFields(log.Fields{
		"run_id": r.id,
		"from":   string(r.state),
		"to":     string(next),
	}).Debug("Run state transition")

	r.state = next
}

func (r *Run) process(audioBytes []byte, algorithm separate.Algorithm) {
	defer r.onDone()
	defer close(r.messages)

	logger := log.WithField("run_id", r.id)

	r.setState(StateDecoding)
	buffer, err := decode.Decode(audioBytes)
	if err != nil {
		r.fail(errors.Wrap(err, "Failed to decode the submitted audio"))
		return
	}

	logger.WithFields(log.Fields{
		"channels":    buffer.Channels(),
		"frames":      buffer.Frames(),
		"sample_rate": buffer.SampleRate(),
	}).Info("Decoded audio, starting separation")

	r.setState(StateProcessing)
	outputs, err := separate.Run(r.ctx, algorithm, buffer, r.relayProgress)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Run cancelled during separation")
			return
		}

		r.fail(errors.Wrap(err, "Separation failed"))
		return
	}

	r.setState(StateEncoding)
	vocals, err := encode.WAV(outputs.Vocals)
	if err != nil {
		r.fail(errors.Wrap(err, "Failed to encode the vocals stem"))
		return
	}

	instrumental, err := encode.WAV(outputs.Instrumental)
	if err != nil {
		r.fail(errors.Wrap(err, "Failed to encode the instrumental stem"))
		return
	}

	if r.deliver(Result{Vocals: vocals, Instrumental: instrumental}) {
		r.setState(StateComplete)
		logger.Info("Run complete")
	}
}

func (r *Run) relayProgress(processedFrames int, totalFrames int, percent float64) {
	r.deliver(Progress{
		ProcessedFrames: uint64(processedFrames),
		TotalFrames:     uint64(totalFrames),
		Percent:         percent,
	})
}

// deliver sends unless the run is cancelled. Reports whether the
// message went out. The lock is held across the send so Cancel can
// wait for an in-flight delivery to resolve before it returns.
func (r *Run) deliver(msg Message) bool {
	r.deliverLock.Lock()
	defer r.deliverLock.Unlock()

	if r.cancelled {
		return false
	}

	select {
	case <-r.ctx.Done():
		return false
	case r.messages <- msg:
		return true
	}
}

func (r *Run) fail(err error) {
	log.WithField("run_id", r.id).WithError(err).Error("Run failed")

	if r.deliver(Failure{Kind: KindFor(err), Message: err.Error()}) {
		r.setState(StateFailed)
	}
}
