package pipeline

// wire message type tags shared with hosts
const (
	ProcessAudioMessageType = "PROCESS_AUDIO"
	ProgressMessageType     = "PROGRESS"
	CompleteMessageType     = "COMPLETE"
	ErrorMessageType        = "ERROR"
)

// Options carries the processing request settings. OutputContainer and
// Quality are accepted for request compatibility but every export takes
// the canonical PCM16 WAV path - the surrounding app offers mp3/flac
// choices that have never produced different bytes.
type Options struct {
	Algorithm       string `json:"algorithm"`
	OutputContainer string `json:"outputContainer,omitempty"`
	Quality         string `json:"quality,omitempty"`
}

// ProcessRequest is the host-facing submission shape.
type ProcessRequest struct {
	Type    string  `json:"type"`
	Audio   []byte  `json:"audio"`
	Options Options `json:"options"`
}

// Message is one emission from a run: any number of Progress messages
// followed by exactly one Result or Failure. Wire returns the
// JSON-shaped value for hosts that serialize the protocol.
type Message interface {
	MessageType() string
	Wire() any
}

type Progress struct {
	ProcessedFrames uint64
	TotalFrames     uint64
	Percent         float64
}

func (Progress) MessageType() string { return ProgressMessageType }

func (p Progress) Wire() any {
	return struct {
		Type    string  `json:"type"`
		Percent float64 `json:"percent"`
	}{
		Type:    ProgressMessageType,
		Percent: p.Percent,
	}
}

type Result struct {
	Vocals       []byte
	Instrumental []byte
}

func (Result) MessageType() string { return CompleteMessageType }

func (r Result) Wire() any {
	type stems struct {
		Vocals       []byte `json:"vocals"`
		Instrumental []byte `json:"instrumental"`
	}

	return struct {
		Type string `json:"type"`
		Data stems  `json:"data"`
	}{
		Type: CompleteMessageType,
		Data: stems{
			Vocals:       r.Vocals,
			Instrumental: r.Instrumental,
		},
	}
}

type Failure struct {
	Kind    ErrorKind
	Message string
}

func (Failure) MessageType() string { return ErrorMessageType }

func (f Failure) Wire() any {
	type errData struct {
		Error string `json:"error"`
	}

	return struct {
		Type string  `json:"type"`
		Data errData `json:"data"`
	}{
		Type: ErrorMessageType,
		Data: errData{Error: f.Message},
	}
}
