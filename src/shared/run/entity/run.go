package runentity

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/jsonlib"
)

const (
	// shown to the client right after submission, before the engine
	// reports its first real progress tick
	InitialProgressPercentage = 5
)

type Status string

const (
	RequestedStatus  Status = "requested"
	ProcessingStatus Status = "processing"
	CompleteStatus   Status = "complete"
	ErrorStatus      Status = "error"
	CancelledStatus  Status = "cancelled"
)

// Stem names as they appear in StemURLs and in the output file names.
const (
	VocalsStem       = "vocals"
	InstrumentalStem = "instrumental"
)

type Run struct {
	ID            string            `json:"id"`
	Algorithm     string            `json:"algorithm"`
	OutputFormat  string            `json:"output_format"`
	Quality       string            `json:"quality"`
	Status        Status            `json:"status"`
	StatusMessage string            `json:"status_message"`
	Progress      int               `json:"progress"`
	OriginalURL   string            `json:"original_url"`
	StemURLs      map[string]string `json:"stem_urls"`
}

func New(algorithm string, outputFormat string, quality string) Run {
	return Run{
		ID:           uuid.New().String(),
		Algorithm:    algorithm,
		OutputFormat: outputFormat,
		Quality:      quality,
		Status:       RequestedStatus,
		Progress:     InitialProgressPercentage,
		StemURLs:     map[string]string{},
	}
}

func (r Run) IsTerminal() bool {
	switch r.Status {
	case CompleteStatus, ErrorStatus, CancelledStatus:
		return true
	default:
		return false
	}
}

func (r Run) ToMap() (map[string]any, error) {
	return jsonlib.StructToMap(r)
}

func (r *Run) FromMap(m map[string]any) error {
	newRun, err := jsonlib.MapToStruct[Run](m)
	if err != nil {
		return err
	}

	*r = newRun
	return nil
}

type RunUpdater func(run Run) (Run, error)

//counterfeiter:generate . Store
type Store interface {
	GetRun(ctx context.Context, runID string) (Run, error)
	SetRun(ctx context.Context, run Run) error
	UpdateRun(ctx context.Context, runID string, updater RunUpdater) error
}
