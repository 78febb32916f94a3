package dummy

import (
	"context"
	"sync"

	"github.com/stemsplit/stemsplit-be/src/shared/lib/errors/mark"
	runentity "github.com/stemsplit/stemsplit-be/src/shared/run/entity"
	runstorage "github.com/stemsplit/stemsplit-be/src/shared/run/storage"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/lib/cerr"
)

var _ runentity.Store = &RunStore{}

func NewDummyRunStore() *RunStore {
	return &RunStore{
		Unavailable: false,
		State:       make(map[string]runentity.Run),
	}
}

type RunStore struct {
	Unavailable bool
	State       map[string]runentity.Run
	mutex       sync.RWMutex
}

func (r *RunStore) GetRun(ctx context.Context, runID string) (runentity.Run, error) {
	if r.Unavailable {
		return runentity.Run{}, NetworkFailure
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	run, ok := r.State[runID]
	if !ok {
		return runentity.Run{}, mark.Wrap(NotFound, runstorage.RunNotFound, "Run is not found")
	}

	return run, nil
}

func (r *RunStore) SetRun(ctx context.Context, run runentity.Run) error {
	if r.Unavailable {
		return NetworkFailure
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.State[run.ID] = run
	return nil
}

func (r *RunStore) UpdateRun(ctx context.Context, runID string, updater runentity.RunUpdater) error {
	if r.Unavailable {
		return NetworkFailure
	}

	run, err := r.GetRun(ctx, runID)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to get run from DB")
	}

	updatedRun, err := updater(run)
	if err != nil {
		return cerr.Wrap(err).Error("Run update function failed")
	}

	return r.SetRun(ctx, updatedRun)
}
