package runstorage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/guregu/dynamo"
	dynamolib "github.com/stemsplit/stemsplit-be/src/shared/lib/dynamo"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/errors/mark"
	runentity "github.com/stemsplit/stemsplit-be/src/shared/run/entity"
)

const (
	RunsTable = "SeparationRuns"
	idKey     = "id"
)

var _ runentity.Store = DB{}

type DB struct {
	dynamoDB dynamolib.DynamoDBWrapper
}

func NewDB(dynamoDB dynamolib.DynamoDBWrapper) DB {
	return DB{
		dynamoDB: dynamoDB,
	}
}

func (d DB) GetRun(ctx context.Context, runID string) (runentity.Run, error) {
	value := map[string]any{}
	err := d.dynamoDB.Table(RunsTable).
		Get(idKey, runID).
		OneWithContext(ctx, &value)

	if err != nil {
		switch {
		case errors.Is(err, dynamo.ErrNotFound):
			return runentity.Run{}, mark.Wrap(err, RunNotFound, "Run is not found")
		default:
			return runentity.Run{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch run")
		}
	}

	run := runentity.Run{}
	err = run.FromMap(value)
	if err != nil {
		return runentity.Run{},
			mark.Wrap(err, UnmarshalMark, "Failed to transform DB map back to entity run")
	}

	return run, nil
}

func (d DB) SetRun(ctx context.Context, run runentity.Run) error {
	if run.ID == "" {
		return mark.Message(IDEmptyMark, "Run ID is not defined on run")
	}

	dbObject, err := run.ToMap()
	if err != nil {
		return mark.Wrap(err,
			MarshalMark,
			"Failed to transform entity run to a generic map object")
	}

	err = d.dynamoDB.Table(RunsTable).Put(dbObject).RunWithContext(ctx)
	if err != nil {
		return mark.Wrap(err,
			DefaultErrorMark,
			"Failed to put the run in the DB")
	}

	return nil
}

func (d DB) UpdateRun(ctx context.Context, runID string, updater runentity.RunUpdater) error {
	run, err := d.GetRun(ctx, runID)
	if err != nil {
		if markers.Is(err, RunNotFound) {
			return errors.Wrap(err, "Can't find the run to update")
		}
		return mark.Wrap(err, DefaultErrorMark, "Failed to fetch run for update")
	}

	updatedRun, err := updater(run)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "The updater failed to make changes to the run")
	}

	if updatedRun.ID != run.ID {
		return mark.Message(DefaultErrorMark, "The updater must not change the run ID")
	}

	return d.SetRun(ctx, updatedRun)
}
