// Package cerr builds errors that carry structured context fields, so a
// failure deep in a job handler surfaces with the run ID and parameters
// that were in play.
package cerr

import (
	"fmt"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

type F map[string]any

type ErrorContext struct {
	fields F
	cause  error
}

func Fields(fields F) ErrorContext {
	return ErrorContext{}.Fields(fields)
}

func Field(key string, value any) ErrorContext {
	return ErrorContext{}.Field(key, value)
}

func Wrap(err error) ErrorContext {
	return ErrorContext{}.Wrap(err)
}

func Error(msg string) error {
	return ErrorContext{}.Error(msg)
}

func (e ErrorContext) Fields(fields F) ErrorContext {
	merged := F{}
	for k, v := range e.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return ErrorContext{fields: merged, cause: e.cause}
}

func (e ErrorContext) Field(key string, value any) ErrorContext {
	return e.Fields(F{key: value})
}

func (e ErrorContext) Wrap(err error) ErrorContext {
	return ErrorContext{fields: e.fields, cause: err}
}

// Error finalizes the context into an error. Fields are attached as
// safe details so they survive wrapping and show up in Log output.
func (e ErrorContext) Error(msg string) error {
	var err error
	if e.cause != nil {
		err = errors.Wrap(e.cause, msg)
	} else {
		err = errors.New(msg)
	}

	for key, value := range e.fields {
		err = errors.WithDetailf(err, "%s: %+v", key, value)
	}

	return err
}

func Log(err error) {
	log.WithError(err).
		WithField("details", fmt.Sprintf("%+v", errors.GetAllDetails(err))).
		Error(err.Error())
}
