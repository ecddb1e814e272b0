package pipeline

import (
	"context"

	"jobscout/internal/errors"
)

// Status is the request state of a single pipeline stage.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

// RunStage drives one stage request through its state machine:
// Idle -> Loading -> {Success, Empty, Error}. The progress indicator runs
// only while Loading and is forced to completion on every exit path. A zero
// result is the distinct Empty outcome, not an error; a failed call reports
// Error and the caller keeps its prior state untouched.
func RunStage[T any](
	ctx context.Context,
	name string,
	progress *Progress,
	logger *errors.Logger,
	call func(context.Context) (T, error),
	isEmpty func(T) bool,
) (T, Status, error) {
	var zero T

	if progress != nil {
		progress.Start()
	}
	logger.Debug("Stage request started", "stage", name)

	result, err := call(ctx)

	if progress != nil {
		progress.Finish()
	}

	if err != nil {
		logger.Warn("Stage request failed", "stage", name, "error", err.Error())
		return zero, StatusError, err
	}

	if isEmpty != nil && isEmpty(result) {
		logger.Info("Stage request returned no results", "stage", name)
		return result, StatusEmpty, nil
	}

	logger.Debug("Stage request succeeded", "stage", name)
	return result, StatusSuccess, nil
}
