package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
)

// Mutations that depend on an outside source run as a Pipeline:
//
//	fetch  -> pull data from the source
//	check  -> drop or reject what should not be stored
//	commit -> persist the checked data and build the caller's result
//
// Nothing is committed unless fetch and check both succeed, so a flaky
// remote can never leave the collection half merged.

// Stage names a pipeline stage.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageCheck  Stage = "check"
	StageCommit Stage = "commit"
)

// StageError records the stage a pipeline stopped at.
type StageError struct {
	Pipeline string
	Stage    Stage
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s stage: %v", e.Pipeline, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage reports the stage at which err stopped a pipeline.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}

	return "", false
}

// Pipeline describes one fetch, check and commit run. Fetch and Commit
// are required; a nil Check passes fetched data through.
type Pipeline[T, R any] struct {
	Name   string
	Fetch  func(ctx context.Context) (T, error)
	Check  func(ctx context.Context, fetched T) (T, error)
	Commit func(ctx context.Context, checked T) (R, error)
}

// Run executes p. The logger attached to ctx wins over fallback.
func (p Pipeline[T, R]) Run(ctx context.Context, fallback *slog.Logger) (R, error) {
	var zero R

	logger := logging.FromContextOr(ctx, fallback).With(slog.String("pipeline", p.Name))
	start := time.Now()

	fail := func(stage Stage, err error) (R, error) {
		logger.WarnContext(ctx, "pipeline stopped",
			slog.String("stage", string(stage)),
			slog.Any("error", err),
		)

		return zero, &StageError{Pipeline: p.Name, Stage: stage, Err: err}
	}

	if p.Fetch == nil || p.Commit == nil {
		return fail(StageFetch, errors.New("pipeline is missing a fetch or commit stage"))
	}

	data, err := p.Fetch(ctx)
	if err != nil {
		return fail(StageFetch, err)
	}

	if p.Check != nil {
		if data, err = p.Check(ctx, data); err != nil {
			return fail(StageCheck, err)
		}
	}

	// The commit stage must not be abandoned half way by a late cancel.
	committed, err := p.Commit(context.WithoutCancel(ctx), data)
	if err != nil {
		return fail(StageCommit, err)
	}

	logger.DebugContext(ctx, "pipeline finished", slog.Duration("duration", time.Since(start)))

	return committed, nil
}
