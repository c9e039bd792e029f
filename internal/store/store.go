// Package store persists analysis runs and writes their output files.
package store

import (
	"context"
	"errors"

	"github.com/dogsub/Open-Source-TermP/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// AnalysisStore defines the contract for analysis run data access
type AnalysisStore interface {
	Create(ctx context.Context, a *model.Analysis) error
	GetByID(ctx context.Context, id int64) (*model.Analysis, error)
	// MarkRunning moves a run to running and counts the attempt.
	MarkRunning(ctx context.Context, id int64) error
	// Complete stores the results of a finished run.
	Complete(ctx context.Context, a *model.Analysis) error
	Fail(ctx context.Context, id int64, errMsg string) error
}
