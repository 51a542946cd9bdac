package branchlang

import (
	"errors"
	"fmt"

	"github.com/ukaji3/branchlang-go/pkg/branchlang/parser"
)

// ErrFileNotFound indicates an input workbook does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrSheetNotFound indicates a workbook lacks the configured sheet.
var ErrSheetNotFound = parser.ErrSheetNotFound

// Stage names a pipeline step.
type Stage string

const (
	StageConfig    Stage = "config"
	StageAddresses Stage = "addresses"
	StageCache     Stage = "cache"
	StageCounties  Stage = "counties"
	StageLanguages Stage = "languages"
	StageWrite     Stage = "write"
)

// StageError represents a failure in one pipeline step. The run stops at
// the first StageError and writes no output.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError creates a new StageError.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{
		Stage: stage,
		Err:   err,
	}
}
