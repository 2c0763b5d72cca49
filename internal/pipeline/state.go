package pipeline

import (
	"errors"
	"fmt"

	"github.com/mohammad-safakhou/newsrag/models"
)

// State is a step of a single request's run.
type State int

const (
	Idle State = iota
	Fetching
	Retrieving
	Synthesizing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Retrieving:
		return "retrieving"
	case Synthesizing:
		return "synthesizing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNoResults is reported when search and fetch left nothing to answer from.
var ErrNoResults = errors.New("no usable search results")

// PipelineError is the terminal error of a failed run. Stage is the state the
// run was in when it failed.
type PipelineError struct {
	Stage State
	Err   error
}

func (e *PipelineError) Error() string { return e.Err.Error() }
func (e *PipelineError) Unwrap() error { return e.Err }

// Kind names the error taxonomy entry of the cause.
func (e *PipelineError) Kind() string { return models.ErrorKind(e.Err) }
