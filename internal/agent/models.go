// internal/agent/models.go
package agent

import (
	"time"

	"github.com/xkilldash9x/formpilot/api/schemas"
	"github.com/xkilldash9x/formpilot/internal/reconcile"
)

// RunStatus is the controller state.
type RunStatus string

const (
	StatusRunning RunStatus = "RUNNING"
	StatusDone    RunStatus = "DONE"
	StatusAborted RunStatus = "ABORTED"
)

// RunInput is the immutable intent for one run.
type RunInput struct {
	URL    string
	Fields schemas.FieldValueMap
	// Goal is free text appended to the oracle instructions, such as a final
	// click.
	Goal string
}

// PhaseState is the state carried across phases of one run. Filled and
// TerminalIssued are the only values that influence later phases.
type PhaseState struct {
	Phase          int
	Filled         *reconcile.FilledFieldSet
	TerminalIssued bool
	// Snapshots holds the post-execution DOM of each phase, for diagnostics only.
	Snapshots []string
	// LastSnapshot is the most recent DOM captured, before or after execution.
	LastSnapshot string

	oracleFailures int
}

// ActionResult is the outcome of a single action.
type ActionResult struct {
	Action    schemas.Action
	Succeeded bool
	ErrorCode ErrorCode
	Err       error
	// MarkedFilled lists fields recorded as filled by this action.
	MarkedFilled []string
	Duration     time.Duration
}

// PhaseRecord summarizes one executed phase.
type PhaseRecord struct {
	Phase     int
	Visible   []string
	ToFill    []string
	Satisfied []string
	OracleErr error
	Actions   []ActionResult
	Unfilled  []string
}

// RunResult is returned to the caller when the run leaves RUNNING.
type RunResult struct {
	RunID          string
	Status         RunStatus
	Success        bool
	Reason         string
	Phase          int
	Filled         []string
	Unfilled       []string
	TerminalIssued bool
	ArtifactPath   string
	Phases         []PhaseRecord
	Duration       time.Duration
}

// Succeeded reports DONE with every field filled.
func (r RunResult) Succeeded() bool {
	return r.Status == StatusDone && r.Success
}
