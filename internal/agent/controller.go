// internal/agent/controller.go
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot/api/schemas"
	"github.com/xkilldash9x/formpilot/internal/browser/dom"
	"github.com/xkilldash9x/formpilot/internal/config"
	"github.com/xkilldash9x/formpilot/internal/observability"
	"github.com/xkilldash9x/formpilot/internal/oracle"
	"github.com/xkilldash9x/formpilot/internal/reconcile"
)

// Controller runs the phase loop: inspect, reconcile, plan, execute, until
// every field is filled, the phase cap is hit, or a collaborator fails.
type Controller struct {
	cfg       config.AgentConfig
	launcher  Launcher
	oracle    *oracle.Client
	inspector *dom.Inspector
	engine    *reconcile.Engine
	logger    *zap.Logger
}

// NewController wires a controller. A nil logger uses the global one.
func NewController(cfg config.AgentConfig, launcher Launcher, client *oracle.Client, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = observability.GetLogger()
	}
	logger = logger.Named("controller")
	return &Controller{
		cfg:       cfg,
		launcher:  launcher,
		oracle:    client,
		inspector: dom.NewInspector(cfg.SubmitKeyword),
		engine:    reconcile.NewEngine(logger),
		logger:    logger,
	}
}

// withLogger returns a shallow copy bound to logger.
func (c *Controller) withLogger(logger *zap.Logger) *Controller {
	cp := *c
	cp.logger = logger
	return &cp
}

// abort wraps a collaborator failure that ends the run in ABORTED.
func abort(reason string, err error) error {
	return fmt.Errorf("%s: %w", reason, err)
}

// Run drives one login flow to completion. The page is closed and the last
// snapshot persisted on every exit path.
func (c *Controller) Run(ctx context.Context, input RunInput) (result RunResult) {
	start := time.Now()
	state := &PhaseState{Phase: 1, Filled: reconcile.NewFilledFieldSet()}
	result.Status = StatusRunning

	runID := uuid.NewString()
	c = c.withLogger(c.logger.With(zap.String("run_id", runID)))
	c.logger.Info("Starting run.", zap.String("url", input.URL), zap.Int("fields", len(input.Fields)))

	page, err := c.launcher.Launch(ctx)
	if err != nil {
		c.logger.Error("Failed to launch browser.", zap.Error(err))
		return c.finish(state, input, RunResult{RunID: runID, Status: StatusAborted, Reason: "launch failed: " + err.Error()}, start)
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic recovered in phase loop.", zap.Any("panic_value", r), zap.Stack("stack"))
			result = c.finish(state, input, RunResult{RunID: runID, Status: StatusAborted, Reason: fmt.Sprintf("panic: %v", r)}, start)
		}
		result.ArtifactPath = c.persist(state)
		if state.LastSnapshot != "" {
			_ = sleep(ctx, c.cfg.FinalWait)
		}
		if err := page.Close(); err != nil {
			c.logger.Warn("Failed to close page.", zap.Error(err))
		}
	}()

	phases, err := c.loop(ctx, page, input, state)
	result.Phases = phases
	if err != nil {
		reason := err.Error()
		c.logger.Error("Run aborted.", zap.Int("phase", state.Phase), zap.String("reason", reason))
		return c.finish(state, input, RunResult{RunID: runID, Status: StatusAborted, Reason: reason, Phases: phases}, start)
	}

	res := RunResult{RunID: runID, Status: StatusDone, Success: state.Filled.Covers(input.Fields), Phases: phases}
	if res.Success {
		c.logger.Info("All expected fields filled. Ending run.", zap.Int("phase", state.Phase))
	} else {
		res.Reason = "phase budget exhausted"
		c.logger.Warn("Phase budget exhausted.",
			zap.Int("max_phases", c.cfg.MaxPhases),
			zap.Strings("unfilled", state.Filled.Missing(input.Fields)))
	}
	return c.finish(state, input, res, start)
}

// loop executes phases until a terminal state. A nil error means DONE.
func (c *Controller) loop(ctx context.Context, page Page, input RunInput, state *PhaseState) ([]PhaseRecord, error) {
	var records []PhaseRecord

	// 1. Navigate and let the first render settle.
	if err := c.navigate(ctx, page, input.URL); err != nil {
		return records, abort("navigation failed", err)
	}
	if err := sleep(ctx, c.cfg.NavigationSettle); err != nil {
		return records, abort("canceled", err)
	}

	planner := c.oracle.BeginRun()
	executor := NewExecutor(page, c.cfg.ElementTimeout, c.logger)

	for ; ; state.Phase++ {
		log := c.logger.With(zap.Int("phase", state.Phase))
		log.Info("Starting phase.", zap.String("goal", input.Goal))

		// 2. Inspect and reconcile against a fresh snapshot.
		snapshot, err := c.snapshot(ctx, page)
		if err != nil {
			return records, abort("snapshot failed", err)
		}
		state.LastSnapshot = snapshot
		inspection := c.inspector.Inspect(snapshot)
		rec := c.engine.Reconcile(input.Fields, state.Filled, inspection)

		record := PhaseRecord{
			Phase:     state.Phase,
			Visible:   inspection.Identifiers(),
			ToFill:    rec.ToFill.Names(),
			Satisfied: rec.Satisfied,
		}
		log.Info("Visible fields.", zap.Strings("visible", record.Visible))
		log.Info("Fields to fill this phase.", zap.Strings("to_fill", record.ToFill), zap.Strings("already_satisfied", rec.Satisfied))

		// 3. Plan only when there is something to fill.
		var plan schemas.ActionPlan
		if len(rec.ToFill) > 0 {
			res := planner.Plan(ctx, oracle.Request{
				Summary: c.inspector.Summarize(snapshot, c.cfg.SummaryLimit),
				Fields:  rec.ToFill,
				Goal:    input.Goal,
			})
			plan = res.Plan
			record.OracleErr = res.Err
			if err := c.trackOracle(state, res.Err); err != nil {
				records = append(records, record)
				return records, err
			}
		}

		// 4. Terminal click, at most once per run.
		plan = c.appendTerminal(state, inspection, plan, log)

		// 5. Execute and let the page settle.
		log.Info("Performing actions.", zap.Int("count", len(plan)))
		record.Actions = executor.Execute(ctx, plan, input.Fields, state.Filled)
		if err := sleep(ctx, c.cfg.ActionSettle); err != nil {
			records = append(records, record)
			return records, abort("canceled", err)
		}

		after, err := c.snapshot(ctx, page)
		if err != nil {
			records = append(records, record)
			return records, abort("snapshot failed", err)
		}
		state.LastSnapshot = after
		state.Snapshots = append(state.Snapshots, after)

		// 6. Decide.
		record.Unfilled = state.Filled.Missing(input.Fields)
		records = append(records, record)
		if len(record.Unfilled) == 0 {
			return records, nil
		}
		log.Info("Still unfilled fields.", zap.Strings("unfilled", record.Unfilled))
		if state.Phase >= c.cfg.MaxPhases {
			return records, nil
		}
	}
}

// navigate loads url, bounded by the navigation timeout.
func (c *Controller) navigate(ctx context.Context, page Page, url string) error {
	navCtx, cancel := boundedContext(ctx, c.cfg.NavigationTimeout)
	defer cancel()
	return page.Navigate(navCtx, url)
}

// snapshot captures the current DOM, bounded by the snapshot timeout.
func (c *Controller) snapshot(ctx context.Context, page Page) (string, error) {
	snapCtx, cancel := boundedContext(ctx, c.cfg.SnapshotTimeout)
	defer cancel()
	return page.Content(snapCtx)
}

// appendTerminal adds a click on the first visible submit control unless one
// was already issued or the plan clicks it itself.
func (c *Controller) appendTerminal(state *PhaseState, in dom.Inspection, plan schemas.ActionPlan, log *zap.Logger) schemas.ActionPlan {
	if state.TerminalIssued || len(in.Controls) == 0 {
		return plan
	}
	selector := in.Controls[0].Selector
	state.TerminalIssued = true
	if plan.ContainsClick(selector) {
		log.Debug("Plan already clicks the submit control.", zap.String("selector", selector))
		return plan
	}
	log.Info("Appending submit click.", zap.String("selector", selector), zap.String("label", in.Controls[0].Label))
	return append(plan, schemas.Click{Selector: selector})
}

// trackOracle counts consecutive oracle failures against the budget. A zero
// budget never aborts.
func (c *Controller) trackOracle(state *PhaseState, err error) error {
	if err == nil {
		state.oracleFailures = 0
		return nil
	}
	state.oracleFailures++
	if c.cfg.OracleFailureBudget > 0 && state.oracleFailures >= c.cfg.OracleFailureBudget {
		return abort(fmt.Sprintf("oracle failure budget exhausted after %d consecutive failures", state.oracleFailures), err)
	}
	return nil
}

// persist writes the last snapshot. Failures are logged, never fatal.
func (c *Controller) persist(state *PhaseState) string {
	if state.LastSnapshot == "" {
		return ""
	}
	path, err := writeArtifact(c.cfg.ArtifactsDir, state.Phase, state.LastSnapshot)
	if err != nil {
		c.logger.Error("Failed to persist final snapshot.", zap.Error(err))
		return ""
	}
	c.logger.Info("Final snapshot written.", zap.String("path", path))
	return path
}

func (c *Controller) finish(state *PhaseState, input RunInput, res RunResult, start time.Time) RunResult {
	res.Phase = state.Phase
	res.Filled = state.Filled.Names()
	res.Unfilled = state.Filled.Missing(input.Fields)
	res.TerminalIssued = state.TerminalIssued
	res.Duration = time.Since(start)
	return res
}

// boundedContext derives a context that expires after d. A non-positive d
// leaves ctx unbounded.
func boundedContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
