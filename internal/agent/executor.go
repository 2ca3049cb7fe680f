// internal/agent/executor.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot/api/schemas"
	"github.com/xkilldash9x/formpilot/internal/observability"
	"github.com/xkilldash9x/formpilot/internal/reconcile"
)

// Executor applies action plans to a page, one action at a time.
type Executor struct {
	page    Page
	timeout time.Duration
	logger  *zap.Logger
}

// NewExecutor creates an executor that waits up to timeout for each target.
func NewExecutor(page Page, timeout time.Duration, logger *zap.Logger) *Executor {
	return &Executor{
		page:    page,
		timeout: timeout,
		logger:  logger.Named("executor"),
	}
}

// Execute applies plan in order. A failed action is logged and skipped; the
// rest of the plan still runs. After each successful fill every field whose
// target equals the filled value is recorded in filled.
func (e *Executor) Execute(ctx context.Context, plan schemas.ActionPlan, fields schemas.FieldValueMap, filled *reconcile.FilledFieldSet) []ActionResult {
	results := make([]ActionResult, 0, len(plan))

	for _, action := range plan {
		if ctx.Err() != nil {
			e.logger.Warn("Context done; skipping remaining actions.", zap.Error(ctx.Err()))
			break
		}

		start := time.Now()
		err := e.apply(ctx, action, fields)
		res := ActionResult{Action: action, Succeeded: err == nil, Err: err, Duration: time.Since(start)}

		if err != nil {
			res.ErrorCode = classifyError(err)
			e.logger.Warn("Action failed; continuing with the rest of the plan.",
				zap.String("action", describe(action)),
				zap.String("error_code", string(res.ErrorCode)),
				zap.Error(err))
			results = append(results, res)
			continue
		}

		if fill, ok := action.(schemas.Fill); ok {
			for _, name := range fields.NamesWithValue(fill.Value) {
				if filled.Add(name) {
					res.MarkedFilled = append(res.MarkedFilled, name)
				}
			}
		}
		e.logger.Debug("Action succeeded.", zap.String("action", describe(action)), zap.Strings("marked_filled", res.MarkedFilled))
		results = append(results, res)
	}
	return results
}

// apply dispatches a single action.
func (e *Executor) apply(ctx context.Context, action schemas.Action, fields schemas.FieldValueMap) error {
	switch a := action.(type) {
	case schemas.Click:
		e.logger.Info("Clicking.", zap.String("selector", a.Selector))
		if err := e.wait(ctx, a.Selector); err != nil {
			return err
		}
		return e.act(ctx, func(ctx context.Context) error { return e.page.Click(ctx, a.Selector) })

	case schemas.Fill:
		e.logger.Info("Filling.",
			zap.String("selector", a.Selector),
			observability.Value("value", a.Value, isSecret(a, fields)))
		if err := e.wait(ctx, a.Selector); err != nil {
			return err
		}
		return e.act(ctx, func(ctx context.Context) error { return e.page.Fill(ctx, a.Selector, a.Value) })

	case schemas.Upload:
		e.logger.Info("Uploading.", zap.String("selector", a.Selector), zap.Strings("paths", a.Paths))
		if err := e.wait(ctx, a.Selector); err != nil {
			return err
		}
		return e.act(ctx, func(ctx context.Context) error { return e.page.SetInputFiles(ctx, a.Selector, a.Paths) })

	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
}

func (e *Executor) wait(ctx context.Context, selector string) error {
	if err := e.page.WaitForSelector(ctx, selector, e.timeout); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTargetNotFound, selector, err)
	}
	return nil
}

// act runs a driver call under the element timeout. Drivers keep polling for
// visibility until their context ends, so the call is always bounded.
func (e *Executor) act(ctx context.Context, call func(context.Context) error) error {
	actCtx, cancel := boundedContext(ctx, e.timeout)
	defer cancel()
	if err := call(actCtx); err != nil {
		if ctx.Err() == nil && errors.Is(actCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("action did not complete within %v: %w", e.timeout, context.DeadlineExceeded)
		}
		return err
	}
	return nil
}

// isSecret reports whether a fill carries a password value.
func isSecret(fill schemas.Fill, fields schemas.FieldValueMap) bool {
	if strings.Contains(strings.ToLower(fill.Selector), "password") {
		return true
	}
	for _, name := range fields.NamesWithValue(fill.Value) {
		if schemas.IsPasswordField(name) {
			return true
		}
	}
	return false
}

func describe(a schemas.Action) string {
	if s, ok := a.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", a)
}
