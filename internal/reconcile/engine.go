// internal/reconcile/engine.go
package reconcile

import (
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot/api/schemas"
	"github.com/xkilldash9x/formpilot/internal/browser/dom"
)

// Result is the outcome of reconciling one snapshot.
type Result struct {
	// ToFill holds the fields that are visible but not yet filled.
	ToFill schemas.FieldValueMap
	// Satisfied lists fields found already correct in the DOM this phase.
	Satisfied []string
}

// Engine compares target fields against a page inspection.
//
// A target name matches a DOM identifier when its normalized form is a
// substring of the normalized identifier. "name" therefore also matches
// "username"; this loose match is intentional and lets scenario wording
// differ from real form field names, at the cost of occasional false
// positives.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger.Named("reconcile")}
}

// Reconcile computes the fields still to fill. Non-password fields whose
// DOM value already equals the target are added to filled as a side effect.
func (e *Engine) Reconcile(fields schemas.FieldValueMap, filled *FilledFieldSet, in dom.Inspection) Result {
	var result Result
	visible := in.ValueMap()

	for _, fv := range fields {
		if filled.Has(fv.Name) {
			continue
		}
		key := schemas.NormalizeFieldName(fv.Name)
		matches := matchingFields(key, visible)
		if len(matches) == 0 {
			continue
		}

		// A password's DOM value is never read, so only visibility counts.
		if schemas.IsPasswordField(fv.Name) || anyPassword(matches) {
			result.ToFill = append(result.ToFill, fv)
			continue
		}

		if satisfiedBy(fv.Value, matches) {
			filled.Add(fv.Name)
			result.Satisfied = append(result.Satisfied, fv.Name)
			e.logger.Debug("Field already holds its target value.", zap.String("field", fv.Name))
			continue
		}
		result.ToFill = append(result.ToFill, fv)
	}
	return result
}

// matchingFields returns the visible inputs whose identifier contains key,
// one per identifier.
func matchingFields(key string, visible map[string]dom.FieldState) []dom.FieldState {
	if key == "" {
		return nil
	}
	var out []dom.FieldState
	for id, f := range visible {
		if strings.Contains(id, key) {
			out = append(out, f)
		}
	}
	return out
}

func anyPassword(fields []dom.FieldState) bool {
	for _, f := range fields {
		if f.IsPassword() {
			return true
		}
	}
	return false
}

func satisfiedBy(target string, fields []dom.FieldState) bool {
	want := strings.TrimSpace(target)
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == want {
			return true
		}
	}
	return false
}
