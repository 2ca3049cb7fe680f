// cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot/api/schemas"
	"github.com/xkilldash9x/formpilot/internal/agent"
	"github.com/xkilldash9x/formpilot/internal/config"
	"github.com/xkilldash9x/formpilot/internal/observability"
	"github.com/xkilldash9x/formpilot/internal/oracle"
	"github.com/xkilldash9x/formpilot/internal/scenario"
	"github.com/xkilldash9x/formpilot/internal/store"
)

var (
	// errRunFailed marks a run that ended in anything but full success. The
	// summary has already been printed when it is returned.
	errRunFailed = errors.New("run did not complete")

	errInvalidReference = errors.New("invalid shortcut or feature path")
)

const referenceSeparator = "::"

func newRunCmd(a *app) *cobra.Command {
	var saveAs string

	runCmd := &cobra.Command{
		Use:   "run <feature.feature::Scenario name | shortcut>",
		Short: "Run one login scenario against the target application",
		Example: `  formpilot run features/login.feature::"Valid login" --save-as login
  formpilot run login --headless --url https://staging.example.com`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for key, flag := range map[string]string{
				"target.url":       "url",
				"agent.max_phases": "max-phases",
				"browser.headless": "headless",
			} {
				if err := a.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReference(cmd.Context(), cmd.OutOrStdout(), args[0], saveAs)
		},
	}

	runCmd.Flags().StringVar(&saveAs, "save-as", "", "save a feature reference as a named shortcut")
	runCmd.Flags().String("url", "", "application URL (overrides APP_URL)")
	runCmd.Flags().Int("max-phases", 8, "upper bound on reconciliation phases")
	runCmd.Flags().Bool("headless", false, "run Chrome without a window")
	return runCmd
}

// isFeatureReference reports whether ref names a scenario in a feature file
// rather than a shortcut.
func isFeatureReference(ref string) bool {
	return strings.Contains(ref, ".feature") && strings.Contains(ref, referenceSeparator)
}

// resolveReference turns ref into a feature path and scenario name.
func resolveReference(ref string, st *store.Store) (store.Shortcut, error) {
	ref = strings.TrimSpace(ref)
	if isFeatureReference(ref) {
		path, name, _ := strings.Cut(ref, referenceSeparator)
		sc := store.Shortcut{
			FeaturePath: strings.TrimSpace(path),
			Scenario:    strings.Trim(strings.TrimSpace(name), `"`),
		}
		if !sc.Complete() {
			return store.Shortcut{}, fmt.Errorf("%w: %q", errInvalidReference, ref)
		}
		return sc, nil
	}

	sc, err := st.Resolve(ref)
	if errors.Is(err, store.ErrShortcutNotFound) {
		return store.Shortcut{}, fmt.Errorf("%w: %q", errInvalidReference, ref)
	}
	return sc, err
}

func (a *app) runReference(ctx context.Context, out io.Writer, ref, saveAs string) error {
	if err := a.reload(); err != nil {
		return err
	}
	logger := observability.GetLogger()

	st, err := store.Load(a.cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	target, err := resolveReference(ref, st)
	if err != nil {
		return err
	}

	sc, err := scenario.ParseFile(target.FeaturePath, target.Scenario)
	if err != nil {
		return err
	}
	logScenario(logger, target, sc)

	if saveAs != "" {
		if !isFeatureReference(ref) {
			return fmt.Errorf("--save-as needs a feature reference, got shortcut %q", ref)
		}
		if err := st.Put(saveAs, target); err != nil {
			return err
		}
		if err := st.Save(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved shortcut %q -> %s\n", saveAs, target.Reference())
	}

	// Only a run needs credentials and a target.
	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	llm, err := a.newLLM(ctx, a.cfg.Oracle, logger)
	if err != nil {
		return fmt.Errorf("failed to create oracle client: %w", err)
	}
	defer func() {
		if err := llm.Close(); err != nil {
			logger.Warn("Failed to close oracle client.", zap.Error(err))
		}
	}()

	client, err := oracle.NewClient(llm, a.cfg.Oracle, logger)
	if err != nil {
		return err
	}
	ctrl := agent.NewController(a.cfg.Agent, a.newLauncher(a.cfg.Browser, logger), client, logger)

	res := ctrl.Run(ctx, agent.RunInput{
		URL:    a.cfg.Target.URL,
		Fields: sc.Fields,
		Goal:   sc.Goal,
	})
	printResult(out, res)

	if !res.Succeeded() {
		if res.Reason != "" {
			return fmt.Errorf("%w: %s: %s", errRunFailed, res.Status, res.Reason)
		}
		return fmt.Errorf("%w: %s", errRunFailed, res.Status)
	}
	return nil
}

func logScenario(logger *zap.Logger, target store.Shortcut, sc scenario.Scenario) {
	fields := make([]zap.Field, 0, len(sc.Fields))
	for _, fv := range sc.Fields {
		fields = append(fields, observability.Value(fv.Name, fv.Value, schemas.IsPasswordField(fv.Name)))
	}
	logger.Info("Extracted field values.",
		zap.String("feature", target.FeaturePath),
		zap.String("scenario", target.Scenario),
		zap.Dict("fields", fields...))
	logger.Info("Additional goal.", zap.Strings("steps", sc.Steps()))
}

func printResult(out io.Writer, res agent.RunResult) {
	fmt.Fprintf(out, "Status:    %s\n", res.Status)
	fmt.Fprintf(out, "Success:   %t\n", res.Success)
	fmt.Fprintf(out, "Phase:     %d\n", res.Phase)
	fmt.Fprintf(out, "Filled:    %s\n", listOrDash(res.Filled))
	fmt.Fprintf(out, "Unfilled:  %s\n", listOrDash(res.Unfilled))
	fmt.Fprintf(out, "Submitted: %t\n", res.TerminalIssued)
	if res.Reason != "" {
		fmt.Fprintf(out, "Reason:    %s\n", res.Reason)
	}
	if res.ArtifactPath != "" {
		fmt.Fprintf(out, "Snapshot:  %s\n", res.ArtifactPath)
	}
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
