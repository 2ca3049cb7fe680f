// cmd/shortcuts.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/formpilot/internal/observability"
	"github.com/xkilldash9x/formpilot/internal/store"
)

func newShortcutsCmd(a *app) *cobra.Command {
	shortcutsCmd := &cobra.Command{
		Use:   "shortcuts",
		Short: "Manage saved scenario shortcuts",
	}

	open := func() (*store.Store, error) {
		return store.Load(a.cfg.Store.Path, observability.GetLogger())
	}

	shortcutsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved shortcuts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			names := st.Names()
			if len(names) == 0 {
				fmt.Fprintf(out, "No shortcuts saved in %s\n", st.Path())
				return nil
			}
			for _, name := range names {
				sc, _ := st.Get(name)
				ref := sc.Reference()
				if !sc.Complete() {
					ref = "(incomplete)"
				}
				fmt.Fprintf(out, "%s\t%s\n", name, ref)
			}
			return nil
		},
	})

	shortcutsCmd.AddCommand(&cobra.Command{
		Use:   "save <name> <feature.feature::Scenario name>",
		Short: "Save a feature reference under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isFeatureReference(args[1]) {
				return fmt.Errorf("%w: %q", errInvalidReference, args[1])
			}
			st, err := open()
			if err != nil {
				return err
			}
			target, err := resolveReference(args[1], st)
			if err != nil {
				return err
			}
			if err := st.Put(args[0], target); err != nil {
				return err
			}
			if err := st.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved shortcut %q -> %s\n", args[0], target.Reference())
			return nil
		},
	})

	shortcutsCmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved shortcut",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open()
			if err != nil {
				return err
			}
			if !st.Delete(args[0]) {
				return fmt.Errorf("%w: %q", store.ErrShortcutNotFound, args[0])
			}
			if err := st.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted shortcut %q\n", args[0])
			return nil
		},
	})

	return shortcutsCmd
}
