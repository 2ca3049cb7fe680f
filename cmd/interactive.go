// cmd/interactive.go
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// interactive asks for a reference on stdin, offers to save a feature
// reference as a shortcut, and runs it.
func (a *app) interactive(cmd *cobra.Command) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	ref, err := prompt(in, out, "Enter shortcut or feature path (e.g., features/login.feature::Valid login): ")
	if err != nil {
		return err
	}
	if ref == "" {
		return errInvalidReference
	}

	var saveAs string
	if isFeatureReference(ref) {
		answer, err := prompt(in, out, "Would you like to save this as a shortcut? (y/n): ")
		if err != nil {
			return err
		}
		if strings.EqualFold(answer, "y") {
			if saveAs, err = prompt(in, out, "Enter shortcut name: "); err != nil {
				return err
			}
		}
	}
	return a.runReference(cmd.Context(), out, ref, saveAs)
}

// prompt writes label and reads one trimmed line. EOF ends the line.
func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
