// Package scenario extracts login intent from Gherkin-style feature files.
package scenario

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/xkilldash9x/formpilot/api/schemas"
)

// ErrScenarioNotFound is returned when no Scenario line contains the name.
var ErrScenarioNotFound = errors.New("scenario not found")

const (
	scenarioKeyword = "Scenario:"
	stepSeparator   = ", then "
)

var (
	enterRegex   = regexp.MustCompile(`(?i)enter(?:s)?\s+"?([^"]+)"?\s+as\s+"?([^"]+)"?`)
	clickRegex   = regexp.MustCompile(`(?i)\bclicks?\s+on\b`)
	thenSplitter = regexp.MustCompile(`(?i)[,\s]*\bthen\b[,\s]*`)
)

// Scenario is the run intent extracted from one scenario block.
type Scenario struct {
	Name   string
	Fields schemas.FieldValueMap
	// Goal is every step that is not a field entry, joined in order.
	Goal string
}

// Steps returns the goal split into individual steps.
func (s Scenario) Steps() []string {
	return SplitGoalSteps(s.Goal)
}

// ParseFile opens path and parses the named scenario.
func ParseFile(path, name string) (Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to open feature file '%s': %w", path, err)
	}
	defer f.Close()

	sc, err := Parse(f, name)
	if err != nil {
		return Scenario{}, fmt.Errorf("feature file '%s': %w", path, err)
	}
	return sc, nil
}

// Parse reads the first scenario whose Scenario line contains name and stops
// at the next Scenario line.
func Parse(r io.Reader, name string) (Scenario, error) {
	sc := Scenario{Name: name}
	var steps []string
	recording, found := false, false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, scenarioKeyword) {
			if recording {
				break
			}
			if strings.Contains(line, name) {
				recording, found = true, true
			}
			continue
		}
		if !recording || line == "" {
			continue
		}

		if m := enterRegex.FindStringSubmatch(line); m != nil {
			field := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(m[1])), " ", "")
			sc.Fields = sc.Fields.Set(field, strings.TrimSpace(m[2]))
			continue
		}
		if loc := clickRegex.FindAllStringIndex(line, -1); loc != nil {
			label := strings.Trim(strings.TrimSpace(line[loc[len(loc)-1][1]:]), `"`)
			steps = append(steps, fmt.Sprintf("Click on the button labeled %q", label))
			continue
		}
		steps = append(steps, line)
	}
	if err := scanner.Err(); err != nil {
		return Scenario{}, fmt.Errorf("failed to read feature: %w", err)
	}
	if !found {
		return Scenario{}, fmt.Errorf("%w: %q", ErrScenarioNotFound, name)
	}

	sc.Goal = strings.Join(steps, stepSeparator)
	return sc, nil
}

// SplitGoalSteps splits goal text on "then" into trimmed, non-empty steps.
func SplitGoalSteps(goal string) []string {
	var steps []string
	for _, part := range thenSplitter.Split(goal, -1) {
		if part = strings.TrimSpace(part); part != "" {
			steps = append(steps, part)
		}
	}
	return steps
}
