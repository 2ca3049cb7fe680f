// api/schemas/actions.go
package schemas

import (
	"fmt"
	"strings"
)

// ActionKind is the tag of a UI action in a plan.
type ActionKind string

const (
	ActionFill   ActionKind = "fill"
	ActionClick  ActionKind = "click"
	ActionUpload ActionKind = "upload"
)

// Action is a closed variant over the UI actions the executor understands.
// Only the types in this package implement it.
type Action interface {
	Kind() ActionKind
	Target() string
	isAction()
}

// Fill sets the value of the element matched by Selector.
type Fill struct {
	Selector string `json:"selector"`
	Value    string `json:"value"`
}

// Click clicks the element matched by Selector.
type Click struct {
	Selector string `json:"selector"`
}

// Upload attaches one or more local files to a file input.
type Upload struct {
	Selector string   `json:"selector"`
	Paths    []string `json:"paths"`
}

func (Fill) Kind() ActionKind   { return ActionFill }
func (Click) Kind() ActionKind  { return ActionClick }
func (Upload) Kind() ActionKind { return ActionUpload }

func (a Fill) Target() string   { return a.Selector }
func (a Click) Target() string  { return a.Selector }
func (a Upload) Target() string { return a.Selector }

func (Fill) isAction()   {}
func (Click) isAction()  {}
func (Upload) isAction() {}

func (a Fill) String() string  { return fmt.Sprintf("fill(%s)", a.Selector) }
func (a Click) String() string { return fmt.Sprintf("click(%s)", a.Selector) }
func (a Upload) String() string {
	return fmt.Sprintf("upload(%s, %s)", a.Selector, strings.Join(a.Paths, ","))
}

// ActionPlan is the ordered list of actions produced for a single phase.
type ActionPlan []Action

// Selectors returns the target selector of every action, in order.
func (p ActionPlan) Selectors() []string {
	out := make([]string, 0, len(p))
	for _, a := range p {
		out = append(out, a.Target())
	}
	return out
}

// ContainsClick reports whether the plan already clicks selector.
func (p ActionPlan) ContainsClick(selector string) bool {
	for _, a := range p {
		if c, ok := a.(Click); ok && c.Selector == selector {
			return true
		}
	}
	return false
}

// ParseUploadPaths splits an oracle upload value into file paths. Multiple
// files are separated by commas.
func ParseUploadPaths(value string) []string {
	var paths []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
