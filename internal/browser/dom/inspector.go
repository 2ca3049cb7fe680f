// internal/browser/dom/inspector.go
package dom

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/formpilot/api/schemas"
)

// AttrAutomationID is the stable test hook attribute preferred over every
// other identifier.
const AttrAutomationID = "automation_id"

// DefaultSubmitKeyword marks a control as the terminal login action.
const DefaultSubmitKeyword = "login"

// identifierAttrs lists identifier sources in precedence order.
var identifierAttrs = []string{AttrAutomationID, "name", "id", "placeholder"}

var simpleIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// FieldState is one visible input as seen in a snapshot.
type FieldState struct {
	// Identifier is the resolved identifier as written in the markup, trimmed.
	Identifier string
	// Key is Identifier lower cased with whitespace removed.
	Key string
	// Value is always empty for password inputs.
	Value string
	Type  string
}

// IsPassword reports whether the input is password typed.
func (f FieldState) IsPassword() bool {
	return f.Type == "password"
}

// SubmitControl is a visible control whose label carries the submit keyword.
type SubmitControl struct {
	Selector string
	Label    string
	Tag      string
}

// Inspection holds the views derived from a single snapshot. It is only valid
// for the phase that produced it.
type Inspection struct {
	Fields   []FieldState
	Controls []SubmitControl
}

// Identifiers returns the normalized visible identifier set in document order.
func (in Inspection) Identifiers() []string {
	seen := make(map[string]struct{}, len(in.Fields))
	out := make([]string, 0, len(in.Fields))
	for _, f := range in.Fields {
		if _, dup := seen[f.Key]; dup {
			continue
		}
		seen[f.Key] = struct{}{}
		out = append(out, f.Key)
	}
	return out
}

// ValueMap returns identifier to state for all visible inputs. The first
// input wins when identifiers collide.
func (in Inspection) ValueMap() map[string]FieldState {
	m := make(map[string]FieldState, len(in.Fields))
	for _, f := range in.Fields {
		if _, ok := m[f.Key]; !ok {
			m[f.Key] = f
		}
	}
	return m
}

// Inspector derives visibility views from HTML snapshots. It is stateless and
// safe for concurrent use.
type Inspector struct {
	submitKeyword string
}

// NewInspector returns an inspector matching submit controls on keyword.
// An empty keyword falls back to DefaultSubmitKeyword.
func NewInspector(keyword string) *Inspector {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		keyword = DefaultSubmitKeyword
	}
	return &Inspector{submitKeyword: keyword}
}

// Inspect parses snapshot and returns its visible inputs and submit controls.
// Broken markup is repaired by the HTML5 parser; nothing here ever fails.
func (i *Inspector) Inspect(snapshot string) Inspection {
	doc, err := parse(snapshot)
	if err != nil {
		return Inspection{}
	}

	var result Inspection
	for _, n := range htmlquery.Find(doc, "//input") {
		if IsHidden(n) {
			continue
		}
		ident := ResolveIdentifier(n)
		if ident == "" {
			continue
		}
		state := FieldState{
			Identifier: ident,
			Key:        schemas.NormalizeFieldName(ident),
			Type:       strings.ToLower(strings.TrimSpace(htmlquery.SelectAttr(n, "type"))),
		}
		if !state.IsPassword() {
			state.Value = htmlquery.SelectAttr(n, "value")
		}
		result.Fields = append(result.Fields, state)
	}

	for _, n := range htmlquery.Find(doc, "//*[self::input or self::button]") {
		if IsHidden(n) {
			continue
		}
		label, ok := i.submitLabel(n)
		if !ok {
			continue
		}
		result.Controls = append(result.Controls, SubmitControl{
			Selector: ControlSelector(n),
			Label:    label,
			Tag:      n.Data,
		})
	}
	return result
}

func (i *Inspector) submitLabel(n *html.Node) (string, bool) {
	var label string
	switch n.Data {
	case "input":
		if !strings.EqualFold(strings.TrimSpace(htmlquery.SelectAttr(n, "type")), "submit") {
			return "", false
		}
		label = htmlquery.SelectAttr(n, "value")
	case "button":
		label = htmlquery.InnerText(n)
	default:
		return "", false
	}
	label = strings.TrimSpace(label)
	return label, strings.Contains(strings.ToLower(label), i.submitKeyword)
}

// IsHidden applies the visibility rule: a hidden style on the element or any
// ancestor, or type="hidden" on the element itself.
func IsHidden(n *html.Node) bool {
	if strings.EqualFold(strings.TrimSpace(htmlquery.SelectAttr(n, "type")), "hidden") {
		return true
	}
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && hiddenByStyle(htmlquery.SelectAttr(p, "style")) {
			return true
		}
	}
	return false
}

func hiddenByStyle(style string) bool {
	if style == "" {
		return false
	}
	compact := strings.ToLower(strings.Join(strings.Fields(style), ""))
	return strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden")
}

// ResolveIdentifier returns the first non-blank of automation_id, name, id
// and placeholder, trimmed.
func ResolveIdentifier(n *html.Node) string {
	for _, attr := range identifierAttrs {
		if v := strings.TrimSpace(htmlquery.SelectAttr(n, attr)); v != "" {
			return v
		}
	}
	return ""
}

// ControlSelector builds a selector for a submit control: automation_id, then
// id, then name, then value. Controls with none of these get an XPath.
func ControlSelector(n *html.Node) string {
	if v := htmlquery.SelectAttr(n, AttrAutomationID); v != "" {
		return fmt.Sprintf("[%s=%s]", AttrAutomationID, cssString(v))
	}
	if v := htmlquery.SelectAttr(n, "id"); v != "" {
		if simpleIdent.MatchString(v) {
			return "#" + v
		}
		return "[id=" + cssString(v) + "]"
	}
	if v := htmlquery.SelectAttr(n, "name"); v != "" {
		return "[name=" + cssString(v) + "]"
	}
	if v := htmlquery.SelectAttr(n, "value"); v != "" {
		return n.Data + "[value=" + cssString(v) + "]"
	}
	return GenerateUniqueXPath(n)
}

// cssString quotes v as a single quoted CSS string.
func cssString(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\a `)
	return "'" + r.Replace(v) + "'"
}

func parse(snapshot string) (*html.Node, error) {
	return htmlquery.Parse(strings.NewReader(snapshot))
}
