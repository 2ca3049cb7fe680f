// internal/browser/dom/summary.go
package dom

import (
	"strings"

	"github.com/antchfx/htmlquery"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/html"
)

// DefaultSummaryLimit caps the number of elements in a UI summary.
const DefaultSummaryLimit = 100

// interactiveXPath selects the element kinds the oracle is shown.
const interactiveXPath = "//*[self::input or self::button or self::a or self::select or self::textarea or self::form]"

// Summarize renders the visible interactive elements of snapshot, at most
// limit of them, each as its markup followed by its attribute map. Password
// values are stripped from the markup before rendering. A form is rendered
// without its children; its visible controls are listed on their own.
func (i *Inspector) Summarize(snapshot string, limit int) string {
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}
	doc, err := parse(snapshot)
	if err != nil {
		return ""
	}

	// Password inputs are rendered as they appear, so values go up front.
	for _, n := range htmlquery.Find(doc, "//input[@value]") {
		if strings.EqualFold(strings.TrimSpace(htmlquery.SelectAttr(n, "type")), "password") {
			removeAttr(n, "value")
		}
	}

	var b strings.Builder
	count := 0
	for _, n := range htmlquery.Find(doc, interactiveXPath) {
		if count >= limit {
			break
		}
		if IsHidden(n) {
			continue
		}
		if count > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(render(n))
		b.WriteString("\nAttributes: ")
		b.WriteString(attributesJSON(n))
		count++
	}
	return b.String()
}

func render(n *html.Node) string {
	if !strings.EqualFold(n.Data, "form") {
		return htmlquery.OutputHTML(n, true)
	}
	shallow := &html.Node{Type: n.Type, DataAtom: n.DataAtom, Data: n.Data, Namespace: n.Namespace, Attr: n.Attr}
	return htmlquery.OutputHTML(shallow, true)
}

// attributesJSON renders the attribute map with sorted keys.
func attributesJSON(n *html.Node) string {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(attrs)
	if err != nil {
		return "{}"
	}
	return out
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}
