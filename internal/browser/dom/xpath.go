// internal/browser/dom/xpath.go
package dom

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// IsXPath reports whether selector is an XPath expression rather than a CSS
// selector. Generated fallback selectors always start with a slash.
func IsXPath(selector string) bool {
	s := strings.TrimSpace(selector)
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "(/")
}

// GenerateUniqueXPath builds an absolute XPath for node. The nearest ancestor
// carrying an automation_id or id becomes the anchor, which keeps the path
// short and stable across unrelated markup changes.
func GenerateUniqueXPath(node *html.Node) string {
	if node == nil {
		return ""
	}

	var path []string
	for n := node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(n.Data)
		if tag == "" {
			continue
		}

		if anchor := xpathAnchor(n); anchor != "" {
			path = append(path, anchor)
			break
		}

		// XPath indices are 1-based and count same-tag siblings only.
		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.ToLower(prev.Data) == tag {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", tag, index))
	}

	if len(path) == 0 {
		return "/"
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//") {
		xpath = "/" + xpath
	}
	return xpath
}

func xpathAnchor(n *html.Node) string {
	for _, attr := range []string{AttrAutomationID, "id"} {
		v := htmlquery.SelectAttr(n, attr)
		if v != "" && !strings.Contains(v, "'") {
			return fmt.Sprintf(`//*[@%s='%s']`, attr, v)
		}
	}
	return ""
}
