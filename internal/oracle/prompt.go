// internal/oracle/prompt.go
package oracle

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/formpilot/api/schemas"
)

// SystemPrompt is sent as the system instruction on every request.
const SystemPrompt = "You are an automation agent."

// Request carries everything the oracle sees for one phase.
type Request struct {
	// Summary is the rendered list of visible interactive elements.
	Summary string
	// Fields are the targets still to fill this phase.
	Fields schemas.FieldValueMap
	// Goal is free text appended after the field instructions.
	Goal string
}

// BuildGoal enumerates every field with its exact value, followed by the
// free text instruction if any.
func BuildGoal(fields schemas.FieldValueMap, instruction string) string {
	var b strings.Builder
	b.WriteString("You must complete the following:\n")
	for _, fv := range fields {
		fmt.Fprintf(&b, "- Field %q MUST be filled with exactly: %q\n", fv.Name, fv.Value)
	}
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		fmt.Fprintf(&b, "\nThen: %s\n", instruction)
	}
	return b.String()
}

// BuildPrompt renders the user prompt.
func BuildPrompt(req Request) string {
	return fmt.Sprintf(`You are an intelligent browser automation agent.

Below is the current HTML structure of a web page under test. Your job is to return a list of UI actions needed to fulfill the user input and achieve the given goal.

HTML content:
%s

User wants to:
%s
IMPORTANT:
- DO NOT invent or guess any values. Use ONLY the values provided.
- Fill all known fields immediately if they are visible in the current HTML.
- Do not delay filling fields that already appear.
- Return ONLY a JSON array of UI actions in this format:

[
  {
    "action": "fill" | "click" | "upload",
    "selector": "<valid CSS selector>",
    "value": "<value>"
  }
]

"value" is required for fill and upload and must be omitted for click.
DO NOT include any explanation or extra text.
DO NOT fill any value unless it's in the provided field list.
Only interact with elements that appear in the HTML summary above.
`, req.Summary, BuildGoal(req.Fields, req.Goal))
}
