// internal/oracle/client.go
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot/api/schemas"
	"github.com/xkilldash9x/formpilot/internal/config"
	"github.com/xkilldash9x/formpilot/internal/llmutil"
)

var (
	// ErrOracleUnavailable covers transport failures, timeouts and non 2xx
	// responses from the decision service.
	ErrOracleUnavailable = errors.New("oracle unavailable")
	// ErrMalformedResponse means the reply was not a JSON array of actions.
	ErrMalformedResponse = errors.New("oracle returned a malformed response")
)

// planSchema is the only response shape accepted.
const planSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["action", "selector"],
    "properties": {
      "action":   {"type": "string"},
      "selector": {"type": "string", "minLength": 1},
      "value":    {"type": "string"}
    }
  }
}`

// PlanResult is what a phase gets back from the oracle. Err is informational:
// a failed call still yields a usable, empty Plan.
type PlanResult struct {
	Plan schemas.ActionPlan
	// Dropped counts actions removed by validation or deduplication.
	Dropped int
	Err     error
}

// Client turns UI summaries into action plans through an LLM.
type Client struct {
	llm    schemas.LLMClient
	cfg    config.OracleConfig
	logger *zap.Logger
	schema *gojsonschema.Schema

	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
}

// NewClient wraps llm. cfg supplies sampling options and the model name used
// for token accounting.
func NewClient(llm schemas.LLMClient, cfg config.OracleConfig, logger *zap.Logger) (*Client, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(planSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile plan schema: %w", err)
	}
	return &Client{
		llm:    llm,
		cfg:    cfg,
		logger: logger.Named("oracle"),
		schema: schema,
	}, nil
}

// BeginRun returns a planner whose selector history lasts for one run.
func (c *Client) BeginRun() *Planner {
	return &Planner{client: c, seen: make(map[string]struct{})}
}

// Planner requests plans for the phases of a single run. Actions on
// selectors returned by an earlier call are dropped.
type Planner struct {
	client *Client
	seen   map[string]struct{}
}

// Plan asks the oracle for the next actions. It never returns an error
// directly; failures degrade to an empty plan with PlanResult.Err set.
func (p *Planner) Plan(ctx context.Context, req Request) PlanResult {
	c := p.client
	prompt := BuildPrompt(req)
	c.countTokens(prompt)

	raw, err := c.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: SystemPrompt,
		UserPrompt:   prompt,
		Options: schemas.GenerationOptions{
			Temperature: c.cfg.Temperature,
			MaxTokens:   c.cfg.MaxTokens,
		},
	})
	if err != nil {
		c.logger.Error("Oracle request failed; continuing with an empty plan.", zap.Error(err))
		return PlanResult{Err: fmt.Errorf("%w: %v", ErrOracleUnavailable, err)}
	}

	plan, dropped, err := c.parse(raw)
	if err != nil {
		c.logger.Error("Oracle response rejected; continuing with an empty plan.",
			zap.Error(err), zap.String("raw_response", truncate(raw, maxLoggedResponse)))
		return PlanResult{Err: err}
	}

	kept := plan[:0]
	for _, a := range plan {
		if _, dup := p.seen[a.Target()]; dup {
			c.logger.Debug("Dropping action on a selector from an earlier plan.", zap.String("selector", a.Target()))
			dropped++
			continue
		}
		kept = append(kept, a)
	}
	for _, a := range kept {
		p.seen[a.Target()] = struct{}{}
	}

	c.logger.Info("Oracle plan received.", zap.Int("actions", len(kept)), zap.Int("dropped", dropped))
	return PlanResult{Plan: kept, Dropped: dropped}
}

// rawAction is the wire form of one plan entry.
type rawAction struct {
	Action   string  `json:"action"`
	Selector string  `json:"selector"`
	Value    *string `json:"value"`
}

// parse validates raw against the plan schema and converts entries to typed
// actions. Entries with an unknown tag or a missing value are dropped.
func (c *Client) parse(raw string) (schemas.ActionPlan, int, error) {
	body := llmutil.StripCodeFence(raw)

	result, err := c.schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, 0, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(msgs, "; "))
	}

	entries, err := llmutil.ParseJSONResponse[[]rawAction](body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	plan := make(schemas.ActionPlan, 0, len(*entries))
	dropped := 0
	for _, e := range *entries {
		action, err := toAction(e)
		if err != nil {
			c.logger.Warn("Discarding oracle action.", zap.String("action", e.Action), zap.String("selector", e.Selector), zap.Error(err))
			dropped++
			continue
		}
		plan = append(plan, action)
	}
	return plan, dropped, nil
}

func toAction(e rawAction) (schemas.Action, error) {
	selector := strings.TrimSpace(e.Selector)
	if selector == "" {
		return nil, errors.New("empty selector")
	}

	switch kind := strings.ToLower(strings.TrimSpace(e.Action)); kind {
	case string(schemas.ActionClick):
		return schemas.Click{Selector: selector}, nil
	case string(schemas.ActionFill), "type":
		if e.Value == nil {
			return nil, errors.New("fill without a value")
		}
		return schemas.Fill{Selector: selector, Value: *e.Value}, nil
	case string(schemas.ActionUpload):
		if e.Value == nil {
			return nil, errors.New("upload without a value")
		}
		paths := schemas.ParseUploadPaths(*e.Value)
		if len(paths) == 0 {
			return nil, errors.New("upload without a file path")
		}
		return schemas.Upload{Selector: selector, Paths: paths}, nil
	default:
		return nil, fmt.Errorf("unrecognized action %q", e.Action)
	}
}

// maxLoggedResponse bounds how much of a rejected reply is logged.
const maxLoggedResponse = 2048

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "...(truncated)"
}

// countTokens logs the prompt size when token accounting is enabled.
func (c *Client) countTokens(prompt string) {
	if !c.cfg.CountTokens {
		return
	}
	c.tokenizerOnce.Do(func() {
		tke, err := tiktoken.EncodingForModel(c.cfg.Model)
		if err != nil {
			tke, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err != nil {
			c.logger.Debug("Token accounting unavailable.", zap.Error(err))
			return
		}
		c.tokenizer = tke
	})
	if c.tokenizer == nil {
		return
	}
	c.logger.Debug("Prompt size.", zap.Int("tokens", len(c.tokenizer.Encode(prompt, nil, nil))))
}
