package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot/api/schemas"
	"github.com/xkilldash9x/formpilot/internal/agent"
	"github.com/xkilldash9x/formpilot/internal/config"
)

const loginPage = `<html><body><form>
	<input id="email" type="email">
	<input id="password" type="password">
	<button id="login" type="submit">Login</button>
</form></body></html>`

const loginFeature = `Feature: Login

  Scenario: Valid login
    When the user enters "email" as "qa@example.com"
    And the user enters "password" as "s3cret"
    And the user clicks on "Login"
`

const loginPlan = `[
	{"action":"fill","selector":"#email","value":"qa@example.com"},
	{"action":"fill","selector":"#password","value":"s3cret"}
]`

// fakeLLM answers every request with the same text.
type fakeLLM struct {
	mu       sync.Mutex
	response string
	err      error
	requests []schemas.GenerationRequest
	closed   bool
}

func (f *fakeLLM) Generate(_ context.Context, req schemas.GenerationRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.response, f.err
}

func (f *fakeLLM) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakePage serves a static document and records interactions.
type fakePage struct {
	mu      sync.Mutex
	html    string
	visited []string
	clicks  []string
	fills   []string
	closed  bool
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visited = append(p.visited, url)
	return nil
}

func (p *fakePage) Content(context.Context) (string, error) { return p.html, nil }

func (p *fakePage) WaitForSelector(context.Context, string, time.Duration) error { return nil }

func (p *fakePage) Click(_ context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, selector)
	return nil
}

func (p *fakePage) Fill(_ context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fills = append(p.fills, fmt.Sprintf("%s=%s", selector, value))
	return nil
}

func (p *fakePage) SetInputFiles(context.Context, string, []string) error { return nil }

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// testEnv isolates configuration in a temp directory and returns it.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FORMPILOT_STORE_PATH", filepath.Join(dir, "shortcuts.json"))
	t.Setenv("FORMPILOT_AGENT_ARTIFACTS_DIR", filepath.Join(dir, "artifacts"))
	t.Setenv("FORMPILOT_AGENT_NAVIGATION_SETTLE", "0s")
	t.Setenv("FORMPILOT_AGENT_ACTION_SETTLE", "0s")
	t.Setenv("FORMPILOT_AGENT_FINAL_WAIT", "0s")
	t.Setenv("FORMPILOT_AGENT_ELEMENT_TIMEOUT", "100ms")
	t.Setenv("FORMPILOT_ORACLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("FORMPILOT_TARGET_URL", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("APP_URL", "http://app.local/login")
	return dir
}

func writeFeature(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "login.feature")
	require.NoError(t, os.WriteFile(path, []byte(loginFeature), 0o644))
	return path
}

// execute runs a fresh command tree wired to the fakes, with a dotenv path
// inside dir that does not exist.
func execute(t *testing.T, dir, stdin string, llm *fakeLLM, page *fakePage, args ...string) (string, error) {
	t.Helper()
	return executeArgs(t, stdin, llm, page, append([]string{"--env-file", filepath.Join(dir, "missing.env")}, args...)...)
}

func executeArgs(t *testing.T, stdin string, llm *fakeLLM, page *fakePage, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(
		WithLLMFactory(func(context.Context, config.OracleConfig, *zap.Logger) (schemas.LLMClient, error) {
			return llm, nil
		}),
		WithLauncherFactory(func(config.BrowserConfig, *zap.Logger) agent.Launcher {
			return agent.LauncherFunc(func(context.Context) (agent.Page, error) { return page, nil })
		}),
	)

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}
