package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/formpilot/api/schemas"
	"github.com/xkilldash9x/formpilot/internal/config"
	"github.com/xkilldash9x/formpilot/internal/oracle"
)

// fakePage is an in-memory Page. Its HTML only changes through click
// transitions, like a real page whose value attributes never reflect typing.
type fakePage struct {
	mu sync.Mutex

	html        string
	transitions map[string]string
	missing     map[string]bool
	clickErr    map[string]error
	navErr      error
	panicClick  bool
	// hang makes the named operation block until its context ends, like
	// a driver polling for an element that never becomes visible. Keys are
	// "navigate", "content" or a click selector.
	hang map[string]bool

	navigations []string
	clicks      []string
	fills       []string
	uploads     [][]string
	closed      int
}

func newFakePage(html string) *fakePage {
	return &fakePage{
		html:        html,
		transitions: map[string]string{},
		missing:     map[string]bool{},
		clickErr:    map[string]error{},
		hang:        map[string]bool{},
	}
}

// block waits for ctx when key is configured to hang. It must be called
// without p.mu held.
func (p *fakePage) block(ctx context.Context, key string) error {
	p.mu.Lock()
	hang := p.hang[key]
	p.mu.Unlock()
	if !hang {
		return nil
	}
	<-ctx.Done()
	return fmt.Errorf("%s: %w", key, ctx.Err())
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if err := p.block(ctx, "navigate"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	p.navigations = append(p.navigations, url)
	return p.navErr
}

func (p *fakePage) Content(ctx context.Context) (string, error) {
	if err := p.block(ctx, "content"); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.html, nil
}

func (p *fakePage) WaitForSelector(_ context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.missing[selector] {
		return fmt.Errorf("waiting %v for %s: %w", timeout, selector, context.DeadlineExceeded)
	}
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	if err := p.block(ctx, selector); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.panicClick {
		panic("driver crashed")
	}
	if err := p.clickErr[selector]; err != nil {
		return err
	}
	p.clicks = append(p.clicks, selector)
	if next, ok := p.transitions[selector]; ok {
		p.html = next
	}
	return nil
}

func (p *fakePage) Fill(_ context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fills = append(p.fills, selector+"="+value)
	return nil
}

func (p *fakePage) SetInputFiles(_ context.Context, selector string, paths []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploads = append(p.uploads, append([]string{selector}, paths...))
	return nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// mockLLM is a testify mock of the oracle transport.
type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) Close() error { return nil }

// promptFor matches requests whose prompt targets exactly the given fields.
func promptFor(fields ...string) interface{} {
	return mock.MatchedBy(func(req schemas.GenerationRequest) bool {
		count := strings.Count(req.UserPrompt, "MUST be filled with exactly")
		if count != len(fields) {
			return false
		}
		for _, f := range fields {
			if !strings.Contains(req.UserPrompt, fmt.Sprintf("Field %q", f)) {
				return false
			}
		}
		return true
	})
}

func testAgentConfig(t *testing.T) config.AgentConfig {
	t.Helper()
	cfg := config.NewDefaultConfig().Agent
	cfg.ElementTimeout = 100 * time.Millisecond
	cfg.NavigationSettle = 0
	cfg.ActionSettle = 0
	cfg.FinalWait = 0
	cfg.ArtifactsDir = t.TempDir()
	return cfg
}

func newTestController(t *testing.T, cfg config.AgentConfig, page *fakePage, llm *mockLLM) (*Controller, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	client, err := oracle.NewClient(llm, config.OracleConfig{Model: "gpt-4.1"}, logger)
	require.NoError(t, err)

	launcher := LauncherFunc(func(context.Context) (Page, error) { return page, nil })
	return NewController(cfg, launcher, client, logger), logs
}

var errDriver = errors.New("driver error")
