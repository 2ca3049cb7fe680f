// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot/internal/browser/dom"
)

// ErrSessionClosed is returned by every operation after Close.
var ErrSessionClosed = errors.New("browser session is closed")

// Session drives a single Chrome tab. It is owned by one run and is not meant
// for concurrent use by several runs.
type Session struct {
	id          string
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// ID returns the session identifier used in log lines.
func (s *Session) ID() string {
	return s.id
}

// run executes actions on the tab, bounded by both the session lifetime and
// the operational ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		// Report the caller's deadline rather than chromedp's wrapping of it.
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}

// queryOption picks the chromedp query strategy for selector.
func queryOption(selector string) chromedp.QueryOption {
	if dom.IsXPath(selector) {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// Navigate loads url and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating session.", zap.String("url", url))
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Content returns the serialized outer HTML of the current document.
func (s *Session) Content(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture page content: %w", err)
	}
	return html, nil
}

// WaitForSelector blocks until selector is attached to the DOM or timeout
// elapses.
func (s *Session) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.run(waitCtx, chromedp.WaitReady(selector, queryOption(selector))); err != nil {
		return fmt.Errorf("selector %q not ready after %v: %w", selector, timeout, err)
	}
	return nil
}

// Click clicks the first visible element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.logger.Debug("Clicking element.", zap.String("selector", selector))
	if err := s.run(ctx, chromedp.Click(selector, queryOption(selector))); err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

// Fill replaces the value of the field matching selector by clearing it and
// typing value.
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	by := queryOption(selector)
	if err := s.run(ctx, chromedp.Clear(selector, by), chromedp.SendKeys(selector, value, by)); err != nil {
		return fmt.Errorf("fill of %q failed: %w", selector, err)
	}
	return nil
}

// SetInputFiles attaches paths to the file input matching selector.
func (s *Session) SetInputFiles(ctx context.Context, selector string, paths []string) error {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		full, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve upload path %q: %w", p, err)
		}
		abs = append(abs, full)
	}
	if err := s.run(ctx, chromedp.SetUploadFiles(selector, abs, queryOption(selector))); err != nil {
		return fmt.Errorf("upload to %q failed: %w", selector, err)
	}
	return nil
}

// Close shuts down the tab and the browser process. It is safe to call more
// than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		s.cancel()
		s.allocCancel()
		s.logger.Debug("Browser session closed.")
	})
	return s.closeErr
}
