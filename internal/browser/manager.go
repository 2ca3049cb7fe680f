// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot/internal/config"
)

// Launcher starts Chrome processes with a fixed configuration.
type Launcher struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

// NewLauncher creates a launcher. Nothing is started until Launch.
func NewLauncher(cfg config.BrowserConfig, logger *zap.Logger) *Launcher {
	return &Launcher{
		cfg:    cfg,
		logger: logger.Named("browser"),
	}
}

// Launch starts a browser with a single tab and returns the session that owns
// it. The browser outlives ctx; callers must Close the session.
func (l *Launcher) Launch(ctx context.Context) (*Session, error) {
	id := uuid.New().String()
	log := l.logger.With(zap.String("session_id", id))

	// 1. Allocator rooted in a detached context so only Close kills Chrome.
	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), DefaultAllocatorOptions(l.cfg)...)

	// 2. Tab context with chromedp's internal logs routed through zap.
	sugar := log.Sugar()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	s := &Session{
		id:          id,
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		logger:      log,
	}

	// 3. The first Run starts the process and must use the tab context itself,
	// since a derived context would take the browser down with it.
	startup := []chromedp.Action{chromedp.ActionFunc(func(context.Context) error { return nil })}
	if len(l.cfg.Headers) > 0 {
		headers := make(network.Headers, len(l.cfg.Headers))
		for k, v := range l.cfg.Headers {
			headers[k] = v
		}
		startup = append(startup, network.Enable(), network.SetExtraHTTPHeaders(headers))
	}

	if err := chromedp.Run(tabCtx, startup...); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Info("Browser session started.", zap.Bool("headless", l.cfg.Headless))
	return s, nil
}
