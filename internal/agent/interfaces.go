// internal/agent/interfaces.go
package agent

import (
	"context"
	"time"
)

// Page is the live browser surface the controller drives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Content(ctx context.Context) (string, error)
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	SetInputFiles(ctx context.Context, selector string, paths []string) error
	Close() error
}

// Launcher opens a fresh page for a run.
type Launcher interface {
	Launch(ctx context.Context) (Page, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) (Page, error)

func (f LauncherFunc) Launch(ctx context.Context) (Page, error) {
	return f(ctx)
}
