package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Config controls how the browser process is launched.
type Config struct {
	Headless bool
	ProxyURL string
	BinPath  string // browser binary; empty lets the launcher find or download one
}

// Browser wraps a rod.Browser together with the launcher that owns its process.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	proxyURL string

	closeOnce sync.Once
}

// NewContext launches a browser process and connects to it. ctx bounds the
// launch and all later CDP calls.
func NewContext(ctx context.Context, cfg Config) (*Browser, error) {
	l := launcher.New().Context(ctx).Headless(cfg.Headless)
	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	rb := rod.New().Context(ctx).ControlURL(u)
	if err := rb.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Browser{
		browser:  rb,
		launcher: l,
		proxyURL: cfg.ProxyURL,
	}, nil
}

// GetProxyURL returns the proxy the browser was launched with.
func (b *Browser) GetProxyURL() string {
	return b.proxyURL
}

// NewPage opens a blank tab.
func (b *Browser) NewPage() (*rod.Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Close shuts the browser down and kills its process. It is safe to call more
// than once and does not fail when the process has already died.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		if b.browser != nil {
			// The CDP connection is gone when the process was killed externally;
			// the launcher kill below still reaps whatever is left.
			_ = b.browser.Close()
		}
		if b.launcher != nil {
			b.launcher.Kill()
			b.launcher.Cleanup()
		}
	})
	return nil
}
