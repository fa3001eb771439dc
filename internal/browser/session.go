package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"
)

// ErrWaitTimeout is returned when a ready selector does not appear in time.
var ErrWaitTimeout = errors.New("timed out waiting for selector")

// Session is a single browser with a single tab. All navigation of one scrape
// goes through the same tab, so a Session must not be used concurrently.
type Session struct {
	browser *Browser
	page    *rod.Page
}

// Open launches a browser and opens the tab the session will drive.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	b, err := NewContext(ctx, cfg)
	if err != nil {
		return nil, err
	}
	page, err := b.NewPage()
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &Session{browser: b, page: page}, nil
}

// NavigateAndWait loads url and blocks until readySelector matches an element
// or timeout elapses. There is no retry.
func (s *Session) NavigateAndWait(ctx context.Context, url, readySelector string, timeout time.Duration) error {
	page := s.page.Context(ctx).Timeout(timeout)

	if err := page.Navigate(url); err != nil {
		return classifyWaitErr(ctx, fmt.Errorf("failed to navigate to %s: %w", url, err))
	}
	if _, err := page.Element(readySelector); err != nil {
		return classifyWaitErr(ctx, fmt.Errorf("failed to wait for element '%s': %w", readySelector, err))
	}
	return nil
}

// Eval runs a JavaScript function in the page and returns its JSON value.
// js must be a function expression, e.g. `() => document.body.scrollHeight`.
func (s *Session) Eval(ctx context.Context, js string) (gson.JSON, error) {
	res, err := s.page.Context(ctx).Eval(js)
	if err != nil {
		return gson.New(nil), fmt.Errorf("failed to evaluate script: %w", err)
	}
	return res.Value, nil
}

// ProxyURL returns the proxy the session's browser routes through, or "".
func (s *Session) ProxyURL() string {
	return s.browser.GetProxyURL()
}

// HTML returns the rendered document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// Close releases the tab and the browser process. Safe to call repeatedly.
func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
	}
	return s.browser.Close()
}

// classifyWaitErr turns a deadline hit by the per-call timeout into ErrWaitTimeout
// while leaving cancellation of the caller's own context untouched.
func classifyWaitErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrWaitTimeout, err)
	}
	return err
}
