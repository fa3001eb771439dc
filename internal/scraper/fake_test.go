package scraper_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ysmood/gson"

	"codir/internal/browser"
	"codir/internal/scraper"
)

// fakeSession serves canned HTML per URL and a scripted sequence of scroll heights.
type fakeSession struct {
	mu sync.Mutex

	pages     map[string]string
	timeoutOn map[string]bool
	heights   []int
	evalErr   error
	proxy     string

	current     string
	navigations []string
	scripts     []string
	heightReads int
	scrolls     int
	closed      int
}

func newFakeSession(pages map[string]string, heights ...int) *fakeSession {
	if len(heights) == 0 {
		heights = []int{1000, 1000}
	}
	return &fakeSession{pages: pages, heights: heights, timeoutOn: map[string]bool{}}
}

func (f *fakeSession) NavigateAndWait(ctx context.Context, url, readySelector string, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigations = append(f.navigations, url)
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := f.pages[url]; !ok || f.timeoutOn[url] {
		return fmt.Errorf("failed to wait for element '%s': %w", readySelector, browser.ErrWaitTimeout)
	}
	f.current = url
	return nil
}

func (f *fakeSession) Eval(ctx context.Context, js string) (gson.JSON, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, js)
	if f.evalErr != nil {
		return gson.New(nil), f.evalErr
	}
	if strings.Contains(js, "scrollTo") {
		f.scrolls++
		return gson.New(nil), nil
	}
	i := f.heightReads
	if i >= len(f.heights) {
		i = len(f.heights) - 1
	}
	f.heightReads++
	return gson.New(f.heights[i]), nil
}

func (f *fakeSession) ProxyURL() string { return f.proxy }

func (f *fakeSession) HTML(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pages[f.current], nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// growingPage reports a taller document on every read.
type growingPage struct {
	reads int
}

func (g *growingPage) Eval(ctx context.Context, js string) (gson.JSON, error) {
	if strings.Contains(js, "scrollTo") {
		return gson.New(nil), nil
	}
	g.reads++
	return gson.New(g.reads * 1000), nil
}

// countingOpener hands out sess and counts how often it was asked to.
type countingOpener struct {
	sess  *fakeSession
	err   error
	calls int
}

func (c *countingOpener) open(ctx context.Context) (scraper.Session, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.sess, nil
}
