package scraper

import (
	"context"
	"time"

	"github.com/ysmood/gson"
)

const (
	scrollHeightJS   = `() => document.body.scrollHeight`
	scrollToBottomJS = `() => window.scrollTo(0, document.body.scrollHeight)`
)

// Scroll defaults.
const (
	DefaultScrollInterval = 2 * time.Second
	DefaultMaxScrolls     = 100
)

// ScriptRunner is the part of a Session the scroller needs.
type ScriptRunner interface {
	Eval(ctx context.Context, js string) (gson.JSON, error)
}

// ScrollOutcome tells why the scroll loop stopped.
type ScrollOutcome int

const (
	// Stabilized means two consecutive height reads were equal.
	Stabilized ScrollOutcome = iota
	// BudgetExceeded means MaxRounds ran out while the page was still growing.
	BudgetExceeded
)

func (o ScrollOutcome) String() string {
	if o == BudgetExceeded {
		return "budget_exceeded"
	}
	return "stabilized"
}

// ScrollResult summarises one Exhaust call.
type ScrollResult struct {
	Outcome ScrollOutcome
	Rounds  int // scroll-to-bottom requests issued
	Height  int // last observed document height
}

// Scroller drives an infinite-scroll page until it stops growing.
type Scroller struct {
	Interval  time.Duration // settle time after each scroll
	MaxRounds int           // <= 0 disables the ceiling
}

// DefaultScroller waits 2s per round and gives up after 100 rounds.
func DefaultScroller() Scroller {
	return Scroller{Interval: DefaultScrollInterval, MaxRounds: DefaultMaxScrolls}
}

// Exhaust reads the page height, scrolls to the bottom, waits Interval and
// reads again, stopping at the first read equal to the previous one.
func (s Scroller) Exhaust(ctx context.Context, r ScriptRunner) (ScrollResult, error) {
	last, err := s.height(ctx, r)
	if err != nil {
		return ScrollResult{}, err
	}

	for rounds := 0; ; {
		if s.MaxRounds > 0 && rounds >= s.MaxRounds {
			return ScrollResult{Outcome: BudgetExceeded, Rounds: rounds, Height: last}, nil
		}

		if _, err := r.Eval(ctx, scrollToBottomJS); err != nil {
			return ScrollResult{Rounds: rounds, Height: last}, BrowserError("failed to scroll page", err)
		}
		rounds++

		if err := sleep(ctx, s.Interval); err != nil {
			return ScrollResult{Rounds: rounds, Height: last}, err
		}

		h, err := s.height(ctx, r)
		if err != nil {
			return ScrollResult{Rounds: rounds, Height: last}, err
		}
		if h == last {
			return ScrollResult{Outcome: Stabilized, Rounds: rounds, Height: h}, nil
		}
		last = h
	}
}

func (s Scroller) height(ctx context.Context, r ScriptRunner) (int, error) {
	v, err := r.Eval(ctx, scrollHeightJS)
	if err != nil {
		return 0, BrowserError("failed to read scroll height", err)
	}
	return v.Int(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
