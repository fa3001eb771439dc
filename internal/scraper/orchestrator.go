package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"codir/internal/browser"
	"codir/internal/company"
	"codir/internal/logging"
	"codir/internal/monitoring"
)

// DefaultWaitTimeout bounds each wait for a ready selector.
const DefaultWaitTimeout = 30 * time.Second

// State is a step of a scrape run.
type State int

const (
	Idle State = iota
	Validating
	SessionOpen
	ListingLoaded
	Scrolled
	Extracting
	Enriching
	Done
	Errored
)

var stateNames = [...]string{
	Idle:          "idle",
	Validating:    "validating",
	SessionOpen:   "session_open",
	ListingLoaded: "listing_loaded",
	Scrolled:      "scrolled",
	Extracting:    "extracting",
	Enriching:     "enriching",
	Done:          "done",
	Errored:       "errored",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Orchestrator runs the scrape pipeline for one Site. A single Orchestrator may
// serve concurrent Scrape calls; each call opens its own Session.
type Orchestrator struct {
	Site        Site
	Open        Opener
	Scroller    Scroller
	WaitTimeout time.Duration
	Logger      logging.Logger
	Metrics     *monitoring.Metrics
	// Observer, if set, is called on every state transition of every run.
	Observer func(from, to State)
}

// ScrapeJSON parses a raw request payload and scrapes it.
func (o *Orchestrator) ScrapeJSON(ctx context.Context, payload []byte) (*company.RecordSet, error) {
	r := o.newRun()
	r.to(Validating)

	req, err := ParseRequest(payload)
	if err != nil {
		o.Metrics.ObserveScrape(Outcome(err), time.Since(r.started), 0)
		return nil, r.fail(err)
	}
	return o.run(ctx, r, req)
}

// Scrape validates req and returns up to req.Count enriched companies in
// listing order, or exactly one error.
func (o *Orchestrator) Scrape(ctx context.Context, req Request) (*company.RecordSet, error) {
	r := o.newRun()
	r.to(Validating)
	return o.run(ctx, r, req)
}

func (o *Orchestrator) run(ctx context.Context, r *run, req Request) (set *company.RecordSet, err error) {
	defer func() {
		n := 0
		if set != nil {
			n = set.Len()
		}
		o.Metrics.ObserveScrape(Outcome(err), time.Since(r.started), n)
	}()

	if err := req.Validate(); err != nil {
		return nil, r.fail(err)
	}

	sess, err := o.Open(ctx)
	if err != nil {
		return nil, r.fail(BrowserError("failed to open browser session", err))
	}
	o.Metrics.SessionOpened()
	if p, ok := sess.(proxied); ok && p.ProxyURL() != "" {
		o.logger().WithField("proxy", p.ProxyURL()).Info("Browser session routed through proxy")
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			o.logger().WithError(cerr).Warn("Failed to close browser session")
		}
		o.Metrics.SessionClosed()
	}()
	r.to(SessionOpen)

	listingURL := o.Site.ListingURL(req.Query())
	o.logger().WithFields(logging.Fields{
		"site":  o.Site.Name(),
		"url":   listingURL,
		"count": req.Count,
	}).Info("Loading listing page")

	if err := sess.NavigateAndWait(ctx, listingURL, o.Site.ListingReady(), o.waitTimeout()); err != nil {
		return nil, r.fail(waitError(err))
	}
	r.to(ListingLoaded)

	res, err := o.Scroller.Exhaust(ctx, sess)
	if err != nil {
		return nil, r.fail(err)
	}
	o.Metrics.ObserveScroll(res.Outcome.String(), res.Rounds)
	if res.Outcome == BudgetExceeded {
		o.logger().WithFields(logging.Fields{
			"rounds": res.Rounds,
			"height": res.Height,
		}).Warn("Listing still growing after scroll budget; extracting what has loaded")
	}
	r.to(Scrolled)

	doc, err := document(ctx, sess)
	if err != nil {
		return nil, r.fail(err)
	}
	r.to(Extracting)

	stubs, err := o.Site.ExtractListing(doc, req.Count)
	if err != nil {
		return nil, r.fail(err)
	}
	o.logger().WithField("stubs", len(stubs)).Debug("Extracted listing entries")
	r.to(Enriching)

	set = company.NewRecordSet(req.Count)
	limit, next := req.Count, 0
	for {
		for _, stub := range stubs[next:] {
			if set.Full() {
				break
			}
			if set.Has(stub.Name) {
				o.logger().WithField("name", stub.Name).Debug("Skipping duplicate listing entry")
				continue
			}
			rec, err := o.enrich(ctx, sess, stub)
			if err != nil {
				return nil, r.fail(err)
			}
			set.Add(rec)
		}
		if set.Full() || len(stubs) < limit {
			break
		}

		// Duplicates used up listing slots; read further down the same document.
		next = len(stubs)
		limit += set.Cap() - set.Len()
		if stubs, err = o.Site.ExtractListing(doc, limit); err != nil {
			return nil, r.fail(err)
		}
		if len(stubs) <= next {
			break
		}
	}

	r.to(Done)
	return set, nil
}

// proxied is implemented by sessions launched behind a proxy.
type proxied interface {
	ProxyURL() string
}

// enrich visits the stub's detail page and merges its fields.
func (o *Orchestrator) enrich(ctx context.Context, sess Session, stub company.Stub) (company.Record, error) {
	u, err := o.Site.DetailURL(stub)
	if err != nil {
		return company.Record{}, err
	}
	if err := sess.NavigateAndWait(ctx, u, o.Site.DetailReady(), o.waitTimeout()); err != nil {
		return company.Record{}, waitError(err)
	}
	doc, err := document(ctx, sess)
	if err != nil {
		return company.Record{}, err
	}

	rec := o.Site.ExtractDetail(doc, stub)
	o.logger().WithFields(logging.Fields{
		"name":     rec.Name,
		"website":  rec.WebsiteOrEmpty(),
		"founders": len(rec.Founders),
	}).Info("Enriched company")
	return rec, nil
}

func document(ctx context.Context, sess Session) (*goquery.Document, error) {
	html, err := sess.HTML(ctx)
	if err != nil {
		return nil, BrowserError("failed to read rendered page", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, BrowserError("failed to parse rendered page", err)
	}
	return doc, nil
}

// waitError maps a failed navigate-and-wait onto the error taxonomy. Caller
// cancellation passes through unchanged.
func waitError(err error) error {
	switch {
	case errors.Is(err, browser.ErrWaitTimeout):
		return TimeoutError(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("scrape cancelled: %w", err)
	default:
		return BrowserError("failed to load page", err)
	}
}

func (o *Orchestrator) waitTimeout() time.Duration {
	if o.WaitTimeout > 0 {
		return o.WaitTimeout
	}
	return DefaultWaitTimeout
}

func (o *Orchestrator) logger() logging.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return discard
}

var discard = logging.Discard()

type run struct {
	o       *Orchestrator
	state   State
	started time.Time
}

func (o *Orchestrator) newRun() *run {
	return &run{o: o, state: Idle, started: time.Now()}
}

func (r *run) to(next State) {
	prev := r.state
	r.state = next
	r.o.logger().WithFields(logging.Fields{"from": prev.String(), "to": next.String()}).Debug("Scrape state transition")
	if r.o.Observer != nil {
		r.o.Observer(prev, next)
	}
}

func (r *run) fail(err error) error {
	from := r.state
	r.to(Errored)
	r.o.logger().WithError(err).WithFields(logging.Fields{
		"state":   from.String(),
		"outcome": Outcome(err),
	}).Warn("Scrape failed")
	return err
}
