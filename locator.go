package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
)

// Candidate is one way of finding a UI target. CSS scopes the search; Text,
// when set, additionally requires the element's visible text to match
// (case-insensitive). A candidate that matches nothing, or whose selector the
// page rejects, is simply skipped.
type Candidate struct {
	Desc string
	CSS  string
	Text string
}

// Target is an ordered candidate list for one logical control. Candidates
// are tried strictly in order and the first present, visible, enabled match
// wins. No candidate is required to match: all-miss is a normal outcome.
type Target struct {
	Name       string
	Candidates []Candidate
}

func (c Candidate) label() string {
	if c.Desc != "" {
		return c.Desc
	}
	if c.Text != "" {
		return fmt.Sprintf("%s ~ %q", c.CSS, c.Text)
	}
	return c.CSS
}

// textPattern builds the case-insensitive js regex rod matches element text
// against. The literal is quoted so category names like "VIP (Early)" work.
func (c Candidate) textPattern() string {
	return "/" + regexp.QuoteMeta(c.Text) + "/i"
}

// Resolver finds elements on the current authoritative surface. It only
// queries; clicking and typing belong to the flow steps. SetPage is called
// at surface-transfer points (popup, widget frame).
type Resolver struct {
	page *rod.Page
	log  *Logger
}

func NewResolver(page *rod.Page, log *Logger) *Resolver {
	return &Resolver{page: page, log: log}
}

func (r *Resolver) SetPage(page *rod.Page) {
	r.page = page
}

func (r *Resolver) Page() *rod.Page {
	return r.page
}

// Resolve waits up to budget for the first interactable candidate match, in
// listed order. The budget is split evenly across candidates so a dead first
// candidate cannot starve the rest.
func (r *Resolver) Resolve(t Target, budget time.Duration) (*rod.Element, bool) {
	if len(t.Candidates) == 0 || r.page == nil {
		return nil, false
	}

	per := budget / time.Duration(len(t.Candidates))
	if per < 50*time.Millisecond {
		per = 50 * time.Millisecond
	}

	for _, c := range t.Candidates {
		el, ok := r.tryBlocking(c, per)
		if !ok {
			continue
		}
		if !r.interactable(el) {
			r.log.Debugf("%s: %s matched but not interactable, trying next", t.Name, c.label())
			continue
		}
		r.log.Debugf("%s: resolved via %s", t.Name, c.label())
		return el, true
	}

	r.log.Debugf("%s: no candidate matched within %v", t.Name, budget)
	return nil, false
}

// Probe does a single immediate pass over the candidates with no waiting.
// Used on latency-sensitive paths (availability polling) and for existence
// checks such as sold-out markers.
func (r *Resolver) Probe(t Target) (*rod.Element, bool) {
	if r.page == nil {
		return nil, false
	}

	for _, c := range t.Candidates {
		el, ok := r.tryImmediate(c)
		if !ok {
			continue
		}
		if !r.interactable(el) {
			continue
		}
		return el, true
	}
	return nil, false
}

// ProbeIn is Probe scoped to a container element, used for per-category
// sold-out markers and similar nested checks.
func (r *Resolver) ProbeIn(container *rod.Element, t Target) (*rod.Element, bool) {
	if container == nil {
		return nil, false
	}

	for _, c := range t.Candidates {
		var has bool
		var el *rod.Element
		var err error
		if c.Text != "" {
			has, el, err = container.HasR(orBody(c.CSS), c.textPattern())
		} else {
			has, el, err = container.Has(c.CSS)
		}
		if err != nil {
			r.log.Debugf("%s: %s probe error: %v", t.Name, c.label(), err)
			continue
		}
		if has {
			return el, true
		}
	}
	return nil, false
}

func (r *Resolver) tryBlocking(c Candidate, wait time.Duration) (*rod.Element, bool) {
	page := r.page.Timeout(wait)

	var el *rod.Element
	var err error
	if c.Text != "" {
		el, err = page.ElementR(orBody(c.CSS), c.textPattern())
	} else {
		el, err = page.Element(c.CSS)
	}
	if err != nil {
		// Timeouts, rejected selectors and detached nodes all degrade to
		// a plain non-match.
		return nil, false
	}
	return el, true
}

func (r *Resolver) tryImmediate(c Candidate) (*rod.Element, bool) {
	var has bool
	var el *rod.Element
	var err error
	if c.Text != "" {
		has, el, err = r.page.HasR(orBody(c.CSS), c.textPattern())
	} else {
		has, el, err = r.page.Has(c.CSS)
	}
	if err != nil || !has {
		return nil, false
	}
	return el, true
}

// interactable reports whether the element can currently receive the action
// the flow is about to take: visible and not disabled.
func (r *Resolver) interactable(el *rod.Element) bool {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}

	if attr, err := el.Attribute("disabled"); err == nil && attr != nil {
		return false
	}
	if attr, err := el.Attribute("aria-disabled"); err == nil && attr != nil && strings.EqualFold(*attr, "true") {
		return false
	}

	return true
}

func orBody(css string) string {
	if css == "" {
		return "body *"
	}
	return css
}
