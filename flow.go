package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// FlowState enumerates the strictly forward-progressing acquisition steps.
type FlowState int

const (
	StateIdle FlowState = iota
	StateAwaitingAvailability
	StateActionTriggered
	StateCategorySelecting
	StateQuantitySetting
	StateFormFilling
	StateCheckoutAdvancing
	StatePaymentMethodSelecting
	StateReferenceExtracting
	StateCompleted
	StateAborted
	StateCategoryUnavailable
)

func (s FlowState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingAvailability:
		return "AwaitingAvailability"
	case StateActionTriggered:
		return "ActionTriggered"
	case StateCategorySelecting:
		return "CategorySelecting"
	case StateQuantitySetting:
		return "QuantitySetting"
	case StateFormFilling:
		return "FormFilling"
	case StateCheckoutAdvancing:
		return "CheckoutAdvancing"
	case StatePaymentMethodSelecting:
		return "PaymentMethodSelecting"
	case StateReferenceExtracting:
		return "ReferenceExtracting"
	case StateCompleted:
		return "Completed"
	case StateAborted:
		return "Aborted"
	case StateCategoryUnavailable:
		return "CategoryUnavailable"
	}
	return "Unknown"
}

// Ordered candidate lists for the controls the flow touches. Pages in the
// wild disagree on markup, so every target carries several independent ways
// of finding the same control.

var buyTarget = Target{
	Name: "buy control",
	Candidates: []Candidate{
		{Desc: "buy-ticket data attr", CSS: "[data-testid='buy-ticket'], [data-action='buy-ticket']"},
		{Desc: "buy button class", CSS: "button[class*='buy'], a[class*='buy-ticket']"},
		{Desc: "buy button text", CSS: "button, a", Text: "Buy Ticket"},
		{Desc: "beli tiket text", CSS: "button, a", Text: "Beli Tiket"},
		{Desc: "beli text", CSS: "button, a", Text: "Beli"},
	},
}

const categoryItemCSS = ".ticket-category, .category-item, [class*='ticket-list'] li, [class*='category-card']"

var soldOutMarker = Target{
	Name: "sold-out marker",
	Candidates: []Candidate{
		{Desc: "sold-out class", CSS: ".sold-out, .soldout, [class*='sold-out']"},
		{Desc: "sold out text", Text: "sold out"},
		{Desc: "habis text", Text: "habis"},
	},
}

var quantityInputTarget = Target{
	Name: "quantity input",
	Candidates: []Candidate{
		{Desc: "numeric input", CSS: "input[type='number']"},
		{Desc: "qty-named input", CSS: "input[name*='qty'], input[name*='quantity']"},
		{Desc: "quantity testid", CSS: "[data-testid*='quantity'] input"},
	},
}

var quantityPlusTarget = Target{
	Name: "quantity increase control",
	Candidates: []Candidate{
		{Desc: "increment class", CSS: "button[class*='increment'], button[class*='plus'], [data-action='increase']"},
		{Desc: "plus sign", CSS: "button", Text: "+"},
	},
}

var continueTarget = Target{
	Name: "continue control",
	Candidates: []Candidate{
		{Desc: "continue class", CSS: "button[class*='continue'], button[class*='checkout'], [data-testid='continue']"},
		{Desc: "continue text", CSS: "button, a", Text: "Continue"},
		{Desc: "lanjut text", CSS: "button, a", Text: "Lanjut"},
		{Desc: "checkout text", CSS: "button, a", Text: "Checkout"},
	},
}

var paymentSurfaceMarker = Target{
	Name: "payment surface",
	Candidates: []Candidate{
		{Desc: "payment method class", CSS: "[class*='payment-method'], [class*='payment-option']"},
		{Desc: "payment method text", Text: "Payment Method"},
		{Desc: "metode pembayaran text", Text: "Metode Pembayaran"},
	},
}

var paymentGroupTarget = Target{
	Name: "payment category",
	Candidates: []Candidate{
		{Desc: "bank transfer text", CSS: "", Text: "Bank Transfer"},
		{Desc: "transfer bank text", CSS: "", Text: "Transfer Bank"},
		{Desc: "virtual account text", CSS: "", Text: "Virtual Account"},
		{Desc: "payment group class", CSS: "[class*='payment-group'], .payment-category"},
	},
}

const paymentMethodCSS = "[class*='payment-method'] input[type='radio'], [class*='payment-option'] input[type='radio'], [class*='payment'] li"

var finalConfirmTarget = Target{
	Name: "final confirmation",
	Candidates: []Candidate{
		{Desc: "pay button class", CSS: "button[class*='pay'], button[type='submit']"},
		{Desc: "bayar text", CSS: "button", Text: "Bayar"},
		{Desc: "pay now text", CSS: "button", Text: "Pay Now"},
		{Desc: "konfirmasi text", CSS: "button", Text: "Konfirmasi"},
	},
}

// widgetContentCSS marks an embedded purchase widget; a frame containing it
// supersedes the original surface after the action trigger.
const widgetContentCSS = categoryItemCSS + ", [class*='ticket-widget'], form[class*='order']"

// Flow is the acquisition state machine. It owns the single authoritative
// PageHandle for the run; the handle is reassigned only at the two defined
// transfer points (popup created, widget frame discovered).
type Flow struct {
	config   *Config
	log      *Logger
	browser  *Browser
	resolver *Resolver
	gate     *QueueGate

	state FlowState
	page  *rod.Page
	runID string
}

func NewFlow(config *Config, log *Logger, browser *Browser, runID string) *Flow {
	page := browser.Page()
	return &Flow{
		config:   config,
		log:      log,
		browser:  browser,
		resolver: NewResolver(page, log),
		gate:     NewQueueGate(config.QueueMarkers, log),
		state:    StateIdle,
		page:     page,
		runID:    runID,
	}
}

func (f *Flow) State() FlowState {
	return f.state
}

func (f *Flow) transition(s FlowState) {
	f.log.Debugf("flow: %s -> %s", f.state, s)
	f.state = s
}

// setSurface transfers ownership of the authoritative surface. The previous
// surface is never touched again.
func (f *Flow) setSurface(page *rod.Page, kind string) {
	f.page = page
	f.resolver.SetPage(page)
	f.log.Infof("Switched to %s surface", kind)
}

func (f *Flow) abort(format string, args ...interface{}) *FlowResult {
	f.transition(StateAborted)
	reason := fmt.Sprintf(format, args...)
	f.log.Errorf("Run aborted: %s", reason)
	return &FlowResult{Outcome: OutcomeAborted, Reason: reason}
}

// settle pauses after a state-changing action so asynchronous UI updates can
// land. Cancellation cuts it short.
func (f *Flow) settle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(f.config.SettleDelay()):
	}
}

// Run drives the whole acquisition. It always returns exactly one
// FlowResult; every step failure below the two required transitions is
// downgraded to a warning and the flow falls through its alternatives.
func (f *Flow) Run(ctx context.Context) *FlowResult {
	f.transition(StateAwaitingAvailability)
	buyEl, err := f.awaitAvailability(ctx)
	if err != nil {
		return f.abort("interrupted while waiting for availability: %v", err)
	}
	f.log.Urgentf("Buy control is live, starting acquisition")

	f.transition(StateActionTriggered)
	if err := f.triggerAction(ctx, buyEl); err != nil {
		return f.abort("could not trigger purchase flow: %v", err)
	}

	if ctx.Err() != nil {
		return f.abort("interrupted: %v", ctx.Err())
	}

	f.transition(StateCategorySelecting)
	selected, err := f.selectCategory(ctx)
	if err != nil {
		return f.abort("category selection failed: %v", err)
	}
	if !selected {
		f.transition(StateCategoryUnavailable)
		f.log.Errorf("No category is selectable (preferred or fallback); operator intervention needed")
		return &FlowResult{Outcome: OutcomeCategoryUnavailable}
	}

	f.transition(StateQuantitySetting)
	f.setQuantity(ctx)

	f.transition(StateFormFilling)
	f.fillForm(ctx)

	if ctx.Err() != nil {
		return f.abort("interrupted: %v", ctx.Err())
	}

	f.transition(StateCheckoutAdvancing)
	f.advanceCheckout(ctx)

	f.transition(StatePaymentMethodSelecting)
	f.selectPaymentMethod(ctx)

	f.transition(StateReferenceExtracting)
	ref, ok := f.extractCurrentReference(ctx)
	if ok {
		f.log.Successf("Payment reference: %s", ref)
	} else {
		f.log.Warnf("Payment surface reached, reference not confirmed; complete payment manually")
	}

	if path, err := writeResultArtifact(f.runID, f.config.EventURL, ref); err != nil {
		f.log.Warnf("Could not write result record: %v", err)
	} else {
		f.log.Infof("Result recorded in %s", path)
	}

	f.transition(StateCompleted)
	return &FlowResult{Outcome: OutcomeCompleted, Reference: ref}
}

// awaitAvailability blocks until the buy control is probe-able and the queue
// gate is clear. No timeout by design; only cancellation ends it.
func (f *Flow) awaitAvailability(ctx context.Context) (*rod.Element, error) {
	var found *rod.Element

	poller := &Poller{
		Interval: f.config.PollInterval(),
		Gated: func() bool {
			loc, ok := currentLocation(f.page)
			if !ok {
				// Unreadable surface: keep waiting rather than acting blind.
				return true
			}
			return f.gate.IsGated(loc)
		},
		OnGated: func() {
			f.gate.Report(f.page)
		},
		Probe: func() bool {
			el, ok := f.resolver.Probe(buyTarget)
			if ok {
				found = el
			}
			return ok
		},
		Log: f.log,
	}

	if err := poller.Wait(ctx); err != nil {
		return nil, err
	}
	return found, nil
}

// triggerAction clicks the buy control and, if the next step's UI opened on
// a different surface, transfers the authoritative handle: a new popup wins,
// else a frame hosting the widget content, else the original page stays.
func (f *Flow) triggerAction(ctx context.Context, el *rod.Element) error {
	before, err := f.openTargets()
	if err != nil {
		f.log.Debugf("could not snapshot open pages: %v", err)
	}

	if err := clickElement(el); err != nil {
		return fmt.Errorf("buy control click failed: %w", err)
	}
	f.settle(ctx)

	if popup, ok := f.findNewPopup(before); ok {
		if err := popup.WaitLoad(); err != nil {
			f.log.Debugf("popup load wait: %v", err)
		}
		f.setSurface(popup, "popup")
		return nil
	}

	if frame, ok := f.findWidgetFrame(); ok {
		f.setSurface(frame, "widget frame")
		return nil
	}

	f.log.Debugf("no popup or widget frame detected, staying on original surface")
	return nil
}

func (f *Flow) openTargets() (map[proto.TargetTargetID]bool, error) {
	ids := map[proto.TargetTargetID]bool{}
	pages, err := f.browser.Rod().Pages()
	if err != nil {
		return ids, err
	}
	for _, p := range pages {
		ids[p.TargetID] = true
	}
	return ids, nil
}

func (f *Flow) findNewPopup(before map[proto.TargetTargetID]bool) (*rod.Page, bool) {
	pages, err := f.browser.Rod().Pages()
	if err != nil {
		f.log.Debugf("page scan failed: %v", err)
		return nil, false
	}
	for _, p := range pages {
		if !before[p.TargetID] {
			return p, true
		}
	}
	return nil, false
}

func (f *Flow) findWidgetFrame() (*rod.Page, bool) {
	iframes, err := f.page.Elements("iframe")
	if err != nil {
		return nil, false
	}
	for _, el := range iframes {
		frame, err := el.Frame()
		if err != nil {
			f.log.Debugf("frame handle failed: %v", err)
			continue
		}
		if has, _, err := frame.Has(widgetContentCSS); err == nil && has {
			return frame, true
		}
	}
	return nil, false
}

// categoryOption is one selectable category as found on the page.
type categoryOption struct {
	name    string
	soldOut bool
}

// chooseCategory picks the index to select: preferred keywords exhausted in
// listed order first, then the first selectable category of any name. The
// second return reports whether a preferred keyword matched.
func chooseCategory(preferred []string, options []categoryOption) (int, bool, bool) {
	for _, kw := range preferred {
		for i, opt := range options {
			if opt.soldOut {
				continue
			}
			if strings.Contains(strings.ToLower(opt.name), strings.ToLower(kw)) {
				return i, true, true
			}
		}
	}
	for i, opt := range options {
		if !opt.soldOut {
			return i, false, true
		}
	}
	return 0, false, false
}

// selectCategory returns (false, nil) when no category at all is selectable;
// that is a reported terminal outcome, not an error.
func (f *Flow) selectCategory(ctx context.Context) (bool, error) {
	els, err := f.page.Elements(categoryItemCSS)
	if err != nil || len(els) == 0 {
		// The list may still be rendering; give it one bounded wait.
		if _, ok := f.resolver.Resolve(Target{
			Name:       "category list",
			Candidates: []Candidate{{Desc: "category items", CSS: categoryItemCSS}},
		}, f.config.NavTimeout()); !ok {
			return false, fmt.Errorf("no category list appeared")
		}
		els, err = f.page.Elements(categoryItemCSS)
		if err != nil {
			return false, fmt.Errorf("category scan failed: %w", err)
		}
	}

	options := make([]categoryOption, 0, len(els))
	for _, el := range els {
		name, err := el.Text()
		if err != nil {
			name = ""
		}
		_, sold := f.resolver.ProbeIn(el, soldOutMarker)
		options = append(options, categoryOption{name: strings.TrimSpace(name), soldOut: sold})
	}

	idx, matchedPreferred, ok := chooseCategory(f.config.Categories, options)
	if !ok {
		return false, nil
	}

	if matchedPreferred {
		f.log.Infof("Selecting category %q", options[idx].name)
	} else {
		f.log.Warnf("No preferred category available; falling back to %q", options[idx].name)
	}

	if err := clickElement(els[idx]); err != nil {
		return false, fmt.Errorf("category click failed: %w", err)
	}
	f.settle(ctx)
	return true, nil
}

// setQuantity prefers the direct numeric input and falls back to the
// incremental control. Neither existing is a warning, not a failure: the
// page default quantity still buys a ticket.
func (f *Flow) setQuantity(ctx context.Context) {
	want := f.config.Quantity

	if el, ok := f.resolver.Resolve(quantityInputTarget, 3*time.Second); ok {
		if err := fillInput(el, strconv.Itoa(want)); err != nil {
			f.log.Warnf("Quantity input rejected value: %v", err)
			return
		}
		if got, err := el.Property("value"); err == nil && got.Str() != strconv.Itoa(want) {
			f.log.Warnf("Quantity input now reads %q, wanted %d", got.Str(), want)
		}
		return
	}

	if el, ok := f.resolver.Probe(quantityPlusTarget); ok {
		f.log.Debugf("quantity: using increment control %d times", want-1)
		for i := 0; i < want-1; i++ {
			if err := clickElement(el); err != nil {
				f.log.Warnf("Quantity increment failed on press %d: %v", i+1, err)
				return
			}
			f.settle(ctx)
		}
		return
	}

	f.log.Warnf("No quantity control found; proceeding with the page default")
}

// advanceCheckout activates continue affordances until a payment surface is
// detected, bounded to five attempts. A missing continue control hands off
// to the payment step, which does its own detection.
func (f *Flow) advanceCheckout(ctx context.Context) {
	for attempt := 1; attempt <= 5; attempt++ {
		if ctx.Err() != nil {
			return
		}

		if _, ok := f.resolver.Probe(paymentSurfaceMarker); ok {
			f.log.Debugf("payment surface detected after %d continue attempts", attempt-1)
			return
		}

		el, ok := f.resolver.Resolve(continueTarget, 5*time.Second)
		if !ok {
			f.log.Debugf("no continue control on attempt %d; handing off", attempt)
			return
		}

		if err := clickElement(el); err != nil {
			f.log.Warnf("Continue click failed on attempt %d: %v", attempt, err)
			return
		}
		f.settle(ctx)
	}
}

// selectPaymentMethod expands the bank-transfer group, selects the preferred
// sub-method (positional fallback: second listed option), checks outstanding
// consents and presses the final confirmation when it is live.
func (f *Flow) selectPaymentMethod(ctx context.Context) {
	if el, ok := f.resolver.Resolve(paymentGroupTarget, 5*time.Second); ok {
		if err := clickElement(el); err != nil {
			f.log.Warnf("Payment group expand failed: %v", err)
		}
		f.settle(ctx)
	} else {
		f.log.Warnf("Payment category group not found; trying sub-methods directly")
	}

	method := f.config.PaymentMethod
	subTarget := Target{
		Name: "payment sub-method",
		Candidates: []Candidate{
			{Desc: "method label text", Text: method},
			{Desc: "method input value", CSS: fmt.Sprintf("input[value*='%s' i]", strings.ToLower(method))},
		},
	}

	if el, ok := f.resolver.Resolve(subTarget, 3*time.Second); ok {
		if err := clickElement(el); err != nil {
			f.log.Warnf("Payment method %q click failed: %v", method, err)
		}
	} else if els, err := f.page.Elements(paymentMethodCSS); err == nil && len(els) >= 2 {
		// Last-resort layout assumption; always called out in the log.
		f.log.Warnf("Payment method %q not matched by text; positional fallback to second listed option", method)
		if err := clickElement(els[1]); err != nil {
			f.log.Warnf("Positional payment selection failed: %v", err)
		}
	} else {
		f.log.Warnf("No payment sub-method control found")
	}
	f.settle(ctx)

	f.checkConsents()

	if el, ok := f.resolver.Probe(finalConfirmTarget); ok {
		if err := clickElement(el); err != nil {
			f.log.Warnf("Final confirmation click failed: %v", err)
		}
		f.settle(ctx)
	} else {
		f.log.Infof("Final confirmation control absent or disabled; leaving it to the operator")
	}
}

func (f *Flow) checkConsents() {
	els, err := f.page.Elements("input[type='checkbox']")
	if err != nil {
		return
	}
	for _, el := range els {
		if !f.resolver.interactable(el) {
			continue
		}
		checked, err := el.Property("checked")
		if err == nil && checked.Bool() {
			continue
		}
		if err := clickElement(el); err != nil {
			f.log.Debugf("consent checkbox click failed: %v", err)
		}
	}
}

func (f *Flow) extractCurrentReference(ctx context.Context) (string, bool) {
	f.settle(ctx)

	html, err := f.page.HTML()
	if err != nil {
		f.log.Warnf("Could not read payment page: %v", err)
		return "", false
	}

	return extractReference(html, f.config.ExcludedReferences)
}

func clickElement(el *rod.Element) error {
	// Best effort; rod scrolls again as part of the click.
	_ = el.ScrollIntoView()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func fillInput(el *rod.Element, value string) error {
	// SelectAllText makes Input overwrite any prefilled value.
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(value)
}
