package main

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Reference extraction scans the rendered page for the payment reference
// (virtual account number or payment code) the operator needs to finish the
// purchase by hand. It only looks at visible text: script/style bodies and
// layout-hidden elements are dropped before scanning.

// Digit groups separated by spaces, dots or dashes, the way payment pages
// often render VA numbers ("8808 1234 5678 90").
var groupedDigitRun = regexp.MustCompile(`[0-9][0-9 .\-]{8,22}[0-9]`)

var paymentKeywords = []string{
	"virtual account",
	"va number",
	"nomor virtual account",
	"no. virtual account",
	"payment code",
	"kode pembayaran",
	"kode bayar",
	"nomor pembayaran",
	"transfer ke",
}

// paymentContainerSelector matches labeled payment-detail containers; a
// plausible number inside one is accepted without a nearby keyword.
const paymentContainerSelector = ".va-number, .payment-code, .payment-detail, " +
	"[class*='virtual-account'], [class*='payment-detail'], [data-testid*='payment']"

// contextWindow is how far, in bytes of visible text, a keyword may sit from
// a candidate number.
const contextWindow = 80

// extractReference returns the first plausible payment reference in the
// rendered HTML, or false when nothing passes the filters. Not finding one
// is a reported condition, never an error: the operator pays manually either
// way.
func extractReference(html string, excluded []string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	doc.Find("script, style, noscript, template").Remove()
	doc.Find("[hidden], [aria-hidden='true']").Remove()
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if styleHidden(style) {
			s.Remove()
		}
	})

	// Labeled containers first: the strongest signal the page gives us.
	var fromContainer string
	doc.Find(paymentContainerSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if tok, ok := firstPlausibleNumber(s.Text(), excluded); ok {
			fromContainer = tok
			return false
		}
		return true
	})
	if fromContainer != "" {
		return fromContainer, true
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return "", false
	}

	return scanNearKeywords(body.Text(), excluded)
}

// scanNearKeywords accepts a candidate only when a payment keyword appears
// within the context window around it. Exclusions are applied first, so a
// listed tracking identifier is rejected even if it sits beside a keyword.
func scanNearKeywords(text string, excluded []string) (string, bool) {
	for _, m := range groupedDigitRun.FindAllStringIndex(text, -1) {
		tok := onlyDigits(text[m[0]:m[1]])
		if !plausibleReference(tok) || isExcluded(tok, excluded) {
			continue
		}

		start := m[0] - contextWindow
		if start < 0 {
			start = 0
		}
		end := m[1] + contextWindow
		if end > len(text) {
			end = len(text)
		}

		// Lowercase after slicing: case folding can change byte lengths
		// (U+212A folds 3 bytes to 1) and would skew these offsets.
		window := strings.ToLower(text[start:end])
		for _, kw := range paymentKeywords {
			if strings.Contains(window, kw) {
				return tok, true
			}
		}
	}

	return "", false
}

func firstPlausibleNumber(text string, excluded []string) (string, bool) {
	for _, raw := range groupedDigitRun.FindAllString(text, -1) {
		tok := onlyDigits(raw)
		if plausibleReference(tok) && !isExcluded(tok, excluded) {
			return tok, true
		}
	}
	return "", false
}

// plausibleReference bounds the token to payment-reference length. Anything
// shorter collides with prices and dates, anything longer with tracking ids.
func plausibleReference(s string) bool {
	return len(s) >= 10 && len(s) <= 16
}

func isExcluded(s string, excluded []string) bool {
	for _, e := range excluded {
		if s == onlyDigits(e) {
			return true
		}
	}
	return phoneShaped(s)
}

// phoneShaped rejects local mobile numbers, which share the 10-13 digit
// range with payment references.
func phoneShaped(s string) bool {
	if strings.HasPrefix(s, "08") && len(s) <= 13 {
		return true
	}
	if strings.HasPrefix(s, "628") && len(s) <= 14 {
		return true
	}
	return false
}

func styleHidden(style string) bool {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.Contains(s, "display:none") || strings.Contains(s, "visibility:hidden")
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
