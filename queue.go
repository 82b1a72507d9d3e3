package main

import (
	"strings"
	"time"

	"github.com/go-rod/rod"
)

// queueReportEvery throttles holding-state status lines.
const queueReportEvery = 5 * time.Second

// isGated classifies a location string against the queue markers. It is a
// pure function: any location containing a marker, case-insensitively, is a
// holding state.
func isGated(location string, markers []string) bool {
	loc := strings.ToLower(location)
	for _, m := range markers {
		if m == "" {
			continue
		}
		if strings.Contains(loc, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// QueueGate detects the server-imposed holding state. While gated the engine
// must not reload or re-navigate; losing queue position costs more than any
// wait. The gate only re-reads the location and, throttled, quotes whatever
// progress indicator the holding page exposes.
type QueueGate struct {
	markers    []string
	log        *Logger
	lastReport time.Time
}

var queueProgressProbe = Target{
	Name: "queue progress indicator",
	Candidates: []Candidate{
		{Desc: "users ahead counter", CSS: "#MainPart_lbUsersInLineAheadOfYou"},
		{Desc: "progress bar label", CSS: ".queue-progress, [class*='queue-position']"},
		{Desc: "ahead-of-you text", CSS: "p, span, div", Text: "ahead of you"},
		{Desc: "antrian text", CSS: "p, span, div", Text: "antrian"},
	},
}

func NewQueueGate(markers []string, log *Logger) *QueueGate {
	if len(markers) == 0 {
		markers = DefaultConfig().QueueMarkers
	}
	return &QueueGate{markers: markers, log: log}
}

func (g *QueueGate) IsGated(location string) bool {
	return isGated(location, g.markers)
}

// Report emits a throttled holding-state line. Missing progress indicators
// are not an error; the queue page may not expose any.
func (g *QueueGate) Report(page *rod.Page) {
	if time.Since(g.lastReport) < queueReportEvery {
		return
	}
	g.lastReport = time.Now()

	if page == nil {
		g.log.Queuedf("In queue, holding position...")
		return
	}

	resolver := NewResolver(page, g.log)
	if el, ok := resolver.Probe(queueProgressProbe); ok {
		if text, err := el.Text(); err == nil && strings.TrimSpace(text) != "" {
			g.log.Queuedf("In queue: %s", strings.TrimSpace(text))
			return
		}
	}

	g.log.Queuedf("In queue, holding position...")
}

// currentLocation reads the page URL without navigating. An unreadable page
// is treated as gated so the poller keeps waiting instead of acting on a
// surface in an unknown state.
func currentLocation(page *rod.Page) (string, bool) {
	if page == nil {
		return "", false
	}
	info, err := page.Info()
	if err != nil {
		return "", false
	}
	return info.URL, true
}
