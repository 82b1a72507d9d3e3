package main

import (
	"fmt"
	"net/http"
	"time"
)

// Clock keeps local time honest against well-provisioned HTTP servers so a
// sale-start countdown does not drift with the machine clock. Offsets come
// from Date headers over HEAD requests, averaged across servers.
type Clock struct {
	log      *Logger
	offset   time.Duration
	lastSync time.Time
	synced   bool
}

var clockServers = []string{
	"https://www.google.com",
	"https://www.cloudflare.com",
	"https://www.amazon.com",
}

func NewClock(log *Logger) *Clock {
	return &Clock{log: log}
}

// Sync measures the offset against each server and averages the successes.
// At least one server must answer.
func (c *Clock) Sync() error {
	var total time.Duration
	ok := 0

	for _, server := range clockServers {
		offset, err := c.measure(server)
		if err != nil {
			c.log.Debugf("time sync against %s failed: %v", server, err)
			continue
		}
		c.log.Debugf("time offset from %s: %v", server, offset)
		total += offset
		ok++
	}

	if ok == 0 {
		return fmt.Errorf("no time server answered")
	}

	c.offset = total / time.Duration(ok)
	c.lastSync = time.Now()
	c.synced = true
	c.log.Debugf("clock synchronized, average offset %v", c.offset)
	return nil
}

func (c *Clock) measure(url string) (time.Duration, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	before := time.Now()

	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	after := time.Now()

	dateHeader := resp.Header.Get("Date")
	if dateHeader == "" {
		return 0, fmt.Errorf("no Date header")
	}
	serverTime, err := http.ParseTime(dateHeader)
	if err != nil {
		return 0, fmt.Errorf("unparseable Date header: %w", err)
	}

	// Assume the server stamped the response mid round trip.
	latency := after.Sub(before) / 2
	local := before.Add(latency)
	return serverTime.Sub(local), nil
}

// Now is local time corrected by the measured offset. Before the first
// successful Sync it is plain local time.
func (c *Clock) Now() time.Time {
	if !c.synced {
		return time.Now()
	}
	return time.Now().Add(c.offset)
}

func (c *Clock) Offset() time.Duration {
	return c.offset
}

// ShouldResync reports whether the offset is stale. An hour of drift budget
// is plenty for a countdown measured in minutes.
func (c *Clock) ShouldResync() bool {
	if !c.synced {
		return true
	}
	return time.Since(c.lastSync) > time.Hour
}
