package main

import (
	"fmt"
	"strings"
	"time"
)

// parseSaleTime parses the configured sale start. RFC3339 carries its own
// zone; the friendly formats are taken in the machine's local zone, which is
// what someone reading a local on-sale announcement means:
//   - "2026-01-15T16:00:00+07:00" (RFC3339)
//   - "2026-01-15 16:00"
//   - "2026-01-15 16:00:00"
func parseSaleTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.Local); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid time %q, use YYYY-MM-DD HH:MM (local time) or RFC3339", value)
}
