package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// SessionState is the persisted authentication material written by the
// external login helper (storage-state layout: cookies plus per-origin
// localStorage). The engine reads it once at startup and never writes it
// back.
type SessionState struct {
	Cookies []SessionCookie `json:"cookies"`
	Origins []OriginStorage `json:"origins"`
}

type SessionCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

type OriginStorage struct {
	Origin       string        `json:"origin"`
	LocalStorage []StorageItem `json:"localStorage"`
}

type StorageItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func LoadSessionState(path string) (*SessionState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}

	if len(state.Cookies) == 0 {
		return nil, fmt.Errorf("session file %s contains no cookies; run the login helper first", path)
	}

	return &state, nil
}

// ApplyCookies installs the persisted cookies into the browser before the
// first navigation.
func (s *SessionState) ApplyCookies(browser *rod.Browser) error {
	params := make([]*proto.NetworkCookieParam, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: parseSameSite(c.SameSite),
		}
		if c.Expires > 0 {
			p.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		params = append(params, p)
	}

	if err := browser.SetCookies(params); err != nil {
		return fmt.Errorf("failed to set session cookies: %w", err)
	}
	return nil
}

// ApplyStorage replays the persisted localStorage entries for the given
// page's origin. The page must already be on that origin.
func (s *SessionState) ApplyStorage(page *rod.Page, pageURL string) error {
	origin := originOf(pageURL)
	if origin == "" {
		return nil
	}

	for _, o := range s.Origins {
		if !strings.EqualFold(o.Origin, origin) {
			continue
		}
		for _, item := range o.LocalStorage {
			_, err := page.Eval(`(k, v) => localStorage.setItem(k, v)`, item.Name, item.Value)
			if err != nil {
				return fmt.Errorf("failed to restore localStorage key %q: %w", item.Name, err)
			}
		}
	}
	return nil
}

func parseSameSite(v string) proto.NetworkCookieSameSite {
	switch strings.ToLower(v) {
	case "strict":
		return proto.NetworkCookieSameSiteStrict
	case "none":
		return proto.NetworkCookieSameSiteNone
	case "lax":
		return proto.NetworkCookieSameSiteLax
	default:
		return ""
	}
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
