package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionFixture = `{
  "cookies": [
    {
      "name": "session_token",
      "value": "abc123",
      "domain": ".tickets.example.com",
      "path": "/",
      "expires": 1790000000,
      "httpOnly": true,
      "secure": true,
      "sameSite": "Lax"
    },
    {
      "name": "csrf",
      "value": "xyz",
      "domain": "tickets.example.com",
      "path": "/",
      "expires": -1,
      "httpOnly": false,
      "secure": false,
      "sameSite": "Strict"
    }
  ],
  "origins": [
    {
      "origin": "https://tickets.example.com",
      "localStorage": [
        {"name": "auth", "value": "bearer-token"}
      ]
    }
  ]
}`

func TestLoadSessionState(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "session.json")
	require.NoError(t, os.WriteFile(path, []byte(sessionFixture), 0600))

	state, err := LoadSessionState(path)
	require.NoError(t, err)

	require.Len(t, state.Cookies, 2)
	assert.Equal(t, "session_token", state.Cookies[0].Name)
	assert.Equal(t, ".tickets.example.com", state.Cookies[0].Domain)
	assert.True(t, state.Cookies[0].HTTPOnly)
	assert.Equal(t, "Lax", state.Cookies[0].SameSite)

	require.Len(t, state.Origins, 1)
	assert.Equal(t, "https://tickets.example.com", state.Origins[0].Origin)
	require.Len(t, state.Origins[0].LocalStorage, 1)
	assert.Equal(t, "auth", state.Origins[0].LocalStorage[0].Name)
}

func TestLoadSessionStateMissingFile(t *testing.T) {
	_, err := LoadSessionState(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadSessionStateNoCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cookies": [], "origins": []}`), 0600))

	_, err := LoadSessionState(path)
	assert.Error(t, err)
}

func TestParseSameSite(t *testing.T) {
	tests := []struct {
		input string
		want  proto.NetworkCookieSameSite
	}{
		{"Lax", proto.NetworkCookieSameSiteLax},
		{"lax", proto.NetworkCookieSameSiteLax},
		{"Strict", proto.NetworkCookieSameSiteStrict},
		{"None", proto.NetworkCookieSameSiteNone},
		{"", proto.NetworkCookieSameSite("")},
		{"bogus", proto.NetworkCookieSameSite("")},
	}

	for _, tt := range tests {
		if got := parseSameSite(tt.input); got != tt.want {
			t.Errorf("parseSameSite(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestOriginOf(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://tickets.example.com/event/1?x=y", "https://tickets.example.com"},
		{"http://localhost:8080/path", "http://localhost:8080"},
		{"not a url", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := originOf(tt.input); got != tt.want {
			t.Errorf("originOf(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
