package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractReferenceNearKeyword(t *testing.T) {
	html := `<html><body>
		<div>Order #20260830 received.</div>
		<div>Complete your payment via Virtual Account: 8808 1234 5678 90</div>
	</body></html>`

	ref, ok := extractReference(html, nil)
	assert.True(t, ok)
	assert.Equal(t, "88081234567890", ref)
}

func TestExtractReferencePrefersExclusionOverKeyword(t *testing.T) {
	// The excluded tracking id sits right next to the keyword; the real
	// reference comes later in the page.
	html := `<html><body>
		<p>Virtual Account tracking 1234567890123456</p>
		<p>Transfer ke nomor 8808998877665544</p>
	</body></html>`

	ref, ok := extractReference(html, []string{"1234-5678-9012-3456"})
	assert.True(t, ok)
	assert.Equal(t, "8808998877665544", ref)
}

func TestExtractReferenceFromLabeledContainer(t *testing.T) {
	// Inside a labeled container no nearby keyword text is required.
	html := `<html><body>
		<div class="va-number">1290 8800 4455 661</div>
	</body></html>`

	ref, ok := extractReference(html, nil)
	assert.True(t, ok)
	assert.Equal(t, "129088004455661", ref)
}

func TestExtractReferenceIgnoresHiddenText(t *testing.T) {
	html := `<html><body>
		<div style="display: none">Virtual Account 9999888877776666</div>
		<script>var va = "Virtual Account 1111222233334444";</script>
		<div hidden>Virtual Account 5555666677778888</div>
		<div>Kode pembayaran: 8808123456789012</div>
	</body></html>`

	ref, ok := extractReference(html, nil)
	assert.True(t, ok)
	assert.Equal(t, "8808123456789012", ref)
}

func TestExtractReferenceMultibyteText(t *testing.T) {
	// Case folding can shrink byte lengths (U+212A "K" folds 3 bytes to 1);
	// the keyword window must stay aligned with the original text.
	html := `<html><body>
		<div>` + strings.Repeat("K", 60) + ` Virtual Account 8808123456789012</div>
	</body></html>`

	ref, ok := extractReference(html, nil)
	assert.True(t, ok)
	assert.Equal(t, "8808123456789012", ref)
}

func TestExtractReferenceNoKeywordNearby(t *testing.T) {
	html := `<html><body>
		<div>Invoice number 8808123456789012 issued today.</div>
	</body></html>`

	_, ok := extractReference(html, nil)
	assert.False(t, ok)
}

func TestExtractReferenceRejectsPhoneNumbers(t *testing.T) {
	html := `<html><body>
		<div>Hubungi Virtual Account support di 081234567890</div>
	</body></html>`

	_, ok := extractReference(html, nil)
	assert.False(t, ok)
}

func TestPlausibleReference(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"123456789", false},
		{"1234567890", true},
		{"1234567890123456", true},
		{"12345678901234567", false},
	}

	for _, tt := range tests {
		if got := plausibleReference(tt.token); got != tt.want {
			t.Errorf("plausibleReference(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestPhoneShaped(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"081234567890", true},
		{"6281234567890", true},
		{"8808123456789012", false},
		{"0812345678901234", false},
	}

	for _, tt := range tests {
		if got := phoneShaped(tt.token); got != tt.want {
			t.Errorf("phoneShaped(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestStyleHidden(t *testing.T) {
	if !styleHidden("display: none; color: red") {
		t.Error("Expected display:none to count as hidden")
	}
	if !styleHidden("visibility:hidden") {
		t.Error("Expected visibility:hidden to count as hidden")
	}
	if styleHidden("color: red") {
		t.Error("Expected plain styling to be visible")
	}
}
