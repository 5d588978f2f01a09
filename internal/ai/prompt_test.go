package ai

import (
	"strings"
	"testing"
	"time"
)

func TestDynamicMaxTokens(t *testing.T) {
	cases := map[string]int{
		"hello":                        200,
		"show me your basmati":         500,
		"recipe for biryani":           1000,
		"xyz":                          300,
		"do you export to rotterdam?":  600,
		strings.Repeat("quinoa ", 10): 1000,
	}
	for msg, want := range cases {
		if got := DynamicMaxTokens(msg); got != want {
			t.Fatalf("DynamicMaxTokens(%q) = %d, want %d", msg, got, want)
		}
	}
}

func TestCacheDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"what is your phone number": 24 * time.Hour,
		"ghee":                      12 * time.Hour,
		"recipe for kheer":          2 * time.Hour,
		"something else":            6 * time.Hour,
	}
	for msg, want := range cases {
		if got := CacheDuration(msg); got != want {
			t.Fatalf("CacheDuration(%q) = %s, want %s", msg, got, want)
		}
	}
}

func TestFallbackResponse(t *testing.T) {
	if got := FallbackResponse("hey there", testCompany); !strings.HasPrefix(got, "Hello! Welcome to Westend Corporation") {
		t.Fatalf("expected greeting fallback, got %q", got)
	}
	if got := FallbackResponse("quinoa", testCompany); !strings.Contains(got, "What specific information") {
		t.Fatalf("expected general fallback, got %q", got)
	}
}

func TestTokenEstimatorCounts(t *testing.T) {
	est, err := NewTokenEstimator("gpt-4o")
	if err != nil {
		t.Fatalf("estimator: %v", err)
	}
	if n := est.Count("hello world"); n <= 0 || n > 5 {
		t.Fatalf("unexpected token count %d", n)
	}
	var nilEst *TokenEstimator
	if n := nilEst.Count("abcdefgh"); n != 2 {
		t.Fatalf("expected rough estimate 2, got %d", n)
	}
}
