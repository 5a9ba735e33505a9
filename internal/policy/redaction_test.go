package policy

import (
	"regexp"
	"strings"
	"testing"
)

func TestRedactMasksContactDetails(t *testing.T) {
	input := "Write to alex@example.com, call +1 (555) 123-9876, card 4242 4242 4242 4242."
	out, hits := Redact(input)
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
	if strings.Contains(out, "alex@example.com") {
		t.Fatalf("email leaked: %q", out)
	}
	if len(hits) != 3 {
		t.Fatalf("hits = %v, want email, card and phone", hits)
	}
}

func TestRedactLeavesPlainTextAlone(t *testing.T) {
	input := "My name is Alex and I like hiking."
	out, hits := Redact(input)
	if out != input {
		t.Fatalf("Redact() = %q, want input unchanged", out)
	}
	if len(hits) != 0 {
		t.Fatalf("hits = %v, want none", hits)
	}
}

func TestRedactWithCustomRule(t *testing.T) {
	rules := []Rule{{Name: "city", Pattern: regexp.MustCompile(`(?i)\bparis\b`), Mask: "[CITY]"}}
	out, hits := RedactWith(rules, "I live in Paris")
	if out != "I live in [CITY]" {
		t.Fatalf("RedactWith() = %q", out)
	}
	if len(hits) != 1 || hits[0] != "city" {
		t.Fatalf("hits = %v, want [city]", hits)
	}
}
