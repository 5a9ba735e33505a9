// Package policy masks personal data before it leaves the process.
package policy

import "regexp"

// Rule replaces every match of Pattern with Mask.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Mask    string
}

// DefaultRules are applied in order. Cards run before phones so long digit runs
// are not reported as phone numbers.
var DefaultRules = []Rule{
	{Name: "email", Pattern: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), Mask: "[REDACTED_EMAIL]"},
	{Name: "card", Pattern: regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), Mask: "[REDACTED_CARD]"},
	{Name: "phone", Pattern: regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), Mask: "[REDACTED_PHONE]"},
	{Name: "ipv4", Pattern: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), Mask: "[REDACTED_IP]"},
}

// Redact applies DefaultRules and reports the names of the rules that matched.
func Redact(input string) (string, []string) {
	return RedactWith(DefaultRules, input)
}

func RedactWith(rules []Rule, input string) (string, []string) {
	out := input
	var hits []string
	for _, r := range rules {
		next := r.Pattern.ReplaceAllString(out, r.Mask)
		if next != out {
			hits = append(hits, r.Name)
			out = next
		}
	}
	return out, hits
}
