package memory

import (
	"context"
	"strings"
)

// factMarkers are matched as lowercase substrings, so "I am not sure" and
// "I'm tired" both qualify.
var factMarkers = []string{"i am", "i'm", "my name", "i live", "i like"}

// IsFactBearing reports whether text looks like a statement about the user.
func IsFactBearing(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range factMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// CaptureFact stores text verbatim as a fact when it is fact-bearing. It
// issues at most one store call and reports whether one was made.
func (g *Gateway) CaptureFact(ctx context.Context, userID, text string) bool {
	if !IsFactBearing(text) {
		return false
	}
	if g.StoreFact(ctx, userID, text) {
		g.metrics.IncFactsStored()
	}
	return true
}
