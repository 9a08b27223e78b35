package classify

import "strings"

// Route selects how a lead message is handled by the classifier.
type Route string

const (
	// RouteRuleBased classifies without an LLM call; the message is a
	// trivial greeting or pleasantry.
	RouteRuleBased Route = "rule_based"
	// RouteSmallModel uses the fast model for routine messages.
	RouteSmallModel Route = "small_model"
	// RouteLargeModel uses the heavier model for messages that need real
	// reasoning.
	RouteLargeModel Route = "large_model"
)

// trivialPatterns mark messages that don't warrant a model call.
var trivialPatterns = []string{
	"hi",
	"hello",
	"thanks",
	"thank you",
	"bye",
}

// heavyPatterns mark messages that benefit from the larger model.
var heavyPatterns = []string{
	"analyze",
	"compare",
	"research",
	"plan",
	"strategy",
	"summarize document",
}

// RouteMessage picks a route for a lead message. Trivial one-liners bypass
// the LLM entirely; heavy-reasoning requests escalate to the large model;
// everything else takes the small model.
func RouteMessage(message string) Route {
	msg := strings.ToLower(strings.TrimSpace(message))

	if isTrivial(msg) {
		return RouteRuleBased
	}

	for _, p := range heavyPatterns {
		if strings.Contains(msg, p) {
			return RouteLargeModel
		}
	}

	return RouteSmallModel
}

// isTrivial reports whether the whole message is a greeting-level phrase.
// Substring matching would misfire ("hi" in "shipping"), so trivial routes
// require the message to consist only of trivial words and punctuation.
func isTrivial(msg string) bool {
	if msg == "" {
		return true
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '!', '.', ',', '?':
			return ' '
		}
		return r
	}, msg)
	fields := strings.Fields(cleaned)
	if len(fields) == 0 || len(fields) > 4 {
		return false
	}
	rest := strings.Join(fields, " ")
	for _, p := range trivialPatterns {
		rest = strings.ReplaceAll(rest, p, "")
	}
	return strings.TrimSpace(rest) == ""
}
