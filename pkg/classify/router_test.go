package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteMessage(t *testing.T) {
	tests := []struct {
		message string
		want    Route
	}{
		{"hi", RouteRuleBased},
		{"Hello!", RouteRuleBased},
		{"thanks", RouteRuleBased},
		{"Thank you, bye", RouteRuleBased},
		{"", RouteRuleBased},
		{"Please analyze our current vendor contracts", RouteLargeModel},
		{"Can you compare your pricing with competitors?", RouteLargeModel},
		{"We want a strategy for rolling this out", RouteLargeModel},
		{"I'd like a demo of your product", RouteSmallModel},
		{"What does shipping cost?", RouteSmallModel},
		// "hi" embedded in a longer message must not short-circuit.
		{"hi team, I'd like a quote for 50 seats", RouteSmallModel},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, RouteMessage(tt.message), "message %q", tt.message)
	}
}

func TestPromptsIncludeLeadFields(t *testing.T) {
	l := testLead
	p := ClassificationPrompt(l)
	assert.Contains(t, p, l.Name)
	assert.Contains(t, p, l.Email)
	assert.Contains(t, p, l.Message)
	assert.Contains(t, p, l.Source)
	assert.Contains(t, p, `"category"`)

	cls := Classification{Category: "Hot", Intent: "Buy now", Urgency: "Immediate"}
	f := FollowupPrompt(l, cls)
	assert.Contains(t, f, l.Name)
	assert.Contains(t, f, l.Message)
	assert.Contains(t, f, cls.Category)
	assert.Contains(t, f, "Subject:")
}
