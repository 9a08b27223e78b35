package classify

import (
	"fmt"
	"strings"

	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
)

// systemPrompt anchors every completion call.
const systemPrompt = "You are a helpful sales assistant."

// ClassificationPrompt builds the prompt that asks the model to classify an
// inbound lead and answer in strict JSON.
func ClassificationPrompt(l lead.Lead) string {
	return fmt.Sprintf(`You are a sales assistant analyzing incoming leads.

Lead Information:
- Name: %s
- Email: %s
- Message: %s
- Source: %s

Analyze and classify this lead:

1. Category: Hot/Warm/Cold
   - Hot: Clear intent, budget indicators, urgent timeline
   - Warm: Interested but needs nurturing
   - Cold: Generic inquiry, low intent

2. Intent: What do they actually want?

3. Urgency: Immediate / This Week / This Month / Unknown

4. Key Concerns: Any objections or blockers mentioned?

5. Next Best Action: What should we do next?

Respond ONLY in this JSON format (no other text):
{
  "category": "Hot/Warm/Cold",
  "intent": "brief description",
  "urgency": "timeline",
  "concerns": ["list", "of", "concerns"],
  "next_action": "suggested action",
  "reasoning": "why you classified this way"
}`, l.Name, l.Email, l.Message, l.Source)
}

// FollowupPrompt builds the prompt that asks the model for the follow-up
// email draft. The response is expected to begin with a "Subject:" line.
func FollowupPrompt(l lead.Lead, cls Classification) string {
	return fmt.Sprintf(`You are a professional sales assistant writing a follow-up email.

Lead Details:
- Name: %s
- Their Message: %s
- Classification: %s
- Intent: %s
- Urgency: %s

Write a personalized follow-up email that:
1. Addresses their specific inquiry directly
2. Builds credibility: "I build production-grade AI systems (medical imaging, clinical-grade pipelines)"
3. Suggests a clear next step based on urgency
4. Professional but warm and human tone
5. Keep it concise: 3-4 short paragraphs

Format your response as:
Subject: [compelling subject line]

Dear %s,

[Email body - be specific to their message]

Best regards,
Bishwajit Singh

Respond with ONLY the email (subject + body), no other text.`,
		l.Name, l.Message, cls.Category, cls.Intent, cls.Urgency, l.Name)
}

// extractJSON returns the substring between the first '{' and the last '}'.
// Models occasionally wrap the JSON in prose or markdown fences.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
