// Package classify is the classification/drafting collaborator: given a lead
// it returns a classification tag and a drafted follow-up email, via an
// OpenAI-compatible chat-completions API. A rule-based router decides which
// model (if any) handles the message.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	laerrors "github.com/bishwajitSingh123/lead-agent/pkg/errors"
	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
)

// Classification is the structured result of classifying a lead.
type Classification struct {
	Category   string   `json:"category"`
	Intent     string   `json:"intent"`
	Urgency    string   `json:"urgency"`
	Concerns   []string `json:"concerns"`
	NextAction string   `json:"next_action"`
	Reasoning  string   `json:"reasoning"`
}

// Result is what the review controller consumes: the persisted tag, the
// drafted follow-up, and the full classification for display.
type Result struct {
	Tag            string
	Draft          string
	Classification Classification
}

// Classifier produces a classification tag and a follow-up draft for a lead.
type Classifier interface {
	ClassifyAndDraft(ctx context.Context, l lead.Lead) (Result, error)
}

// completer abstracts the chat client so tests can script responses.
type completer interface {
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// LLMClassifier implements Classifier against a chat-completions endpoint
// with retries and a rule-based model router.
type LLMClassifier struct {
	client completer
	cfg    Config
	log    logging.Logger

	// backoff is swapped out in tests to avoid real backoff delays.
	backoff func(ctx context.Context, d time.Duration) error
}

// waitBackoff blocks for d or until ctx is cancelled, whichever comes first.
func waitBackoff(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewLLMClassifier creates a classifier using the given client configuration.
func NewLLMClassifier(cfg Config, log logging.Logger) *LLMClassifier {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &LLMClassifier{
		client:  NewClient(cfg),
		cfg:     cfg,
		log:     log,
		backoff: waitBackoff,
	}
}

// ClassifyAndDraft classifies the lead and generates its follow-up draft.
// Transport failures after all retries are generation errors; the caller
// defers the lead. A response whose JSON cannot be parsed degrades to a
// fallback classification rather than losing the lead.
func (c *LLMClassifier) ClassifyAndDraft(ctx context.Context, l lead.Lead) (Result, error) {
	route := RouteMessage(l.Message)
	model := c.modelFor(route)
	log := c.log.With(logging.F("lead_id", l.ID), logging.F("route", string(route)))

	var cls Classification
	if route == RouteRuleBased {
		cls = ruleBasedClassification()
		log.Debug("classified without model call")
	} else {
		text, err := c.completeWithRetry(ctx, model, ClassificationPrompt(l))
		if err != nil {
			return Result{}, fmt.Errorf("classifying lead %s: %w: %v", l.ID, laerrors.ErrGeneration, err)
		}
		parsed, ok := parseClassification(text)
		if !ok {
			log.Warn("classification response was not valid JSON, using fallback")
			parsed = fallbackClassification()
		}
		cls = parsed
		log.Info("lead classified", logging.F("category", cls.Category))
	}

	draft, err := c.completeWithRetry(ctx, model, FollowupPrompt(l, cls))
	if err != nil {
		return Result{}, fmt.Errorf("drafting follow-up for lead %s: %w: %v", l.ID, laerrors.ErrGeneration, err)
	}
	draft = strings.TrimSpace(draft)
	if draft == "" {
		return Result{}, fmt.Errorf("empty draft for lead %s: %w", l.ID, laerrors.ErrGeneration)
	}

	return Result{
		Tag:            cls.Category,
		Draft:          draft,
		Classification: cls,
	}, nil
}

// modelFor maps a route to a model name.
func (c *LLMClassifier) modelFor(route Route) string {
	if route == RouteLargeModel && c.cfg.LargeModel != "" {
		return c.cfg.LargeModel
	}
	return c.cfg.SmallModel
}

// completeWithRetry calls the model with exponential backoff between
// attempts. Context cancellation stops retrying immediately.
func (c *LLMClassifier) completeWithRetry(ctx context.Context, model, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, time.Duration(1<<(attempt-1))*time.Second); err != nil {
				return "", err
			}
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := c.client.Complete(ctx, model, systemPrompt, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.log.Warn("model call failed",
			logging.F("model", model),
			logging.F("attempt", attempt+1),
			logging.F("max_attempts", c.cfg.MaxRetries+1),
			logging.Err(err))
		if ctx.Err() != nil {
			return "", err
		}
	}
	return "", lastErr
}

// parseClassification extracts and unmarshals the JSON classification.
func parseClassification(text string) (Classification, bool) {
	raw, ok := extractJSON(text)
	if !ok {
		return Classification{}, false
	}
	var cls Classification
	if err := json.Unmarshal([]byte(raw), &cls); err != nil {
		return Classification{}, false
	}
	if cls.Category == "" {
		return Classification{}, false
	}
	return cls, true
}

// fallbackClassification is used when the model answered but the JSON could
// not be parsed. Warm keeps the lead in front of a human.
func fallbackClassification() Classification {
	return Classification{
		Category:   "Warm",
		Intent:     "Unknown",
		Urgency:    "Unknown",
		NextAction: "Manual review needed",
		Reasoning:  "Automated classification failed",
	}
}

// ruleBasedClassification covers trivial greeting-level messages that never
// reach a model.
func ruleBasedClassification() Classification {
	return Classification{
		Category:   "Cold",
		Intent:     "Greeting or pleasantry",
		Urgency:    "Unknown",
		NextAction: "Send a light follow-up",
		Reasoning:  "Message matched trivial patterns, no model call needed",
	}
}
