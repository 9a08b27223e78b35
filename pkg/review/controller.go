// Package review implements the lead review loop: the state machine that
// drives one lead from its current status to a terminal or deferred status
// through human decisions, and the orchestrator that runs it over every
// unresolved lead.
package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bishwajitSingh123/lead-agent/pkg/classify"
	laerrors "github.com/bishwajitSingh123/lead-agent/pkg/errors"
	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
	"github.com/bishwajitSingh123/lead-agent/pkg/mail"
)

// Action is an operator decision for a presented lead.
type Action string

const (
	// ActionApprove saves the draft without sending.
	ActionApprove Action = "approve"
	// ActionSend saves the draft and attempts delivery.
	ActionSend Action = "send"
	// ActionEdit replaces the draft with operator-supplied text.
	ActionEdit Action = "edit"
	// ActionReject closes the lead without contact.
	ActionReject Action = "reject"
	// ActionSkip defers the lead to a later run.
	ActionSkip Action = "skip"
)

// Decision is the outcome of presenting one lead to the operator.
type Decision struct {
	Action Action

	// EditedText carries the replacement draft for ActionEdit.
	EditedText string
	// SendEdited requests delivery of the edited draft instead of save-only.
	SendEdited bool

	// Reason is the optional free-text note for ActionReject.
	Reason string
}

// Prompter presents a lead and its current draft to the operator and returns
// the chosen action. Implementations must re-prompt on unrecognized input and
// only return decisions with a known Action.
type Prompter interface {
	Present(l lead.Lead, st lead.State) (Decision, error)
}

// Store is the persistence surface the review loop depends on.
type Store interface {
	LoadLeads() ([]lead.Lead, error)
	LoadStates() (map[string]lead.State, error)
	SaveState(st lead.State) error
	SaveDraftFile(l lead.Lead, draft string) (string, error)
}

// Outcome summarizes how processing one lead ended.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeSent     Outcome = "sent"
	OutcomeRejected Outcome = "rejected"
	OutcomeSkipped  Outcome = "skipped"
	// OutcomeDeferred means generation failed and the lead stays unresolved
	// for a later run.
	OutcomeDeferred Outcome = "deferred"
)

// Controller drives one lead through classification, presentation and a
// single committed transition per decision. Every transition is persisted
// before the next lead is touched.
type Controller struct {
	store      Store
	classifier classify.Classifier
	dispatcher mail.Dispatcher
	prompter   Prompter
	log        logging.Logger

	now func() time.Time
}

// NewController wires a review controller. All collaborators are required
// except the logger.
func NewController(store Store, classifier classify.Classifier, dispatcher mail.Dispatcher, prompter Prompter, log logging.Logger) *Controller {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Controller{
		store:      store,
		classifier: classifier,
		dispatcher: dispatcher,
		prompter:   prompter,
		log:        log,
		now:        time.Now,
	}
}

// ProcessLead reviews a single lead. It must only be called for leads in a
// reviewable status: pending, classified (a draft committed before an
// interrupted run) or skipped. The returned state is the last committed one.
//
// Errors returned here are fatal to the run (persistence failures, prompter
// I/O errors); collaborator failures are absorbed into OutcomeDeferred or a
// recorded delivery failure.
func (c *Controller) ProcessLead(ctx context.Context, l lead.Lead, st lead.State) (lead.State, Outcome, error) {
	if !st.Status.Reviewable() {
		return st, "", fmt.Errorf("lead %s has status %s: %w", l.ID, st.Status, laerrors.ErrInvalidState)
	}
	log := c.log.With(logging.F("lead_id", l.ID))

	// Generate the classification and draft once. A lead skipped in an
	// earlier run keeps its draft and is never re-generated.
	if !st.Classified() {
		res, err := c.classifier.ClassifyAndDraft(ctx, l)
		if err != nil {
			log.Error("generation failed, deferring lead", logging.Err(err))
			return st, OutcomeDeferred, nil
		}
		st.DraftText = res.Draft
		st.ClassificationTag = res.Tag

		next, err := st.Transition(lead.StatusClassified, c.now())
		if err != nil {
			return st, "", err
		}
		if err := c.store.SaveState(next); err != nil {
			return st, "", err
		}
		st = next
		log.Info("draft generated", logging.F("tag", st.ClassificationTag))
	}

	for {
		if err := ctx.Err(); err != nil {
			return st, "", err
		}

		dec, err := c.prompter.Present(l, st)
		if err != nil {
			return st, "", fmt.Errorf("presenting lead %s: %w", l.ID, err)
		}

		switch dec.Action {
		case ActionApprove:
			next, err := c.approve(l, st)
			if err != nil {
				return st, "", err
			}
			return next, OutcomeApproved, nil

		case ActionSend:
			next, outcome, err := c.send(l, st)
			if err != nil {
				return st, "", err
			}
			return next, outcome, nil

		case ActionEdit:
			edited := strings.TrimSpace(dec.EditedText)
			if edited == "" {
				// Empty edit session: back to the menu, draft intact.
				log.Debug("empty edit, keeping original draft")
				continue
			}
			st.DraftText = edited
			if dec.SendEdited {
				next, outcome, err := c.send(l, st)
				if err != nil {
					return st, "", err
				}
				return next, outcome, nil
			}
			next, err := c.approve(l, st)
			if err != nil {
				return st, "", err
			}
			return next, OutcomeApproved, nil

		case ActionReject:
			st.DecisionReason = strings.TrimSpace(dec.Reason)
			next, err := st.Transition(lead.StatusRejected, c.now())
			if err != nil {
				return st, "", err
			}
			if err := c.store.SaveState(next); err != nil {
				return st, "", err
			}
			log.Info("lead rejected", logging.F("reason", next.DecisionReason))
			return next, OutcomeRejected, nil

		case ActionSkip:
			next, err := st.Transition(lead.StatusSkipped, c.now())
			if err != nil {
				return st, "", err
			}
			if err := c.store.SaveState(next); err != nil {
				return st, "", err
			}
			log.Info("lead skipped")
			return next, OutcomeSkipped, nil

		default:
			// Unknown action from a prompter: no transition, present again.
			log.Warn("unrecognized action, re-prompting",
				logging.F("action", string(dec.Action)), logging.Err(laerrors.ErrInvalidInput))
		}
	}
}

// approve commits the draft with status approved. No network side effect.
func (c *Controller) approve(l lead.Lead, st lead.State) (lead.State, error) {
	next, err := st.Transition(lead.StatusApproved, c.now())
	if err != nil {
		return st, err
	}
	if err := c.store.SaveState(next); err != nil {
		return st, err
	}
	c.saveDraftFile(l, next.DraftText)
	c.log.Info("draft approved", logging.F("lead_id", l.ID))
	return next, nil
}

// send commits the draft as approved first, then attempts delivery. A failed
// send records the failure and leaves the lead approved; it never silently
// advances to sent.
func (c *Controller) send(l lead.Lead, st lead.State) (lead.State, Outcome, error) {
	approved, err := c.approve(l, st)
	if err != nil {
		return st, "", err
	}

	subject, body := mail.ParseDraft(approved.DraftText)
	if err := c.dispatcher.Send(l.Email, subject, body); err != nil {
		c.log.Error("delivery failed, draft remains approved",
			logging.F("lead_id", l.ID), logging.Err(err))
		// Status stays approved; only the failure note and timestamp change.
		approved.DecisionReason = fmt.Sprintf("delivery failed: %v", err)
		approved.UpdatedAt = c.now().UTC()
		if serr := c.store.SaveState(approved); serr != nil {
			return approved, "", serr
		}
		return approved, OutcomeApproved, nil
	}

	sent, err := approved.Transition(lead.StatusSent, c.now())
	if err != nil {
		return approved, "", err
	}
	sent.DecisionReason = ""
	if err := c.store.SaveState(sent); err != nil {
		return approved, "", err
	}
	c.log.Info("follow-up sent", logging.F("lead_id", l.ID), logging.F("to", l.Email))
	return sent, OutcomeSent, nil
}

// saveDraftFile mirrors the approved draft to the drafts directory.
// Best-effort: the state table is the source of truth.
func (c *Controller) saveDraftFile(l lead.Lead, draft string) {
	path, err := c.store.SaveDraftFile(l, draft)
	if err != nil {
		c.log.Warn("could not write draft file", logging.F("lead_id", l.ID), logging.Err(err))
		return
	}
	if path != "" {
		c.log.Debug("draft file written", logging.F("path", path))
	}
}
