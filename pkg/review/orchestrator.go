package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	laerrors "github.com/bishwajitSingh123/lead-agent/pkg/errors"
	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
)

// Summary counts the outcomes of one review pass.
type Summary struct {
	Total    int `json:"total" yaml:"total"`
	Reviewed int `json:"reviewed" yaml:"reviewed"`
	Approved int `json:"approved" yaml:"approved"`
	Sent     int `json:"sent" yaml:"sent"`
	Rejected int `json:"rejected" yaml:"rejected"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Deferred int `json:"deferred" yaml:"deferred"`
	Failed   int `json:"failed" yaml:"failed"`
}

// Runner owns one review pass: it loads leads and state, selects the leads
// still needing review, and invokes the controller once per lead in load
// order. It is the only component with global control flow.
type Runner struct {
	store      Store
	controller *Controller
	log        logging.Logger
}

// NewRunner wires a run orchestrator.
func NewRunner(store Store, controller *Controller, log logging.Logger) *Runner {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Runner{
		store:      store,
		controller: controller,
		log:        log,
	}
}

// Run performs one pass over every lead lacking a terminal state. A failure
// on one lead is logged and does not stop the others; persistence failures
// and cancellation abort the run, leaving the last committed save as the
// durable truth.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	log := r.log.With(logging.F("run_id", uuid.NewString()))

	leads, err := r.store.LoadLeads()
	if err != nil {
		return Summary{}, fmt.Errorf("loading leads: %w", err)
	}
	states, err := r.store.LoadStates()
	if err != nil {
		return Summary{}, fmt.Errorf("loading state: %w", err)
	}

	r.reportOrphans(log, leads, states)

	summary := Summary{Total: len(leads)}
	for _, l := range leads {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled", logging.F("reviewed", summary.Reviewed))
			return summary, err
		}

		st, ok := states[l.ID]
		if !ok {
			st = lead.NewState(l.ID, r.controller.now())
		}
		if !st.Status.Reviewable() {
			continue
		}

		next, outcome, err := r.controller.ProcessLead(ctx, l, st)
		if err != nil {
			if laerrors.IsPersistence(err) || errors.Is(err, context.Canceled) {
				return summary, err
			}
			log.Error("lead processing failed",
				logging.F("lead_id", l.ID), logging.Err(err))
			summary.Failed++
			continue
		}

		states[l.ID] = next
		summary.Reviewed++
		switch outcome {
		case OutcomeApproved:
			summary.Approved++
		case OutcomeSent:
			summary.Sent++
		case OutcomeRejected:
			summary.Rejected++
		case OutcomeSkipped:
			summary.Skipped++
		case OutcomeDeferred:
			summary.Deferred++
		}
	}

	log.Info("review pass complete",
		logging.F("total", summary.Total),
		logging.F("reviewed", summary.Reviewed),
		logging.F("approved", summary.Approved),
		logging.F("sent", summary.Sent),
		logging.F("rejected", summary.Rejected),
		logging.F("skipped", summary.Skipped),
		logging.F("deferred", summary.Deferred),
		logging.F("failed", summary.Failed))
	return summary, nil
}

// Pending returns the leads that would be offered for review, in load order,
// without classifying or prompting.
func (r *Runner) Pending() ([]lead.Lead, error) {
	leads, err := r.store.LoadLeads()
	if err != nil {
		return nil, fmt.Errorf("loading leads: %w", err)
	}
	states, err := r.store.LoadStates()
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}

	var pending []lead.Lead
	for _, l := range leads {
		st, ok := states[l.ID]
		if !ok || st.Status.Reviewable() {
			pending = append(pending, l)
		}
	}
	return pending, nil
}

// reportOrphans logs state rows whose lead no longer appears in the leads
// file. They stay in the audit trail but are never orchestrated.
func (r *Runner) reportOrphans(log logging.Logger, leads []lead.Lead, states map[string]lead.State) {
	known := make(map[string]bool, len(leads))
	for _, l := range leads {
		known[l.ID] = true
	}
	for id := range states {
		if !known[id] {
			log.Debug("state row has no matching lead, leaving inert", logging.F("lead_id", id))
		}
	}
}
