// Package lead defines the lead domain model: the immutable inbound lead
// record, its mutable processing state, and the status transition rules the
// review pipeline enforces.
package lead

import (
	"fmt"
	"time"

	laerrors "github.com/bishwajitSingh123/lead-agent/pkg/errors"
)

// Status defines the processing status of a lead.
type Status string

const (
	// StatusPending indicates the lead has been loaded but not yet classified.
	StatusPending Status = "pending"
	// StatusClassified indicates a classification and draft have been generated.
	StatusClassified Status = "classified"
	// StatusApproved indicates the operator approved the draft without sending.
	StatusApproved Status = "approved"
	// StatusSent indicates the follow-up email was delivered.
	StatusSent Status = "sent"
	// StatusRejected indicates the operator rejected the lead.
	StatusRejected Status = "rejected"
	// StatusSkipped indicates the operator deferred the lead to a later run.
	StatusSkipped Status = "skipped"
)

// ParseStatus converts a stored status string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusClassified, StatusApproved, StatusSent, StatusRejected, StatusSkipped:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status %q: %w", s, laerrors.ErrMalformedRecord)
	}
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusRejected
}

// Reviewable reports whether a lead in this status should be offered for
// review on the next run. Classified is included so a lead whose draft was
// committed right before an interrupted run is presented again instead of
// being stranded; its kept draft prevents re-generation.
func (s Status) Reviewable() bool {
	return s == StatusPending || s == StatusClassified || s == StatusSkipped
}

// transitions is the allowed state machine. Statuses are monotonic except
// for skipped, which can re-enter the review flow.
var transitions = map[Status][]Status{
	StatusPending:    {StatusClassified, StatusSkipped, StatusRejected},
	StatusClassified: {StatusApproved, StatusSent, StatusRejected, StatusSkipped},
	StatusApproved:   {StatusSent, StatusRejected, StatusSkipped},
	StatusSkipped:    {StatusClassified, StatusApproved, StatusSent, StatusRejected},
	StatusSent:       nil,
	StatusRejected:   nil,
}

// CanTransition reports whether moving from s to next is a legal transition.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Lead is an immutable inbound prospect record. All descriptive fields are
// opaque text to the pipeline.
type Lead struct {
	ID         string `json:"lead_id" yaml:"lead_id"`
	Name       string `json:"name" yaml:"name"`
	Email      string `json:"email" yaml:"email"`
	Message    string `json:"message" yaml:"message"`
	Source     string `json:"source" yaml:"source"`
	ReceivedAt string `json:"received_at" yaml:"received_at"`
}

// State is the mutable processing state of a lead, keyed by lead ID.
// It is the durable audit trail: created once, mutated only by the review
// controller, never deleted.
type State struct {
	LeadID            string    `json:"lead_id" yaml:"lead_id"`
	Status            Status    `json:"status" yaml:"status"`
	DraftText         string    `json:"draft_text" yaml:"draft_text"`
	ClassificationTag string    `json:"classification_tag" yaml:"classification_tag"`
	DecisionReason    string    `json:"decision_reason,omitempty" yaml:"decision_reason,omitempty"`
	UpdatedAt         time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewState creates the initial pending state for a lead seen for the first time.
func NewState(leadID string, now time.Time) State {
	return State{
		LeadID:    leadID,
		Status:    StatusPending,
		UpdatedAt: now.UTC(),
	}
}

// Transition returns a copy of the state moved to next, stamped with now.
// It fails when the transition is illegal or when a status requiring draft
// content would be entered without one.
func (st State) Transition(next Status, now time.Time) (State, error) {
	if !st.Status.CanTransition(next) {
		return State{}, fmt.Errorf("lead %s: %s -> %s: %w",
			st.LeadID, st.Status, next, laerrors.ErrInvalidState)
	}
	if (next == StatusApproved || next == StatusSent) && st.DraftText == "" {
		return State{}, fmt.Errorf("lead %s: %s requires a draft: %w",
			st.LeadID, next, laerrors.ErrInvalidState)
	}
	st.Status = next
	st.UpdatedAt = now.UTC()
	return st, nil
}

// Classified reports whether generation already happened for this lead, in
// which case the classifier must not be invoked again.
func (st State) Classified() bool {
	return st.DraftText != "" && st.ClassificationTag != ""
}
