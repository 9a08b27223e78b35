package review

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bishwajitSingh123/lead-agent/pkg/classify"
	laerrors "github.com/bishwajitSingh123/lead-agent/pkg/errors"
	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
)

// fakeStore is an in-memory Store recording every save.
type fakeStore struct {
	leads   []lead.Lead
	states  map[string]lead.State
	saves   []lead.State
	saveErr error
	drafts  map[string]string
}

func newFakeStore(leads ...lead.Lead) *fakeStore {
	return &fakeStore{
		leads:  leads,
		states: make(map[string]lead.State),
		drafts: make(map[string]string),
	}
}

func (f *fakeStore) LoadLeads() ([]lead.Lead, error) {
	return f.leads, nil
}

func (f *fakeStore) LoadStates() (map[string]lead.State, error) {
	out := make(map[string]lead.State, len(f.states))
	for k, v := range f.states {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) SaveState(st lead.State) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.states[st.LeadID] = st
	f.saves = append(f.saves, st)
	return nil
}

func (f *fakeStore) SaveDraftFile(l lead.Lead, draft string) (string, error) {
	f.drafts[l.ID] = draft
	return "drafts/lead_" + l.ID + ".txt", nil
}

// fakeClassifier counts invocations and returns a fixed result or error.
type fakeClassifier struct {
	result classify.Result
	err    error
	calls  int
}

func (f *fakeClassifier) ClassifyAndDraft(ctx context.Context, l lead.Lead) (classify.Result, error) {
	f.calls++
	if f.err != nil {
		return classify.Result{}, f.err
	}
	return f.result, nil
}

// fakeDispatcher records sends and optionally fails.
type fakeDispatcher struct {
	err   error
	sends []string
}

func (f *fakeDispatcher) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, to)
	return nil
}

// scriptedPrompter replays a fixed sequence of decisions.
type scriptedPrompter struct {
	decisions []Decision
	presented int
}

func (s *scriptedPrompter) Present(l lead.Lead, st lead.State) (Decision, error) {
	if s.presented >= len(s.decisions) {
		return Decision{}, fmt.Errorf("prompter exhausted after %d decisions", s.presented)
	}
	d := s.decisions[s.presented]
	s.presented++
	return d, nil
}

var (
	leadOne = lead.Lead{ID: "T1", Name: "Test Lead", Email: "t1@example.com", Message: "I want a demo", Source: "web"}

	generated = classify.Result{
		Tag:   "Hot",
		Draft: "Subject: Demo\n\nDear Test Lead,\nhappy to show you.",
	}
)

func newHarness(cls *fakeClassifier, disp *fakeDispatcher, decisions ...Decision) (*Controller, *fakeStore, *scriptedPrompter) {
	store := newFakeStore(leadOne)
	prompter := &scriptedPrompter{decisions: decisions}
	c := NewController(store, cls, disp, prompter, logging.NewNopLogger())
	c.now = func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) }
	return c, store, prompter
}

func freshState() lead.State {
	return lead.NewState(leadOne.ID, time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC))
}

func TestApproveDoesNotDispatch(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	disp := &fakeDispatcher{}
	c, store, _ := newHarness(cls, disp, Decision{Action: ActionApprove})

	st, outcome, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, outcome)
	assert.Equal(t, lead.StatusApproved, st.Status)
	assert.NotEmpty(t, st.DraftText)
	assert.Empty(t, disp.sends, "approve must not invoke the dispatcher")

	// Classification commit plus approval commit.
	require.Len(t, store.saves, 2)
	assert.Equal(t, lead.StatusClassified, store.saves[0].Status)
	assert.Equal(t, lead.StatusApproved, store.saves[1].Status)
	assert.Equal(t, generated.Draft, store.drafts[leadOne.ID])
}

func TestSendSuccess(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	disp := &fakeDispatcher{}
	c, store, _ := newHarness(cls, disp, Decision{Action: ActionSend})

	st, outcome, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
	assert.Equal(t, lead.StatusSent, st.Status)
	assert.Equal(t, []string{"t1@example.com"}, disp.sends)

	// Draft is durably approved before the network side effect.
	require.GreaterOrEqual(t, len(store.saves), 3)
	assert.Equal(t, lead.StatusApproved, store.saves[1].Status)
	assert.Equal(t, lead.StatusSent, store.saves[2].Status)
}

func TestSendFailureStaysApproved(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	disp := &fakeDispatcher{err: fmt.Errorf("smtp: %w", laerrors.ErrDelivery)}
	c, store, _ := newHarness(cls, disp, Decision{Action: ActionSend})

	st, outcome, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, outcome)
	assert.Equal(t, lead.StatusApproved, st.Status)
	assert.Equal(t, generated.Draft, st.DraftText, "draft must be unchanged")
	assert.Contains(t, st.DecisionReason, "delivery failed")

	final := store.states[leadOne.ID]
	assert.Equal(t, lead.StatusApproved, final.Status, "a failed send must never advance to sent")
}

func TestEditSaveOnly(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	disp := &fakeDispatcher{}
	c, store, _ := newHarness(cls, disp, Decision{
		Action:     ActionEdit,
		EditedText: "  Subject: Reworked\n\nNew body.  ",
	})

	st, outcome, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, outcome)
	assert.Equal(t, lead.StatusApproved, st.Status)
	assert.Equal(t, "Subject: Reworked\n\nNew body.", st.DraftText, "edit text is trimmed before storage")
	assert.Empty(t, disp.sends)
	assert.Equal(t, st.DraftText, store.states[leadOne.ID].DraftText)
}

func TestEditAndSend(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	disp := &fakeDispatcher{}
	c, _, _ := newHarness(cls, disp, Decision{
		Action:     ActionEdit,
		EditedText: "Subject: Reworked\n\nNew body.",
		SendEdited: true,
	})

	st, outcome, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
	assert.Equal(t, lead.StatusSent, st.Status)
	assert.Equal(t, "Subject: Reworked\n\nNew body.", st.DraftText)
	assert.Equal(t, []string{"t1@example.com"}, disp.sends)
}

func TestEmptyEditIsNoOp(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	disp := &fakeDispatcher{}
	c, _, prompter := newHarness(cls, disp,
		Decision{Action: ActionEdit, EditedText: "   "},
		Decision{Action: ActionApprove},
	)

	st, outcome, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, outcome)
	assert.Equal(t, generated.Draft, st.DraftText, "original draft must survive an empty edit")
	assert.Equal(t, 2, prompter.presented, "menu is re-offered after the no-op edit")
}

func TestRejectRecordsReason(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	c, store, _ := newHarness(cls, &fakeDispatcher{}, Decision{Action: ActionReject, Reason: " not a fit "})

	st, outcome, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome)
	assert.Equal(t, lead.StatusRejected, st.Status)
	assert.Equal(t, "not a fit", st.DecisionReason)
	assert.Equal(t, lead.StatusRejected, store.states[leadOne.ID].Status)
}

func TestSkipKeepsDraft(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	c, _, _ := newHarness(cls, &fakeDispatcher{}, Decision{Action: ActionSkip})

	st, outcome, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, lead.StatusSkipped, st.Status)
	assert.Equal(t, generated.Draft, st.DraftText, "skip must not mutate the draft")
}

func TestGenerationFailureDefers(t *testing.T) {
	cls := &fakeClassifier{err: fmt.Errorf("llm down: %w", laerrors.ErrGeneration)}
	c, store, prompter := newHarness(cls, &fakeDispatcher{})

	st, outcome, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeferred, outcome)
	assert.Equal(t, lead.StatusPending, st.Status, "status must be unchanged on generation failure")
	assert.Empty(t, store.saves, "nothing to persist when generation fails")
	assert.Zero(t, prompter.presented, "no review menu without a draft")
}

func TestSkippedLeadIsNotReclassified(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	c, _, _ := newHarness(cls, &fakeDispatcher{}, Decision{Action: ActionApprove})

	st := freshState()
	st.Status = lead.StatusSkipped
	st.DraftText = "Subject: Old\n\nKept draft."
	st.ClassificationTag = "Warm"

	next, outcome, err := c.ProcessLead(context.Background(), leadOne, st)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, outcome)
	assert.Zero(t, cls.calls, "populated draft must not be re-generated")
	assert.Equal(t, "Subject: Old\n\nKept draft.", next.DraftText)
}

func TestClassifiedLeadGoesStraightToReview(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	c, store, _ := newHarness(cls, &fakeDispatcher{}, Decision{Action: ActionApprove})

	st := freshState()
	st.Status = lead.StatusClassified
	st.DraftText = "Subject: Old\n\nCommitted draft."
	st.ClassificationTag = "Hot"

	next, outcome, err := c.ProcessLead(context.Background(), leadOne, st)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApproved, outcome)
	assert.Zero(t, cls.calls, "committed draft must not be re-generated")
	assert.Equal(t, lead.StatusApproved, next.Status)
	// Only the approve commit; no second classified commit.
	require.Len(t, store.saves, 1)
	assert.Equal(t, lead.StatusApproved, store.saves[0].Status)
}

func TestUnknownActionRepromptsWithoutStateChange(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	c, store, prompter := newHarness(cls, &fakeDispatcher{},
		Decision{Action: Action("banana")},
		Decision{Action: ActionSkip},
	)

	_, outcome, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, 2, prompter.presented)
	// Only the classification commit and the final skip commit.
	require.Len(t, store.saves, 2)
}

func TestPersistenceFailureIsFatal(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	store := newFakeStore(leadOne)
	store.saveErr = fmt.Errorf("disk full: %w", laerrors.ErrPersistence)
	c := NewController(store, cls, &fakeDispatcher{}, &scriptedPrompter{}, logging.NewNopLogger())

	_, _, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.Error(t, err)
	assert.True(t, laerrors.IsPersistence(err))
}

func TestTerminalStatePrecondition(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	c, _, _ := newHarness(cls, &fakeDispatcher{})

	st := freshState()
	st.Status = lead.StatusSent
	st.DraftText = "x"

	_, _, err := c.ProcessLead(context.Background(), leadOne, st)
	require.Error(t, err)
	assert.True(t, laerrors.IsInvalidState(err))
}

func TestPrompterErrorPropagates(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	c, store, _ := newHarness(cls, &fakeDispatcher{}) // exhausted prompter errors immediately

	_, _, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.Error(t, err)
	// The classification commit happened before the prompter failed; that is
	// the durable truth.
	require.Len(t, store.saves, 1)
	assert.Equal(t, lead.StatusClassified, store.saves[0].Status)
}

func TestCancelledContextStopsBeforePresenting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cls := &fakeClassifier{result: generated}
	c, _, prompter := newHarness(cls, &fakeDispatcher{}, Decision{Action: ActionApprove})

	st := freshState()
	st.Status = lead.StatusSkipped
	st.DraftText = "kept"
	st.ClassificationTag = "Warm"

	_, _, err := c.ProcessLead(ctx, leadOne, st)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, prompter.presented)
}

func TestSendClearsPreviousDeliveryFailureNote(t *testing.T) {
	cls := &fakeClassifier{result: generated}
	disp := &fakeDispatcher{}
	c, store, _ := newHarness(cls, disp, Decision{Action: ActionSend})

	st := freshState()
	st.Status = lead.StatusSkipped
	st.DraftText = generated.Draft
	st.ClassificationTag = "Hot"
	st.DecisionReason = "delivery failed: smtp timeout"

	next, outcome, err := c.ProcessLead(context.Background(), leadOne, st)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
	assert.Empty(t, next.DecisionReason)
	assert.Equal(t, lead.StatusSent, store.states[leadOne.ID].Status)
}

func TestGenerationErrorVariantIsNotFatal(t *testing.T) {
	cls := &fakeClassifier{err: errors.New("plain failure without sentinel")}
	c, _, _ := newHarness(cls, &fakeDispatcher{})

	_, outcome, err := c.ProcessLead(context.Background(), leadOne, freshState())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeferred, outcome)
}
