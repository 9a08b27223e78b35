package cmd

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bishwajitSingh123/lead-agent/config"
	"github.com/bishwajitSingh123/lead-agent/pkg/classify"
	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
	"github.com/bishwajitSingh123/lead-agent/pkg/review"
)

// memStore is an in-memory review.Store for command tests.
type memStore struct {
	leads  []lead.Lead
	states map[string]lead.State
}

func newMemStore(leads ...lead.Lead) *memStore {
	return &memStore{leads: leads, states: make(map[string]lead.State)}
}

func (m *memStore) LoadLeads() ([]lead.Lead, error) { return m.leads, nil }

func (m *memStore) LoadStates() (map[string]lead.State, error) {
	out := make(map[string]lead.State, len(m.states))
	for k, v := range m.states {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) SaveState(st lead.State) error {
	m.states[st.LeadID] = st
	return nil
}

func (m *memStore) SaveDraftFile(l lead.Lead, draft string) (string, error) {
	return "", nil
}

// stubClassifier returns a fixed classification for every lead.
type stubClassifier struct {
	tag   string
	draft string
	calls int
}

func (s *stubClassifier) ClassifyAndDraft(ctx context.Context, l lead.Lead) (classify.Result, error) {
	s.calls++
	return classify.Result{Tag: s.tag, Draft: s.draft}, nil
}

// recordingDispatcher records sends and optionally fails.
type recordingDispatcher struct {
	err   error
	sends []string
}

func (d *recordingDispatcher) Send(to, subject, body string) error {
	if d.err != nil {
		return d.err
	}
	d.sends = append(d.sends, to)
	return nil
}

// stubSecrets is an in-memory SecretStore.
type stubSecrets struct {
	values map[string]string
}

func (s *stubSecrets) Get(name string) (string, error) {
	v, ok := s.values[name]
	if !ok {
		return "", fmt.Errorf("secret %s not stored", name)
	}
	return v, nil
}

func (s *stubSecrets) GetOptional(name string) (string, error) {
	return s.values[name], nil
}

func (s *stubSecrets) Set(name, value string) error {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[name] = value
	return nil
}

func (s *stubSecrets) Delete(name string) error {
	delete(s.values, name)
	return nil
}

// testConfig returns a minimal valid config for command tests.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.Username = "agent@example.com"
	return cfg
}

func storeFactory(m *memStore) func(*config.Config, logging.Logger) review.Store {
	return func(*config.Config, logging.Logger) review.Store { return m }
}

// execute runs a command with args and returns its combined output.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var testLeads = []lead.Lead{
	{ID: "L-1001", Name: "Ada Lovelace", Email: "ada@example.com", Message: "We'd love a demo", Source: "website", ReceivedAt: "2025-01-06T09:15:00Z"},
	{ID: "L-1002", Name: "Grace Hopper", Email: "grace@example.com", Message: "Pricing for 50 seats?", Source: "referral"},
}

func approvedState(leadID string) lead.State {
	return lead.State{
		LeadID:            leadID,
		Status:            lead.StatusApproved,
		DraftText:         "Subject: Hello\n\nBody text.",
		ClassificationTag: "Hot",
		UpdatedAt:         time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}
