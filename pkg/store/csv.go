// Package store persists leads and their processing state as CSV tables.
//
// The leads file is the immutable inbound record set; the state file is the
// durable audit trail. Every state write rewrites the whole table through a
// temp-file rename so a crash between decisions cannot corrupt previously
// committed rows, and writing the same state twice is byte-for-byte
// idempotent.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	laerrors "github.com/bishwajitSingh123/lead-agent/pkg/errors"
	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
)

// Column layouts. The first row of each file is a header.
var (
	leadsHeader = []string{"lead_id", "name", "email", "message", "source", "received_at"}
	stateHeader = []string{"lead_id", "status", "draft_text", "classification_tag", "decision_reason", "updated_at"}
)

// CSVStore loads leads and persists per-lead state to CSV files.
type CSVStore struct {
	leadsPath string
	statePath string
	draftsDir string
	log       logging.Logger

	mu     sync.Mutex
	states map[string]lead.State
}

// New creates a CSVStore reading leads from leadsPath and persisting state to
// statePath. Approved drafts are additionally written under draftsDir when it
// is non-empty.
func New(leadsPath, statePath, draftsDir string, log logging.Logger) *CSVStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &CSVStore{
		leadsPath: leadsPath,
		statePath: statePath,
		draftsDir: draftsDir,
		log:       log,
	}
}

// LoadLeads reads the full immutable lead set in file order. Unparsable rows
// and duplicate lead IDs are warned and skipped; a missing or unreadable
// leads file is fatal.
func (s *CSVStore) LoadLeads() ([]lead.Lead, error) {
	f, err := os.Open(s.leadsPath)
	if err != nil {
		return nil, fmt.Errorf("opening leads file %s: %w", s.leadsPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading leads header: %w", err)
	}
	if err := checkHeader(header, leadsHeader); err != nil {
		return nil, fmt.Errorf("leads file %s: %w", s.leadsPath, err)
	}

	var leads []lead.Lead
	seen := make(map[string]bool)
	for row := 2; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.log.Warn("skipping malformed lead row",
				logging.F("row", row), logging.Err(err))
			continue
		}
		id := strings.TrimSpace(record[0])
		if id == "" {
			s.log.Warn("skipping lead row with empty lead_id", logging.F("row", row))
			continue
		}
		if seen[id] {
			s.log.Warn("skipping duplicate lead row",
				logging.F("row", row), logging.F("lead_id", id))
			continue
		}
		seen[id] = true
		leads = append(leads, lead.Lead{
			ID:         id,
			Name:       record[1],
			Email:      record[2],
			Message:    record[3],
			Source:     record[4],
			ReceivedAt: record[5],
		})
	}

	s.log.Info("leads loaded", logging.F("count", len(leads)), logging.F("file", s.leadsPath))
	return leads, nil
}

// LoadStates reads prior persisted state keyed by lead ID. An absent state
// file means a fresh start and yields an empty map. Rows that cannot be
// parsed, and rows duplicating a lead ID, are warned and skipped.
func (s *CSVStore) LoadStates() (map[string]lead.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := make(map[string]lead.State)

	f, err := os.Open(s.statePath)
	if errors.Is(err, os.ErrNotExist) {
		s.states = states
		return s.snapshotLocked(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening state file %s: %w", s.statePath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		// Empty file behaves like an absent one.
		s.states = states
		return s.snapshotLocked(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state header: %w", err)
	}
	if err := checkHeader(header, stateHeader); err != nil {
		return nil, fmt.Errorf("state file %s: %w", s.statePath, err)
	}

	for row := 2; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.log.Warn("skipping malformed state row",
				logging.F("row", row), logging.Err(err))
			continue
		}
		st, err := parseStateRecord(record)
		if err != nil {
			s.log.Warn("skipping malformed state row",
				logging.F("row", row), logging.Err(err))
			continue
		}
		if _, dup := states[st.LeadID]; dup {
			s.log.Warn("skipping duplicate state row",
				logging.F("row", row), logging.F("lead_id", st.LeadID))
			continue
		}
		states[st.LeadID] = st
	}

	s.states = states
	return s.snapshotLocked(), nil
}

// SaveState upserts a single lead's state and durably persists the entire
// state table. Safe to call repeatedly for the same lead ID. Any failure to
// reach durable storage is a persistence error and fatal to the run.
func (s *CSVStore) SaveState(st lead.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.LeadID == "" {
		return fmt.Errorf("state without lead_id: %w", laerrors.ErrPersistence)
	}
	if s.states == nil {
		s.states = make(map[string]lead.State)
	}
	prev, existed := s.states[st.LeadID]
	s.states[st.LeadID] = st

	if err := s.writeTableLocked(); err != nil {
		// Roll the in-memory table back so memory never claims more than disk.
		if existed {
			s.states[st.LeadID] = prev
		} else {
			delete(s.states, st.LeadID)
		}
		return fmt.Errorf("persisting state for lead %s: %w: %v",
			st.LeadID, laerrors.ErrPersistence, err)
	}
	return nil
}

// writeTableLocked rewrites the whole state table atomically: the new table
// is written to a temp file in the same directory, synced, then renamed over
// the old one. Rows are sorted by lead_id so repeated writes are byte-stable.
func (s *CSVStore) writeTableLocked() error {
	dir := filepath.Dir(s.statePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := csv.NewWriter(tmp)
	if err := w.Write(stateHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state header: %w", err)
	}
	for _, id := range ids {
		st := s.states[id]
		record := []string{
			st.LeadID,
			string(st.Status),
			st.DraftText,
			st.ClassificationTag,
			st.DecisionReason,
			formatTime(st.UpdatedAt),
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("writing state row for %s: %w", id, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing state table: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing state table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.statePath); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// SaveDraftFile writes an approved draft to the drafts directory as
// lead_<id>_<name>.txt and returns the path. Callers treat failures as
// non-fatal; the CSV state table remains the source of truth.
func (s *CSVStore) SaveDraftFile(l lead.Lead, draft string) (string, error) {
	if s.draftsDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(s.draftsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating drafts directory: %w", err)
	}
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(l.Name), " ", "_"))
	if name == "" {
		name = "unknown"
	}
	path := filepath.Join(s.draftsDir, fmt.Sprintf("lead_%s_%s.txt", l.ID, name))
	if err := os.WriteFile(path, []byte(draft), 0o644); err != nil {
		return "", fmt.Errorf("writing draft file: %w", err)
	}
	return path, nil
}

// parseStateRecord converts one CSV record into a State.
func parseStateRecord(record []string) (lead.State, error) {
	id := strings.TrimSpace(record[0])
	if id == "" {
		return lead.State{}, fmt.Errorf("empty lead_id: %w", laerrors.ErrMalformedRecord)
	}
	status, err := lead.ParseStatus(record[1])
	if err != nil {
		return lead.State{}, err
	}
	var updatedAt time.Time
	if ts := strings.TrimSpace(record[5]); ts != "" {
		updatedAt, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return lead.State{}, fmt.Errorf("bad updated_at %q: %w", ts, laerrors.ErrMalformedRecord)
		}
	}
	return lead.State{
		LeadID:            id,
		Status:            status,
		DraftText:         record[2],
		ClassificationTag: record[3],
		DecisionReason:    record[4],
		UpdatedAt:         updatedAt.UTC(),
	}, nil
}

// checkHeader verifies the file header matches the expected column layout.
func checkHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("header has %d columns, want %d: %w",
			len(got), len(want), laerrors.ErrMalformedRecord)
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return fmt.Errorf("header column %d is %q, want %q: %w",
				i+1, got[i], want[i], laerrors.ErrMalformedRecord)
		}
	}
	return nil
}

// snapshotLocked returns a copy of the in-memory state table so callers
// cannot mutate the store's cache.
func (s *CSVStore) snapshotLocked() map[string]lead.State {
	out := make(map[string]lead.State, len(s.states))
	for id, st := range s.states {
		out[id] = st
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
