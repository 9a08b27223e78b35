package review

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
)

func classifiedState() lead.State {
	return lead.State{
		LeadID:            "T1",
		Status:            lead.StatusClassified,
		DraftText:         "Subject: Demo\n\nDear Test Lead,",
		ClassificationTag: "Hot",
	}
}

func TestConsolePrompterActions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Action
	}{
		{"approve letter", "a\n", ActionApprove},
		{"approve word", "Approve\n", ActionApprove},
		{"send", "S\n", ActionSend},
		{"reject", "r\nduplicate lead\n", ActionReject},
		{"skip", "k\n", ActionSkip},
		{"skip word", "SKIP\n", ActionSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewConsolePrompter(strings.NewReader(tt.input), &out)

			dec, err := p.Present(leadOne, classifiedState())
			require.NoError(t, err)
			assert.Equal(t, tt.want, dec.Action)
		})
	}
}

func TestConsolePrompterRepromptsOnInvalidInput(t *testing.T) {
	var out bytes.Buffer
	p := NewConsolePrompter(strings.NewReader("x\nwhatever\na\n"), &out)

	dec, err := p.Present(leadOne, classifiedState())
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, dec.Action)
	assert.Equal(t, 2, strings.Count(out.String(), "Invalid option"))
}

func TestConsolePrompterShowsDraftAndTag(t *testing.T) {
	var out bytes.Buffer
	p := NewConsolePrompter(strings.NewReader("a\n"), &out)

	_, err := p.Present(leadOne, classifiedState())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Test Lead <t1@example.com>")
	assert.Contains(t, out.String(), "Tag:     Hot")
	assert.Contains(t, out.String(), "Subject: Demo")
}

func TestConsolePrompterEdit(t *testing.T) {
	input := "e\nSubject: Better\n\nNew body.\nEND\ny\n"
	var out bytes.Buffer
	p := NewConsolePrompter(strings.NewReader(input), &out)

	dec, err := p.Present(leadOne, classifiedState())
	require.NoError(t, err)
	assert.Equal(t, ActionEdit, dec.Action)
	assert.Equal(t, "Subject: Better\n\nNew body.", dec.EditedText)
	assert.True(t, dec.SendEdited)
}

func TestConsolePrompterEditSaveOnly(t *testing.T) {
	input := "e\nreplacement text\nEND\n\n"
	var out bytes.Buffer
	p := NewConsolePrompter(strings.NewReader(input), &out)

	dec, err := p.Present(leadOne, classifiedState())
	require.NoError(t, err)
	assert.Equal(t, "replacement text", dec.EditedText)
	assert.False(t, dec.SendEdited, "default answer is save-only")
}

func TestConsolePrompterEmptyEdit(t *testing.T) {
	var out bytes.Buffer
	p := NewConsolePrompter(strings.NewReader("e\nEND\n"), &out)

	dec, err := p.Present(leadOne, classifiedState())
	require.NoError(t, err)
	assert.Equal(t, ActionEdit, dec.Action)
	assert.Empty(t, dec.EditedText)
}

func TestConsolePrompterClosedInput(t *testing.T) {
	var out bytes.Buffer
	p := NewConsolePrompter(strings.NewReader(""), &out)

	_, err := p.Present(leadOne, classifiedState())
	require.Error(t, err)
}

func TestAutoPrompterThresholds(t *testing.T) {
	tests := []struct {
		threshold string
		tag       string
		want      Action
	}{
		{"Hot", "Hot", ActionSend},
		{"Hot", "Warm", ActionApprove},
		{"Warm", "Warm", ActionSend},
		{"Warm", "Cold", ActionApprove},
		{"Cold", "Cold", ActionSend},
	}
	for _, tt := range tests {
		t.Run(tt.threshold+"_"+tt.tag, func(t *testing.T) {
			p := NewAutoPrompter(true, tt.threshold, 0, logging.NewNopLogger())
			st := classifiedState()
			st.ClassificationTag = tt.tag

			dec, err := p.Present(leadOne, st)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dec.Action)
		})
	}
}

func TestAutoPrompterBatchLimit(t *testing.T) {
	p := NewAutoPrompter(true, "Hot", 2, logging.NewNopLogger())
	st := classifiedState()

	for i := 0; i < 2; i++ {
		dec, err := p.Present(leadOne, st)
		require.NoError(t, err)
		assert.Equal(t, ActionSend, dec.Action)
	}
	dec, err := p.Present(leadOne, st)
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, dec.Action, "sends beyond the batch limit downgrade to approve")
}

func TestAutoPrompterSendDisabled(t *testing.T) {
	p := NewAutoPrompter(false, "Cold", 0, logging.NewNopLogger())

	dec, err := p.Present(leadOne, classifiedState())
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, dec.Action)
}
