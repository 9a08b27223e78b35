package review

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bishwajitSingh123/lead-agent/pkg/lead"
	"github.com/bishwajitSingh123/lead-agent/pkg/logging"
)

const separator = "======================================================================"

// ConsolePrompter presents leads on a terminal and reads operator decisions
// from an input stream. Unrecognized menu input is rejected and re-prompted
// without ever reaching the controller.
type ConsolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsolePrompter creates a prompter reading from in and writing to out,
// typically os.Stdin and os.Stdout.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Present shows the lead, its classification tag and current draft, then
// reads one decision. It returns an error only on input stream failure
// (e.g. the operator closed stdin), which ends the run with the last saved
// state as the durable truth.
func (p *ConsolePrompter) Present(l lead.Lead, st lead.State) (Decision, error) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, separator)
	fmt.Fprintf(p.out, "Lead %s: %s <%s>\n", l.ID, l.Name, l.Email)
	fmt.Fprintf(p.out, "Source:  %s", l.Source)
	if l.ReceivedAt != "" {
		fmt.Fprintf(p.out, "  (received %s)", l.ReceivedAt)
	}
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "Message: %s\n", l.Message)
	fmt.Fprintf(p.out, "Tag:     %s\n", st.ClassificationTag)
	fmt.Fprintln(p.out, separator)
	fmt.Fprintln(p.out, "DRAFT")
	fmt.Fprintln(p.out, separator)
	fmt.Fprintln(p.out, st.DraftText)
	fmt.Fprintln(p.out, separator)

	for {
		fmt.Fprint(p.out, "Action? [A]pprove / [S]end / [E]dit / [R]eject / S[k]ip: ")
		line, err := p.readLine()
		if err != nil {
			return Decision{}, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "approve":
			return Decision{Action: ActionApprove}, nil
		case "s", "send":
			return Decision{Action: ActionSend}, nil
		case "e", "edit":
			return p.readEdit()
		case "r", "reject":
			return p.readReject()
		case "k", "skip":
			return Decision{Action: ActionSkip}, nil
		default:
			fmt.Fprintln(p.out, "Invalid option. Choose A/S/E/R/K.")
		}
	}
}

// readEdit captures a replacement draft terminated by END on its own line,
// then asks whether to send it. No lines at all is a no-op edit.
func (p *ConsolePrompter) readEdit() (Decision, error) {
	fmt.Fprintln(p.out, "Paste the edited email (finish with 'END' on its own line):")

	var lines []string
	for {
		line, err := p.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Decision{}, err
		}
		if strings.TrimSpace(line) == "END" {
			break
		}
		lines = append(lines, line)
	}

	edited := strings.TrimSpace(strings.Join(lines, "\n"))
	if edited == "" {
		return Decision{Action: ActionEdit}, nil
	}

	fmt.Fprint(p.out, "Send this edited email? [y/N]: ")
	answer, err := p.readLine()
	if err != nil && err != io.EOF {
		return Decision{}, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))

	return Decision{
		Action:     ActionEdit,
		EditedText: edited,
		SendEdited: answer == "y" || answer == "yes",
	}, nil
}

// readReject captures the optional rejection reason.
func (p *ConsolePrompter) readReject() (Decision, error) {
	fmt.Fprint(p.out, "Rejection reason (optional): ")
	reason, err := p.readLine()
	if err != nil && err != io.EOF {
		return Decision{}, err
	}
	return Decision{Action: ActionReject, Reason: strings.TrimSpace(reason)}, nil
}

// readLine reads one line without the trailing newline. A final unterminated
// line before EOF is still returned.
func (p *ConsolePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err == io.EOF && line != "" {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AutoPrompter makes decisions without an operator: every generated draft is
// approved, and leads whose classification meets the threshold are sent, up
// to a per-run batch limit.
type AutoPrompter struct {
	// SendEnabled allows delivery at all; false means approve-only.
	SendEnabled bool
	// Threshold is the minimum category to auto-send: Hot, Warm or Cold.
	Threshold string
	// BatchLimit caps sends per run; zero means no cap.
	BatchLimit int

	log  logging.Logger
	sent int
}

// NewAutoPrompter creates a non-interactive prompter for automated passes.
func NewAutoPrompter(sendEnabled bool, threshold string, batchLimit int, log logging.Logger) *AutoPrompter {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &AutoPrompter{
		SendEnabled: sendEnabled,
		Threshold:   threshold,
		BatchLimit:  batchLimit,
		log:         log,
	}
}

// Present decides for the operator: send when the tag meets the threshold
// and the batch budget allows, approve otherwise.
func (p *AutoPrompter) Present(l lead.Lead, st lead.State) (Decision, error) {
	if p.SendEnabled && p.meetsThreshold(st.ClassificationTag) {
		if p.BatchLimit > 0 && p.sent >= p.BatchLimit {
			p.log.Info("batch limit reached, approving without sending",
				logging.F("lead_id", l.ID), logging.F("limit", p.BatchLimit))
			return Decision{Action: ActionApprove}, nil
		}
		p.sent++
		return Decision{Action: ActionSend}, nil
	}
	return Decision{Action: ActionApprove}, nil
}

// meetsThreshold reports whether a category qualifies for auto-send.
func (p *AutoPrompter) meetsThreshold(tag string) bool {
	switch p.Threshold {
	case "Cold":
		return true
	case "Warm":
		return tag == "Hot" || tag == "Warm"
	default: // Hot
		return tag == "Hot"
	}
}
