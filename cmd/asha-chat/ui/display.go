package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/nlp"
)

const minBoxWidth = 40

// Display renders chat output to a writer.
type Display struct {
	out     io.Writer
	noColor bool
}

// NewDisplay creates a Display. Colour is disabled when noColor is set or
// out is not a terminal.
func NewDisplay(out io.Writer, noColor bool) *Display {
	return &Display{out: out, noColor: noColor || !IsTerminal(out)}
}

func (d *Display) Out() io.Writer { return d.out }

func (d *Display) print(attrs []color.Attribute, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if d.noColor || len(attrs) == 0 {
		fmt.Fprint(d.out, msg)
		return
	}
	color.New(attrs...).Fprint(d.out, msg)
}

// Banner prints the greeting shown when the REPL starts.
func (d *Display) Banner(sessionID string) {
	d.print([]color.Attribute{color.FgMagenta, color.Bold}, "Asha career assistant\n")
	fmt.Fprintf(d.out, "Session %s. Type /help for commands.\n\n", sessionID)
}

// Prompt prints the input prompt without a newline.
func (d *Display) Prompt() {
	d.print([]color.Attribute{color.FgGreen, color.Bold}, "you › ")
}

// Reply prints an assistant message.
func (d *Display) Reply(text string) {
	d.print([]color.Attribute{color.FgCyan, color.Bold}, "asha › ")
	fmt.Fprintln(d.out, text)
}

func (d *Display) Info(format string, args ...interface{}) {
	d.print([]color.Attribute{color.FgCyan}, "ℹ %s\n", fmt.Sprintf(format, args...))
}

func (d *Display) Success(format string, args ...interface{}) {
	d.print([]color.Attribute{color.FgGreen}, "✓ %s\n", fmt.Sprintf(format, args...))
}

func (d *Display) Warning(format string, args ...interface{}) {
	d.print([]color.Attribute{color.FgYellow}, "⚠ %s\n", fmt.Sprintf(format, args...))
}

func (d *Display) Error(format string, args ...interface{}) {
	d.print([]color.Attribute{color.FgRed}, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Attachment prints a bordered summary card for a job, event or mentorship.
func (d *Display) Attachment(att *domain.Attachment) {
	if att == nil || att.Data == nil {
		return
	}
	title, lines := attachmentCard(att.Data)
	d.Box(title, lines)
}

func attachmentCard(c domain.Candidate) (string, []string) {
	switch v := c.(type) {
	case *domain.Job:
		lines := []string{v.Company, v.Location + " · " + v.Type}
		if v.Salary != "" {
			lines = append(lines, v.Salary)
		}
		if len(v.Skills) > 0 {
			lines = append(lines, "Skills: "+strings.Join(v.Skills, ", "))
		}
		if v.ApplyURL != "" {
			lines = append(lines, "Apply: "+v.ApplyURL)
		}
		return "Job: " + v.Title, lines
	case *domain.Event:
		where := v.Location
		if v.Virtual {
			where = "Virtual"
		}
		lines := []string{v.Date.Format("Mon 2 Jan 2006"), where + " · " + v.Category}
		names := make([]string, 0, len(v.Speakers))
		for _, s := range v.Speakers {
			names = append(names, s.Name)
		}
		if len(names) > 0 {
			lines = append(lines, "Speakers: "+strings.Join(names, ", "))
		}
		if v.RegistrationURL != "" {
			lines = append(lines, "Register: "+v.RegistrationURL)
		}
		return "Event: " + v.Title, lines
	case *domain.Mentorship:
		lines := []string{"Mentor: " + v.Mentor, v.Focus, v.Duration + " · " + v.Format}
		if v.ApplicationURL != "" {
			lines = append(lines, "Apply: "+v.ApplicationURL)
		}
		return "Mentorship: " + v.Title, lines
	default:
		return string(c.Variant()) + " " + c.CandidateID(), nil
	}
}

// Box prints lines inside a border with a title row.
func (d *Display) Box(title string, lines []string) {
	width := runeLen(title)
	for _, l := range lines {
		if n := runeLen(l); n > width {
			width = n
		}
	}
	if width < minBoxWidth {
		width = minBoxWidth
	}

	border := []color.Attribute{color.FgBlue}
	row := func(s string, attrs ...color.Attribute) {
		d.print(border, "│ ")
		d.print(attrs, "%s%s", s, strings.Repeat(" ", width-runeLen(s)))
		d.print(border, " │\n")
	}

	d.print(border, "┌%s┐\n", strings.Repeat("─", width+2))
	row(title, color.Bold)
	if len(lines) > 0 {
		d.print(border, "├%s┤\n", strings.Repeat("─", width+2))
		for _, l := range lines {
			row(l)
		}
	}
	d.print(border, "└%s┘\n", strings.Repeat("─", width+2))
}

// History prints turns grouped by calendar day.
func (d *Display) History(turns []domain.ConversationTurn, loc *time.Location) {
	if len(turns) == 0 {
		d.Info("No messages yet")
		return
	}
	for _, g := range nlp.GroupByDate(turns, loc) {
		d.print([]color.Attribute{color.FgMagenta, color.Bold}, "── %s ──\n", g.Date.Format("Monday, 2 January 2006"))
		for _, t := range g.Turns {
			who := "asha"
			attrs := []color.Attribute{color.FgCyan}
			if t.Sender == domain.SenderUser {
				who = "you"
				attrs = []color.Attribute{color.FgGreen}
			}
			d.print(attrs, "%s %-4s ", t.Timestamp.In(loc).Format("15:04"), who)
			fmt.Fprintln(d.out, t.Text)
		}
	}
}

func runeLen(s string) int {
	return len([]rune(s))
}
