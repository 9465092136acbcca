package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// UI prints human-readable output. Every method is silent in JSON mode.
type UI struct {
	out      io.Writer
	progress *mpb.Progress
	noColor  bool
	jsonMode bool
}

// NewUI creates a UI writing to out. Progress bars are only drawn when out
// is an interactive terminal.
func NewUI(out io.Writer, jsonMode, noColor bool) *UI {
	ui := &UI{out: out, noColor: noColor, jsonMode: jsonMode}
	if !jsonMode && isTerminal(out) {
		ui.progress = mpb.New(mpb.WithWidth(64), mpb.WithOutput(out))
	}
	return ui
}

// Close waits for progress bars to finish rendering.
func (ui *UI) Close() {
	if ui.progress != nil {
		ui.progress.Wait()
	}
}

func (ui *UI) line(c *color.Color, prefix, format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	msg := prefix + " " + fmt.Sprintf(format, args...) + "\n"
	if ui.noColor || c == nil {
		fmt.Fprint(ui.out, msg)
		return
	}
	c.Fprint(ui.out, msg)
}

func (ui *UI) Success(format string, args ...interface{}) {
	ui.line(color.New(color.FgGreen), "✓", format, args...)
}

func (ui *UI) Error(format string, args ...interface{}) {
	ui.line(color.New(color.FgRed), "✗", format, args...)
}

func (ui *UI) Warning(format string, args ...interface{}) {
	ui.line(color.New(color.FgYellow), "⚠", format, args...)
}

func (ui *UI) Info(format string, args ...interface{}) {
	ui.line(color.New(color.FgCyan), "ℹ", format, args...)
}

func (ui *UI) Step(format string, args ...interface{}) {
	ui.line(color.New(color.FgBlue), "→", format, args...)
}

// ProgressBar returns nil when progress cannot be drawn; callers must check.
func (ui *UI) ProgressBar(name string, total int64) *mpb.Bar {
	if ui.progress == nil {
		return nil
	}
	return ui.progress.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DSyncSpaceR}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.OnComplete(decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 12}), " done"),
		),
	)
}

// Table prints rows under headers with box-drawing borders.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = displayWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && displayWidth(cell) > widths[i] {
				widths[i] = displayWidth(cell)
			}
		}
	}

	border := func(left, mid, right string) {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		ui.frame(left + strings.Join(parts, mid) + right + "\n")
	}
	printRow := func(cells []string) {
		ui.frame("│")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			fmt.Fprintf(ui.out, " %s%s ", cell, strings.Repeat(" ", w-displayWidth(cell)))
			ui.frame("│")
		}
		fmt.Fprintln(ui.out)
	}

	border("┌", "┬", "┐")
	printRow(headers)
	border("├", "┼", "┤")
	for _, row := range rows {
		printRow(row)
	}
	border("└", "┴", "┘")
}

func (ui *UI) frame(s string) {
	if ui.noColor {
		fmt.Fprint(ui.out, s)
		return
	}
	color.New(color.FgCyan, color.Bold).Fprint(ui.out, s)
}

// Section prints an upper-cased section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	header := fmt.Sprintf("\n━━━ %s ━━━\n\n", strings.ToUpper(title))
	if ui.noColor {
		fmt.Fprint(ui.out, header)
		return
	}
	color.New(color.FgMagenta, color.Bold).Fprint(ui.out, header)
}

func (ui *UI) KeyValue(key string, value interface{}) {
	if ui.jsonMode {
		return
	}
	if ui.noColor {
		fmt.Fprintf(ui.out, "  %s: %v\n", key, value)
		return
	}
	color.New(color.FgYellow).Fprintf(ui.out, "  %s: ", key)
	fmt.Fprintf(ui.out, "%v\n", value)
}

func displayWidth(s string) int {
	return len([]rune(s))
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
