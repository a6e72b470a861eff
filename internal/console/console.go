// Package console writes the human-readable progress lines of pipeline commands.
package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// Printer writes one line per call, colored when the terminal supports it.
type Printer struct {
	w       io.Writer
	warn    *color.Color
	errc    *color.Color
	success *color.Color
}

// New creates a Printer writing to w. A nil writer discards output.
func New(w io.Writer) *Printer {
	if w == nil {
		w = io.Discard
	}
	return &Printer{
		w:       w,
		warn:    color.New(color.FgYellow),
		errc:    color.New(color.FgRed),
		success: color.New(color.FgGreen),
	}
}

// Info prints a plain line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Warn prints a yellow line.
func (p *Printer) Warn(format string, args ...any) {
	p.warn.Fprintf(p.w, format+"\n", args...)
}

// Error prints a red line.
func (p *Printer) Error(format string, args ...any) {
	p.errc.Fprintf(p.w, format+"\n", args...)
}

// Success prints a green line.
func (p *Printer) Success(format string, args ...any) {
	p.success.Fprintf(p.w, format+"\n", args...)
}

// NewProgress returns a bar counting total items on w.
func NewProgress(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}
