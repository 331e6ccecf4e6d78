// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux renders osscheck reports on the terminal.
//
// Output goes through a Printer bound to one writer. A Printer is either
// styled (lipgloss colors and boxes) or plain (tab-separated, one fact per
// line, suitable for scripts and CI logs).
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, borders

	ColorSuccess = lipgloss.Color("#2CD7C7") // Bright teal for success
	ColorWarning = lipgloss.Color("#F4D03F") // Gold/amber for warnings
	ColorError   = lipgloss.Color("#E74C3C") // Red for errors
)

// ColorMode selects when styling is applied.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// styles is the per-renderer style set.
type styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style
	ErrorBox   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		Title:     r.NewStyle().Bold(true).Foreground(ColorTealBright),
		Subtitle:  r.NewStyle().Foreground(ColorTealPrimary),
		Bold:      r.NewStyle().Bold(true),
		Muted:     r.NewStyle().Foreground(ColorSlate),
		Success:   r.NewStyle().Foreground(ColorSuccess),
		Warning:   r.NewStyle().Foreground(ColorWarning),
		Error:     r.NewStyle().Foreground(ColorError),
		Highlight: r.NewStyle().Foreground(ColorTealBright).Bold(true),

		Box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorTealDeep).
			Padding(0, 1),
		WarningBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorWarning).
			Padding(0, 1),
		ErrorBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(0, 1),
	}
}

// Printer writes styled or plain report lines to one writer.
//
// Thread Safety:
//
//	Not safe for concurrent use. Callers serialize whole reports.
type Printer struct {
	out    io.Writer
	styled bool
	styles styles
}

// NewPrinter creates a Printer for out.
//
// In ColorAuto mode the printer is styled only when out is a terminal.
// ColorNever produces plain output; ColorAlways forces true color.
func NewPrinter(out io.Writer, mode ColorMode) *Printer {
	renderer := lipgloss.NewRenderer(out)
	styled := true
	switch mode {
	case ColorAlways:
		renderer.SetColorProfile(termenv.TrueColor)
	case ColorNever:
		styled = false
	default:
		styled = isTerminal(out)
	}
	if !styled {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		out:    out,
		styled: styled,
		styles: newStyles(renderer),
	}
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Styled reports whether output is styled.
func (p *Printer) Styled() bool {
	return p.styled
}

// Render returns the icon with appropriate styling
func (p *Printer) Render(i Icon) string {
	if !p.styled {
		return string(i)
	}
	switch i {
	case IconSuccess:
		return p.styles.Success.Render(string(i))
	case IconWarning:
		return p.styles.Warning.Render(string(i))
	case IconError:
		return p.styles.Error.Render(string(i))
	case IconPending:
		return p.styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Title prints a styled title. Plain output omits titles.
func (p *Printer) Title(text string) {
	if !p.styled {
		return
	}
	fmt.Fprintln(p.out, p.styles.Title.Render(text))
}

// Success prints a success message with checkmark
func (p *Printer) Success(text string) {
	if !p.styled {
		fmt.Fprintf(p.out, "OK: %s\n", text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.Render(IconSuccess), p.styles.Success.Render(text))
}

// Warning prints a warning message
func (p *Printer) Warning(text string) {
	if !p.styled {
		fmt.Fprintf(p.out, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.Render(IconWarning), p.styles.Warning.Render(text))
}

// Error prints an error message
func (p *Printer) Error(text string) {
	if !p.styled {
		fmt.Fprintf(p.out, "ERROR: %s\n", text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.Render(IconError), p.styles.Error.Render(text))
}

// Info prints an informational message
func (p *Printer) Info(text string) {
	if !p.styled {
		fmt.Fprintln(p.out, text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.styles.Muted.Render("│"), text)
}

// Field prints a "key: value" line.
func (p *Printer) Field(key string, value any) {
	if !p.styled {
		fmt.Fprintf(p.out, "%s\t%v\n", key, value)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.styles.Muted.Render(key+":"), p.styles.Bold.Render(fmt.Sprint(value)))
}

// Item prints a status line for one entity, with an optional reason.
func (p *Printer) Item(status Icon, name, reason string) {
	if !p.styled {
		fmt.Fprintf(p.out, "%s\t%s\t%s\n", status, name, reason)
		return
	}
	if reason != "" {
		fmt.Fprintf(p.out, "%s %s %s\n", p.Render(status), name, p.styles.Muted.Render("("+reason+")"))
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.Render(status), name)
}

// Box prints text in a rounded box
func (p *Printer) Box(title, content string) {
	if !p.styled {
		fmt.Fprintf(p.out, "%s: %s\n", title, strings.ReplaceAll(content, "\n", "; "))
		return
	}
	titleLine := p.styles.Title.Render(title)
	fmt.Fprintln(p.out, p.styles.Box.Width(60).Render(titleLine+"\n"+content))
}

// ErrorBox prints text in an error-styled box
func (p *Printer) ErrorBox(title, content string) {
	if !p.styled {
		fmt.Fprintf(p.out, "ERROR %s: %s\n", title, strings.ReplaceAll(content, "\n", "; "))
		return
	}
	titleLine := p.styles.Error.Bold(true).Render(title)
	fmt.Fprintln(p.out, p.styles.ErrorBox.Width(60).Render(titleLine+"\n"+content))
}

// Summary prints a summary line with counts
func (p *Printer) Summary(valid, invalid, total int) {
	if !p.styled {
		fmt.Fprintf(p.out, "SUMMARY: valid=%d invalid=%d total=%d\n", valid, invalid, total)
		return
	}
	fmt.Fprintf(p.out, "\n%s %s  %s %s  %s %s\n",
		p.styles.Success.Render(fmt.Sprintf("%d", valid)), p.styles.Muted.Render("valid"),
		p.styles.Error.Render(fmt.Sprintf("%d", invalid)), p.styles.Muted.Render("invalid"),
		p.styles.Bold.Render(fmt.Sprintf("%d", total)), p.styles.Muted.Render("total"),
	)
}
