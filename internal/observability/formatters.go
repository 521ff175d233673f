// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/context-matcher/internal/matching"
	"github.com/jonathan/context-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// barWidth is the number of cells in a score bar
	barWidth = 20
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads a line to width runes
func pad(line string, width int) string {
	n := utf8.RuneCountInString(line)
	if n > width {
		runes := []rune(line)
		return string(runes[:width-3]) + "..."
	}
	return line + strings.Repeat(" ", width-n)
}

// bar renders a [0,1] value as a fixed-width bar
func bar(v float64) string {
	filled := int(v*barWidth + 0.5)
	filled = max(0, min(filled, barWidth))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// PrintContextWindow outputs a short summary of a profile
func (p *Printer) PrintContextWindow(cw *types.ContextWindow) {
	if cw == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("User:         %s\n", cw.UserID))
	if cw.WorkingOn != "" {
		sb.WriteString(fmt.Sprintf("Working on:   %s\n", cw.WorkingOn))
	}
	if len(cw.Skills) > 0 {
		shown := cw.Skills[:min(len(cw.Skills), maxItemsToShow)]
		sb.WriteString(fmt.Sprintf("Skills:       %s", strings.Join(shown, ", ")))
		if len(cw.Skills) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf(" (+%d)", len(cw.Skills)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}
	if cw.CurrentLocation != "" {
		sb.WriteString(fmt.Sprintf("Location:     %s\n", cw.CurrentLocation))
	}
	if len(cw.OpenTo) > 0 {
		sb.WriteString(fmt.Sprintf("Open to:      %s\n", strings.Join(cw.OpenTo, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Completeness: %.0f%%\n", cw.Completeness()*100))
	if cw.HasEmbedding() {
		sb.WriteString(fmt.Sprintf("Embedding:    %d dims\n", len(cw.Embedding)))
	} else {
		sb.WriteString("Embedding:    none\n")
	}

	p.printBox("PROFILE", sb.String())
}

// PrintMatchScore outputs a breakdown of one match score
func (p *Printer) PrintMatchScore(score *types.MatchScore) {
	if score == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidate: %s\n", score.UserID))
	sb.WriteString(fmt.Sprintf("Total:     %.3f", score.TotalScore))
	if score.TotalScore >= matching.MatchThreshold {
		sb.WriteString("  (match)\n")
	} else {
		sb.WriteString("  (below threshold)\n")
	}
	sb.WriteString("\n")

	writeBreakdown(&sb, score.Breakdown)

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Strongest: %s\n", matching.PrimaryMatchReason(score.Breakdown)))
	if score.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason:    %s\n", score.Reason))
	}

	p.printBox("MATCH SCORE", sb.String())
}

// PrintTopMatches outputs a ranked list of matches
func (p *Printer) PrintTopMatches(results *types.MatchResults) {
	if results == nil {
		return
	}

	if len(results.Matches) == 0 {
		p.printBox("NO MATCHES FOUND", "No candidate reached the match threshold.")
		return
	}

	var sb strings.Builder
	for i, m := range results.Matches {
		sb.WriteString(fmt.Sprintf("%d. %s  %.3f  %s\n", i+1, m.UserID, m.TotalScore, bar(m.TotalScore)))
		sb.WriteString(fmt.Sprintf("   %s\n", matching.PrimaryMatchReason(m.Breakdown)))
		if m.Reason != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", m.Reason))
		}
	}

	title := "TOP MATCHES"
	if results.UserID != "" {
		title = fmt.Sprintf("TOP MATCHES FOR %s", results.UserID)
	}
	p.printBox(title, sb.String())
}

func writeBreakdown(sb *strings.Builder, b types.Breakdown) {
	values := map[matching.Signal]float64{
		matching.SignalSemanticSimilarity: b.SemanticSimilarity,
		matching.SignalSkillsComplement:   b.SkillsComplement,
		matching.SignalSeekingAlignment:   b.SeekingAlignment,
		matching.SignalSpatialProximity:   b.SpatialProximity,
		matching.SignalGraphSignals:       b.GraphSignals,
	}

	for _, s := range matching.Signals {
		sb.WriteString(fmt.Sprintf("%-20s %s %.2f\n", s.Label(), bar(values[s]), values[s]))
	}
}
