// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/form-filler/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxCandidatesToShow caps the candidates listed under a conflicting field
	maxCandidatesToShow = 5
)

// Printer handles formatted output for the CLI
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
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintFields outputs the fields recognized on a blank form.
func (p *Printer) PrintFields(fields []types.Field) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Fields found: %d\n", len(fields)))
	if len(fields) > 0 {
		sb.WriteString("\n")
	}
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("[%s] %s", f.ID, f.Text))
		if f.Type != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", f.Type))
		}
		sb.WriteString("\n")
	}
	p.printBox("FORM FIELDS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFacts outputs extracted facts, known keys first.
func (p *Printer) PrintFacts(facts map[types.FactKey]string) {
	if len(facts) == 0 {
		p.printBox("EXTRACTED FACTS", "No facts found")
		return
	}

	var sb strings.Builder
	seen := make(map[types.FactKey]bool, len(types.KnownFactKeys))
	for _, k := range types.KnownFactKeys {
		seen[k] = true
		if v, ok := facts[k]; ok {
			sb.WriteString(fmt.Sprintf("%-12s %s\n", k+":", v))
		}
	}
	extra := make([]string, 0)
	for k := range facts {
		if !seen[k] {
			extra = append(extra, string(k))
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		sb.WriteString(fmt.Sprintf("\nOther keys: %s\n", strings.Join(extra, ", ")))
	}
	p.printBox("EXTRACTED FACTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReview outputs every field with its status and candidates.
func (p *Printer) PrintReview(views []types.FieldView) {
	if len(views) == 0 {
		return
	}

	var sb strings.Builder
	counts := map[types.Status]int{}
	for i, v := range views {
		counts[v.Status]++
		sb.WriteString(fmt.Sprintf("%s %s\n", statusIcon(v.Status), v.Text))
		switch v.Status {
		case types.StatusResolved:
			sb.WriteString(fmt.Sprintf("    → %s\n", v.SelectedAnswer))
		case types.StatusConflict:
			count := min(len(v.Candidates), maxCandidatesToShow)
			for j := 0; j < count; j++ {
				sb.WriteString(fmt.Sprintf("    %d) %s\n", j+1, v.Candidates[j]))
			}
			if len(v.Candidates) > maxCandidatesToShow {
				sb.WriteString(fmt.Sprintf("    ... and %d more\n", len(v.Candidates)-maxCandidatesToShow))
			}
		default:
			sb.WriteString("    (needs manual entry)\n")
		}
		if i < len(views)-1 {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(fmt.Sprintf("\nResolved: %d  Conflicts: %d  Missing: %d",
		counts[types.StatusResolved], counts[types.StatusConflict], counts[types.StatusNoMatch]))

	p.printBox("REVIEW", sb.String())
}

// PrintAnswers outputs the assembled answers in form order.
func (p *Printer) PrintAnswers(answers []types.Answer) {
	if len(answers) == 0 {
		return
	}

	var sb strings.Builder
	for _, a := range answers {
		sb.WriteString(fmt.Sprintf("%s\n    %s\n", a.Field.Text, a.Answer))
	}
	p.printBox("COMPLETED FORM", strings.TrimSuffix(sb.String(), "\n"))
}

func statusIcon(s types.Status) string {
	switch s {
	case types.StatusResolved:
		return "✓"
	case types.StatusConflict:
		return "?"
	default:
		return "✗"
	}
}
