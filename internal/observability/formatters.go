// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/warm-intros/internal/engine"
	"github.com/jonathan/warm-intros/internal/snapshot"
	"github.com/jonathan/warm-intros/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 64
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
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
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintICPProfile outputs the criteria the analysis ran against.
func (p *Printer) PrintICPProfile(icp *types.ICPProfile) {
	if icp == nil {
		p.printBox("ICP PROFILE", "No ICP configured: role matching and classification are skipped")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Industries:   %s\n", joinOrDash(icp.TargetIndustries)))
	sb.WriteString(fmt.Sprintf("Locations:    %s\n", joinOrDash(icp.TargetLocations)))
	sb.WriteString(fmt.Sprintf("Size:         %s\n", icp.SizeRange()))
	sb.WriteString(fmt.Sprintf("Roles:        %s\n", joinOrDash(icp.KeyRoles)))
	sb.WriteString(fmt.Sprintf("Technologies: %s", joinOrDash(icp.TargetTechnologies)))

	p.printBox("ICP PROFILE", sb.String())
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// PrintAnalysis outputs the run counters followed by the top inferences.
func (p *Printer) PrintAnalysis(result *engine.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Companies analyzed: %d\n", result.TotalAnalyzed))
	sb.WriteString(fmt.Sprintf("Matches:            %d\n", len(result.Matches)))
	sb.WriteString(fmt.Sprintf("Inferences:         %d\n", len(result.Inferences)))
	sb.WriteString(fmt.Sprintf("Classifier chunks:  %d (%d failed, %d cache hits)\n", result.Chunks, result.FailedChunks, result.CacheHits))
	if result.Persisted {
		sb.WriteString(fmt.Sprintf("Snapshot:           generation %d", result.Generation))
	} else {
		sb.WriteString("Snapshot:           not persisted")
	}
	p.printBox("RELATIONSHIP ANALYSIS", sb.String())

	p.PrintInferences("TOP INFERENCES", result.Inferences, len(result.Inferences))
}

// PrintInferences outputs up to maxItemsToShow inferences; total is the size of the full set.
func (p *Printer) PrintInferences(title string, inferences []types.InferredRelationship, total int) {
	if len(inferences) == 0 {
		p.printBox(title, "No warm paths found")
		return
	}

	var sb strings.Builder
	count := min(len(inferences), maxItemsToShow)
	for i := 0; i < count; i++ {
		rel := inferences[i]
		sb.WriteString(fmt.Sprintf("#%d  %s  [%s %d]\n", i+1, rel.TargetCompany, rel.InferenceType, rel.ConfidenceScore))
		if rel.SupportingData.BridgeContact != nil {
			sb.WriteString(fmt.Sprintf("    via %s\n", rel.SupportingData.BridgeContact.Name))
		}
		sb.WriteString(fmt.Sprintf("    %s", rel.Reasoning))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if total > count {
		sb.WriteString(fmt.Sprintf("\n\n... and %d more", total-count))
	}

	p.printBox(title, sb.String())
}

// PrintSnapshotPage outputs every row of one page of a persisted snapshot.
func (p *Printer) PrintSnapshotPage(page *snapshot.Page) {
	if page == nil {
		return
	}
	title := fmt.Sprintf("SNAPSHOT page %d/%d (%d total)", page.Page, snapshot.TotalPages(page.TotalCount, page.PageSize), page.TotalCount)
	if len(page.Matches) == 0 {
		p.printBox(title, "No rows on this page")
		return
	}

	offset := (page.Page - 1) * page.PageSize
	var sb strings.Builder
	for i, rel := range page.Matches {
		sb.WriteString(fmt.Sprintf("%3d  %3d  %-9s %s", offset+i+1, rel.ConfidenceScore, rel.InferenceType, rel.TargetCompany))
		if i < len(page.Matches)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox(title, sb.String())
}

// PrintOpportunities outputs the merged opportunity list.
func (p *Printer) PrintOpportunities(opps []types.Opportunity) {
	if len(opps) == 0 {
		p.printBox("OPPORTUNITIES", "No opportunities")
		return
	}

	var sb strings.Builder
	for i, o := range opps {
		line := fmt.Sprintf("%-8s %3d  %s", o.Kind, o.AIScore, o.TargetCompany)
		if o.BridgeContact != "" {
			line += " via " + o.BridgeContact
		}
		sb.WriteString(line)
		if i < len(opps)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(fmt.Sprintf("OPPORTUNITIES (%d)", len(opps)), sb.String())
}
