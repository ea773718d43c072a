// Package report renders printable PDF reports from dataset summaries.
//
// The renderer is a read-only consumer of the ingestion pipeline: it needs
// the stored summary, the dataset's display name, and its creation time,
// and performs no further computation over the records.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/equipsight/equipsight/internal/core"
	"github.com/jung-kurt/gofpdf"
)

// Render writes a one-page equipment analysis report to w.
func Render(w io.Writer, name string, createdAt time.Time, summary core.Summary) error {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle("Equipment Analysis Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Equipment Analysis Report: "+name)
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Uploaded: "+createdAt.Format("2006-01-02 15:04:05"))
	pdf.Ln(5)
	pdf.Cell(0, 6, "Generated: "+time.Now().Format("2006-01-02 15:04:05"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Summary Statistics")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total Equipment: %d", summary.TotalCount))
	pdf.Ln(7)

	pdf.Cell(0, 6, "Equipment Type Distribution:")
	pdf.Ln(6)
	for _, t := range sortedTypes(summary.EquipmentTypes) {
		label := t
		if label == "" {
			label = "(unspecified)"
		}
		pdf.SetX(20)
		pdf.Cell(0, 5, fmt.Sprintf("%s: %d", label, summary.EquipmentTypes[t]))
		pdf.Ln(5)
	}
	pdf.Ln(3)

	pdf.Cell(0, 6, "Average Values:")
	pdf.Ln(6)
	averages := []struct {
		label string
		value float64
	}{
		{"Flowrate", summary.Averages.Flowrate},
		{"Pressure", summary.Averages.Pressure},
		{"Temperature", summary.Averages.Temperature},
	}
	for _, a := range averages {
		pdf.SetX(20)
		pdf.Cell(0, 5, fmt.Sprintf("%s: %.2f", a.label, a.value))
		pdf.Ln(5)
	}
	pdf.Ln(3)

	pdf.Cell(0, 6, "Observed Ranges:")
	pdf.Ln(6)
	ranges := []struct {
		label string
		r     core.Range
	}{
		{"Flowrate", summary.Ranges.Flowrate},
		{"Pressure", summary.Ranges.Pressure},
		{"Temperature", summary.Ranges.Temperature},
	}
	for _, rr := range ranges {
		pdf.SetX(20)
		pdf.Cell(0, 5, fmt.Sprintf("%s: %.2f - %.2f", rr.label, rr.r.Min, rr.r.Max))
		pdf.Ln(5)
	}

	return pdf.Output(w)
}

// sortedTypes returns type names in a stable order so the same summary
// always renders the same document.
func sortedTypes(types map[string]int) []string {
	out := make([]string, 0, len(types))
	for t := range types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
