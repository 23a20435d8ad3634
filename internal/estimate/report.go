package estimate

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Simplici0/rab/internal/numfmt"
)

// WriteSummary prints a plain-text RAB recap with amounts in Indonesian
// notation (Rp 1.234.567,89).
func (e *Estimate) WriteSummary(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "RAB: %s\n", orDash(e.Profile.ProjectName))
	fmt.Fprintf(&b, "Pemilik: %s\n", orDash(e.Profile.Owner))
	keys := make([]string, 0, len(e.Profile.CustomFields))
	for k := range e.Profile.CustomFields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, e.Profile.CustomFields[k])
	}
	b.WriteString("\n")

	for i, s := range e.sections {
		fmt.Fprintf(&b, "%d. %s  %s\n", i+1, orDash(s.Label), numfmt.Rupiah(e.summary.Sections[s.ID]))
		switch body := s.Body().(type) {
		case *Flat:
			writeItems(&b, "   ", body.Items)
		case *Grouped:
			for _, g := range body.Groups {
				fmt.Fprintf(&b, "   - %s  %s\n", orDash(g.Label), numfmt.Rupiah(e.summary.Groups[g.ID]))
				writeItems(&b, "      ", g.Items)
			}
		}
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", numfmt.Rupiah(e.Subtotal()))
	fmt.Fprintf(&b, "PPN %s%%: %s\n", numfmt.Grouped(e.ppnPercent), numfmt.Rupiah(e.PPNAmount()))
	fmt.Fprintf(&b, "Total: %s\n", numfmt.Rupiah(e.GrandTotal()))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeItems(b *strings.Builder, indent string, items []*LineItem) {
	for _, it := range items {
		fmt.Fprintf(b, "%s%s %s × %s = %s\n",
			indent,
			orDash(it.Description),
			numfmt.Grouped(it.EffectiveQuantity())+" "+it.Unit,
			numfmt.Rupiah(it.UnitPrice),
			numfmt.Rupiah(it.LineTotal()),
		)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
