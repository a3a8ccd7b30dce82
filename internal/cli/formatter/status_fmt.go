package formatter

import (
	"fmt"
	"strings"

	"github.com/avlasenko/taxikit/internal/checklist"
	"github.com/avlasenko/taxikit/internal/domain"
)

// FormatPeriodStatus renders the filing period summary for the status
// command and the dashboard headline.
func FormatPeriodStatus(status domain.PeriodStatus, year int) string {
	var b strings.Builder

	b.WriteString(Header(fmt.Sprintf("Tax year %d", year)))
	b.WriteString("\n\n")

	if status.NotStarted {
		b.WriteString(StyleYellow.Render("Not started"))
		if status.Message != "" {
			b.WriteString("\n" + Dim(status.Message))
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(Bold("Next step: ") + StyleBlue.Render(FlowLabel(status.FlowState)))
	if status.Stage != "" {
		b.WriteString("  " + Dim("("+status.Stage+")"))
	}
	b.WriteString("\n")

	if len(status.Checklist) > 0 {
		counts := checklist.Summarize(status.Checklist)
		pct := 0.0
		if counts.Total > 0 {
			pct = float64(counts.Done) / float64(counts.Total)
		}
		b.WriteString(fmt.Sprintf("Documents: %s %s\n",
			RenderProgress(pct, 20),
			Dim(fmt.Sprintf("%d of %d in", counts.Done, counts.Total))))
	}

	return b.String()
}

// FormatChecklist renders the grouped document checklist.
func FormatChecklist(items []domain.ChecklistItem) string {
	if len(items) == 0 {
		return Dim("No documents requested yet.")
	}

	built := checklist.Build(items)
	var b strings.Builder
	prev := checklist.Group(-1)
	for _, item := range built {
		if item.Group != prev {
			if prev != checklist.Group(-1) {
				b.WriteString("\n")
			}
			b.WriteString(Header(groupTitle(item.Group)))
			b.WriteString("\n")
			prev = item.Group
		}
		marker := "  "
		if item.Actionable {
			marker = StyleYellow.Render("▸ ")
		}
		b.WriteString(fmt.Sprintf("%s%-16s %s\n",
			marker, item.DocumentCode, StatusPill(item.Status)))
	}
	return b.String()
}

func groupTitle(g checklist.Group) string {
	if g == checklist.GroupPersonal {
		return "Personal documents"
	}
	return "Tax documents"
}

// FormatFirms renders the firm marketplace as a table.
func FormatFirms(firms []domain.Firm) string {
	if len(firms) == 0 {
		return Dim("No firms available.")
	}

	rows := make([][]string, len(firms))
	for i, f := range firms {
		rows[i] = []string{
			fmt.Sprintf("%d", f.ID),
			f.Name,
			f.DisplayPrice(),
			f.DisplayRating(),
		}
	}
	return RenderTable([]string{"ID", "Firm", "Price", "Rating"}, rows)
}

// FormatExpenses renders saved expense answers as a table with a total.
func FormatExpenses(cats []domain.ExpenseCategory) string {
	if len(cats) == 0 {
		return Dim("No expense categories.")
	}

	rows := make([][]string, 0, len(cats))
	for _, c := range domain.SortCategories(cats) {
		amount := Dim("—")
		if c.Amount != nil {
			amount = fmt.Sprintf("$%.2f", *c.Amount)
		}
		rows = append(rows, []string{c.Label, amount})
	}
	out := RenderTable([]string{"Category", "Amount"}, rows)
	out += "\n" + Bold(fmt.Sprintf("Total: $%.2f", domain.TotalAmount(cats)))
	return out
}
