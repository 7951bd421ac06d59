package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/mikey/newsletter-funnels/internal/core"
)

const dateLayout = "2006-01-02 15:04"

var (
	bold  = color.New(color.Bold)
	title = color.New(color.Bold, color.Underline)
	faint = color.New(color.Faint)
	hi    = color.New(color.FgHiYellow)
)

// Printer renders catalog and funnel views as tables
type Printer struct {
	Out io.Writer
}

func (p *Printer) newTable(headers ...interface{}) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	for i, h := range headers {
		headers[i] = bold.Sprint(h)
	}
	tbl.AddRow(headers...)
	return tbl
}

// Title prints a section heading with an item count
func (p *Printer) Title(name string, count int, singular, plural string) {
	unit := plural
	if count == 1 {
		unit = singular
	}
	_, _ = fmt.Fprintf(p.Out, "%s %s\n", title.Sprint(name), faint.Sprintf("- %d %s", count, unit))
}

// Note prints a secondary status line
func (p *Printer) Note(format string, args ...interface{}) {
	_, _ = fmt.Fprintln(p.Out, faint.Sprintf(format, args...))
}

// Pool prints candidate items
func (p *Printer) Pool(items []core.Item) {
	p.Title("Pool", len(items), "email", "emails")
	if len(items) == 0 {
		p.Note("  none")
		return
	}

	tbl := p.newTable("ID", "Sent", "Sender", "Subject", "Category")
	for _, item := range items {
		tbl.AddRow(item.ID, item.Timestamp.Format(dateLayout), item.DisplayName(), item.Subject, item.Category)
	}
	_, _ = fmt.Fprintln(p.Out, tbl)
}

// Senders prints the sender listing
func (p *Printer) Senders(senders []core.Sender) {
	p.Title("Senders", len(senders), "sender", "senders")
	tbl := p.newTable("Email", "Name")
	for _, s := range senders {
		tbl.AddRow(s.Email, s.Name)
	}
	_, _ = fmt.Fprintln(p.Out, tbl)
}

// Categories prints the category listing
func (p *Printer) Categories(categories []string) {
	p.Title("Categories", len(categories), "category", "categories")
	for _, c := range categories {
		_, _ = fmt.Fprintf(p.Out, "  %s\n", c)
	}
}

// Funnels prints saved funnels
func (p *Printer) Funnels(funnels []core.Funnel) {
	p.Title("Funnels", len(funnels), "funnel", "funnels")
	if len(funnels) == 0 {
		p.Note("  none")
		return
	}

	tbl := p.newTable("ID", "Name", "Sender", "Emails", "Days", "Avg gap", "Updated")
	for _, f := range funnels {
		tbl.AddRow(f.ID, f.Name, f.SenderEmail, f.TotalEmails,
			optional(f.TotalDurationDays, ""), optional(f.AvgIntervalHours, "h"),
			f.UpdatedAt.Format(dateLayout))
	}
	tbl.RightAlign(3)
	_, _ = fmt.Fprintln(p.Out, tbl)
}

// Details prints the descriptive fields of a funnel being composed
func (p *Printer) Details(name, description, colorHex string) {
	if name == "" {
		name = faint.Sprint("(untitled)")
	}
	_, _ = fmt.Fprintf(p.Out, "%s %s\n", title.Sprint(name), faint.Sprint(colorHex))
	if description != "" {
		_, _ = fmt.Fprintln(p.Out, description)
	}
}

// Timeline prints the ordered selection with day offsets and cadence figures
func (p *Printer) Timeline(state core.ComposerState) {
	p.Title("Timeline", len(state.OrderedItems), "email", "emails")
	if missing := len(state.SelectedIDs) - len(state.OrderedItems); missing > 0 {
		p.Note("  %d selected email(s) no longer in the catalog", missing)
	}
	if len(state.OrderedItems) == 0 {
		p.Note("  drop emails here to start")
		return
	}

	tbl := p.newTable("#", "Day", "Sent", "Subject", "ID")
	for i, item := range state.OrderedItems {
		id := item.ID
		if item.ID == state.ActiveID {
			id = hi.Sprint(id)
		}
		tbl.AddRow(i+1, fmt.Sprintf("Day %d", state.DayOffsets[i]), item.Timestamp.Format(dateLayout), item.Subject, id)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(p.Out, tbl)

	if state.Stats != nil {
		_, _ = fmt.Fprintf(p.Out, "%d emails over %d days, avg gap %dh\n",
			len(state.Stats.OrderedEmails), state.Stats.TotalDurationDays, state.Stats.AverageGapHours)
	}
}

func optional(v *int, suffix string) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v) + suffix
}
