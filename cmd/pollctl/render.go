package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"pulse-lab/domain/poll"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type printer struct {
	w     io.Writer
	plain bool
}

func newPrinter(w io.Writer, plain bool) *printer {
	return &printer{w: w, plain: plain}
}

func (p *printer) styled(style color.Style, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if !p.plain {
		text = style.Render(text)
	}
	fmt.Fprintln(p.w, text)
}

func (p *printer) title(format string, args ...any) {
	p.styled(color.New(color.BgBlack, color.FgGreen, color.OpBold), format, args...)
}

func (p *printer) ok(format string, args ...any) {
	p.styled(color.New(color.FgGreen), format, args...)
}

func (p *printer) warn(format string, args ...any) {
	p.styled(color.New(color.FgYellow), format, args...)
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) raw(s string) {
	fmt.Fprint(p.w, s)
}

func (p *printer) prompt(prompt poll.Prompt) {
	if prompt == nil {
		p.warn("No active prompt")
		return
	}
	p.title("[%s] %s", prompt.Slide(), prompt.Text())
	if mc, ok := prompt.(poll.MultipleChoice); ok {
		for i, option := range mc.Options {
			p.line("  %d. %s", i, option)
		}
		return
	}
	p.line("  (word cloud)")
}

func (p *printer) summary(s poll.Summary) {
	table := p.table()
	total := strconv.FormatUint(s.Total, 10)
	switch s.Kind {
	case poll.KindMultipleChoice:
		table.SetHeader([]string{"#", "Option", "Votes", "Share"})
		for _, o := range s.Options {
			table.Append([]string{strconv.Itoa(o.Index), o.Label, strconv.FormatUint(o.Count, 10), bar(o.Percent)})
		}
		table.SetFooter([]string{"", "Total", total, ""})
	default:
		table.SetHeader([]string{"Word", "Count", "Size"})
		for _, w := range s.Words {
			table.Append([]string{w.Word, strconv.FormatUint(w.Count, 10), strconv.Itoa(w.FontSize)})
		}
		table.SetFooter([]string{"Total", total, ""})
	}
	table.Render()
}

// tally prints raw counters, for slides whose prompt is unknown.
func (p *printer) tally(t poll.Tally) {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := p.table()
	table.SetHeader([]string{"Key", "Count"})
	for _, k := range keys {
		table.Append([]string{k, strconv.FormatUint(t[k], 10)})
	}
	table.SetFooter([]string{"Total", strconv.FormatUint(t.Total(), 10)})
	table.Render()
}

func (p *printer) table() *tablewriter.Table {
	table := tablewriter.NewWriter(p.w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	return table
}

func bar(percent int) string {
	return fmt.Sprintf("%-20s %3d%%", strings.Repeat("#", percent/5), percent)
}
