package progress

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// FormatLine renders the single-line live view.
func FormatLine(s Stats) string {
	return fmt.Sprintf("[%5.1f%%] %d/%d files | uploaded %d | unmatched %d | duplicates %d | errors %d | %s/%s | %.1f files/s | ETA %s",
		s.Percent(), s.Processed, s.Total,
		s.Uploaded, s.Unmatched, s.Duplicates, s.Errors,
		humanize.Bytes(uint64(s.BytesProcessed)), humanize.Bytes(uint64(s.TotalBytes)),
		s.FilesPerSecond, formatETA(s.ETA),
	)
}

func formatETA(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

// RenderSummary renders the final statistics table.
func RenderSummary(s Stats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})

	rows := []table.Row{
		{"Files scanned", strconv.Itoa(s.Total)},
		{"Skipped by scanner", strconv.Itoa(s.Skipped)},
		{"Processed", strconv.Itoa(s.Processed)},
		{"Matched", strconv.Itoa(s.Matched)},
		{"Uploaded", strconv.Itoa(s.Uploaded)},
		{"Unmatched", strconv.Itoa(s.Unmatched)},
		{"Duplicates", strconv.Itoa(s.Duplicates)},
		{"Errors", strconv.Itoa(s.Errors)},
		{"Data processed", humanize.Bytes(uint64(s.BytesProcessed))},
		{"Data uploaded", humanize.Bytes(uint64(s.BytesUploaded))},
		{"Elapsed", s.Elapsed.Round(time.Second).String()},
		{"Throughput", fmt.Sprintf("%.1f files/s, %s/s", s.FilesPerSecond, humanize.Bytes(uint64(s.BytesPerSecond)))},
	}
	for _, via := range sortedKeys(s.ByVia) {
		rows = append(rows, table.Row{"Matched via " + via, strconv.Itoa(s.ByVia[via])})
	}
	for _, class := range sortedKeys(s.ErrorsByClass) {
		rows = append(rows, table.Row{"Errors (" + class + ")", strconv.Itoa(s.ErrorsByClass[class])})
	}
	if s.Interrupted {
		rows = append(rows, table.Row{"Status", "interrupted"})
	}
	tw.AppendRows(rows)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	var b strings.Builder
	if s.RunID != "" {
		b.WriteString("Run " + s.RunID + "\n")
	}
	b.WriteString(tw.Render())
	b.WriteByte('\n')
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
