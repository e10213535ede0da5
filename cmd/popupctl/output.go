package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"popupforge/internal/popup"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printMessageTable(out io.Writer, list []*popup.Message) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tAUDIENCE\tFREQUENCY\tIMPRESSIONS\tTITLE")
	for _, m := range list {
		title := m.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			m.ID, m.Status, m.Priority, m.Audience, m.Frequency, m.Counters.Impressions, title)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d messages\n", len(list))
}

func printMessage(w io.Writer, m *popup.Message) {
	fmt.Fprintf(w, "ID:          %s\n", m.ID)
	fmt.Fprintf(w, "Title:       %s\n", m.Title)
	fmt.Fprintf(w, "Kind:        %s\n", m.Kind)
	fmt.Fprintf(w, "Status:      %s\n", m.Status)
	fmt.Fprintf(w, "Priority:    %s\n", m.Priority)
	fmt.Fprintf(w, "Audience:    %s\n", m.Audience)
	fmt.Fprintf(w, "Frequency:   %s\n", m.Frequency)
	fmt.Fprintf(w, "Starts:      %s\n", m.Window.StartAt.Format("2006-01-02 15:04:05"))
	if m.Window.EndAt != nil {
		fmt.Fprintf(w, "Ends:        %s\n", m.Window.EndAt.Format("2006-01-02 15:04:05"))
	}
	if len(m.Pages) > 0 {
		fmt.Fprintf(w, "Pages:       %s\n", strings.Join(m.Pages, ", "))
	}
	if len(m.Roles) > 0 {
		fmt.Fprintf(w, "Roles:       %s\n", strings.Join(m.Roles, ", "))
	}
	if m.MaxDisplayCount != nil {
		fmt.Fprintf(w, "Max Shows:   %d\n", *m.MaxDisplayCount)
	}
	if m.MinAccountAgeDays != nil {
		fmt.Fprintf(w, "Min Age:     %d days\n", *m.MinAccountAgeDays)
	}
	if m.CreatedBy != "" {
		fmt.Fprintf(w, "Created By:  %s\n", m.CreatedBy)
	}
	fmt.Fprintf(w, "Created At:  %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printSummary(w io.Writer, s *popup.Summary) {
	fmt.Fprintf(w, "Message:      %s\n", s.MessageID)
	fmt.Fprintf(w, "Impressions:  %d\n", s.Impressions)
	fmt.Fprintf(w, "Clicks:       %d (%.1f%%)\n", s.Clicks, s.ClickRate*100)
	fmt.Fprintf(w, "Conversions:  %d (%.1f%% of clicks)\n", s.Conversions, s.ConversionRate*100)
	fmt.Fprintf(w, "Dismissals:   %d\n", s.Dismissals)
	if !s.Consistent {
		fmt.Fprintf(w, "WARNING: %d display events recorded for %d impressions\n", s.TotalDisplayEvents, s.Impressions)
	}
}
