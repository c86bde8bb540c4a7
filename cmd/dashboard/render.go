package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/pesio-ai/be-purchase-approvals/internal/access"
	"github.com/pesio-ai/be-purchase-approvals/internal/feed"
	"github.com/pesio-ai/be-purchase-approvals/internal/session"
	"github.com/pesio-ai/be-purchase-approvals/internal/sla"
	"github.com/pesio-ai/be-purchase-approvals/internal/syncer"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// render prints the approval table and activity timeline for one snapshot.
func render(w io.Writer, sess *session.Session, snap syncer.Snapshot, agentOnly bool) {
	if sess == nil {
		return
	}
	now := time.Now()

	fmt.Fprintf(w, "\n%s  (as of %s)\n\n", bold("Purchase Approvals"), snap.FetchedAt.Format("15:04:05"))

	visible := access.Visible(sess, snap.Approvals)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VENDOR\tAMOUNT\tSTATUS\tSLA (h)\tPENDING (h)\tCONSUMED\tESC\tID")
	for _, a := range visible {
		d := sla.Derive(a, now)
		fmt.Fprintf(tw, "%s\t$%.2f\t%s\t%g\t%.1f\t%s\t%d\t%s\n",
			a.VendorName,
			a.Amount,
			statusTag(d.DisplayStatus),
			a.SLAHours,
			d.ElapsedDisplay,
			consumedTag(d),
			a.EscalationLevel,
			a.ID,
		)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%s\n", bold("Agent Activity"))
	for _, item := range feed.Project(snap.Audit, agentOnly) {
		line := fmt.Sprintf("%s  %s  %s",
			item.Entry.Timestamp.Local().Format("2006-01-02 15:04"),
			item.Entry.Action,
			item.Entry.ApprovalID,
		)
		fmt.Fprintln(w, categoryColor(item.Category)(line))
		if item.Entry.Message != nil {
			fmt.Fprintf(w, "    %s\n", *item.Entry.Message)
		}
	}
}

func statusTag(displayStatus string) string {
	switch displayStatus {
	case sla.DisplayApproved:
		return green(displayStatus)
	case sla.DisplayEscalated, sla.DisplayBreached:
		return red(displayStatus)
	default:
		return yellow(displayStatus)
	}
}

func consumedTag(d sla.Derived) string {
	text := fmt.Sprintf("%d%%", d.ConsumedPercent)
	switch d.Severity {
	case sla.SeverityCritical:
		return red(text)
	case sla.SeverityWarning:
		return yellow(text)
	default:
		return green(text)
	}
}

func categoryColor(c feed.Category) func(...any) string {
	switch c {
	case feed.CategoryReminder:
		return yellow
	case feed.CategoryEscalation:
		return red
	default:
		return blue
	}
}
