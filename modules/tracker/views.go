package tracker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/conntrack/pkg/connection"
	"github.com/dmitrymomot/conntrack/pkg/events"
	"github.com/dmitrymomot/conntrack/pkg/tracking"
)

// StatusView is the data behind the status page.
type StatusView struct {
	Service        string
	Counts         tracking.Counts
	CatalogVersion uint64
	Bus            events.Stats
	Subscribers    int
	Active         []connection.Record
	Now            time.Time
}

const connectionsTableID = "connections"

func statusPage(v StatusView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := templ.EscapeString(v.Service)
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s status</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"></script>
</head>
<body data-signals="{total: %d, active: %d}" data-on-load="@get('/connections/events')">
<h1>%s</h1>
<p>Connections: <span data-text="$total">%d</span> total, <span data-text="$active">%d</span> active</p>
<p>Catalog version %d. Events delivered %d, failed %d, dropped %d, pending %d. Live viewers %d.</p>
`, title, v.Counts.Total, v.Counts.Active, title, v.Counts.Total, v.Counts.Active,
			v.CatalogVersion, v.Bus.Delivered, v.Bus.Failed, v.Bus.Dropped, v.Bus.Pending, v.Subscribers); err != nil {
			return err
		}
		if err := connectionsTable(v.Active, v.Now).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body>\n</html>\n")
		return err
	})
}

func connectionsTable(records []connection.Record, now time.Time) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<table id="%s"><thead><tr><th>ID</th><th>User</th><th>IP</th><th>Country</th><th>Client</th><th>Connected for</th></tr></thead><tbody>`, connectionsTableID)
		if len(records) == 0 {
			b.WriteString(`<tr><td colspan="6">No active connections</td></tr>`)
		}
		for _, rec := range records {
			client := "Unknown device"
			if rec.Client != nil {
				client = rec.Client.ShortIdentifier()
			}
			fmt.Fprintf(&b, `<tr id="conn-%s"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				templ.EscapeString(rec.ID),
				templ.EscapeString(rec.ID),
				templ.EscapeString(rec.Username),
				templ.EscapeString(rec.IP),
				templ.EscapeString(rec.Country),
				templ.EscapeString(client),
				templ.EscapeString(rec.FormattedDuration(now)),
			)
		}
		b.WriteString(`</tbody></table>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
