package views

import (
	"context"
	"io"
	"net/url"

	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/a-h/templ"
)

// Preview renders a dry run: per-table counts, warnings and skipped
// sheets, with the button that starts the import.
func Preview(fileName string, resp *core.DryRunResponse) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		p := resp.Preview

		w.raw(`<div class="preview"><h2>`)
		w.textf("Preview of %s", fileName)
		w.raw(`</h2><p>`)
		w.textf("%d records across %d tables, %d warnings.", p.TotalRecords, len(p.Tables), p.TotalWarnings)
		w.raw(`</p>`)

		w.raw(`<table><thead><tr><th>Table</th><th>Records</th><th>Warnings</th></tr></thead><tbody>`)
		for _, t := range p.Tables {
			w.raw(`<tr><td>`)
			w.text(t.Label)
			w.raw(`</td><td>`)
			w.textf("%d", t.RecordCount)
			w.raw(`</td><td>`)
			w.textf("%d", len(t.Warnings))
			w.raw(`</td></tr>`)
		}
		w.raw(`</tbody></table>`)

		if len(p.SkippedSheets) > 0 {
			w.raw(`<p class="muted">Sheets not found: `)
			for i, name := range p.SkippedSheets {
				if i > 0 {
					w.raw(", ")
				}
				w.text(name)
			}
			w.raw(`</p>`)
		}

		if len(p.AllWarnings) > 0 {
			w.raw(`<details><summary class="warn">`)
			w.textf("%d warnings", len(p.AllWarnings))
			w.raw(`</summary><ul>`)
			for _, msg := range p.AllWarnings {
				w.raw(`<li>`)
				w.text(msg)
				w.raw(`</li>`)
			}
			w.raw(`</ul></details>`)
		}

		w.raw(`<button`)
		w.attr("hx-post", "/api/migration/"+url.PathEscape(resp.JobID)+"/import")
		w.attr("hx-target", "#progress")
		w.raw(` hx-swap="innerHTML" hx-disabled-elt="this">Import</button></div>`)
		return w.err
	})
}

// ImportStarted is the progress panel for a running import. The page
// script connects it to the job's event stream through data-job-id.
func ImportStarted(ack *core.ImportAck) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="import"`)
		w.attr("data-job-id", ack.JobID)
		w.attr("data-progress-url", "/api/migration/"+url.PathEscape(ack.JobID)+"/progress")
		w.raw(`><h2>Importing</h2><progress value="0"`)
		w.attr("max", "100")
		w.raw(`></progress><p class="status">Waiting for progress...</p>`)
		w.raw(`<ul class="phases"></ul><div class="report"></div></div>`)
		return w.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="alert" role="alert"><strong>`)
		w.text(message)
		w.raw(`</strong>`)
		if action != "" {
			w.raw(` <span>`)
			w.text(action)
			w.raw(`</span>`)
		}
		w.raw(` <span class="muted">`)
		w.textf("Code: %s", code)
		w.raw(`</span></div>`)
		return w.err
	})
}
