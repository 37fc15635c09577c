package views

import (
	"context"
	"io"

	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/a-h/templ"
)

// Page is the upload page: the workbook form, the list of target tables,
// and empty regions the dry run and import fragments are swapped into.
func Page(tables []core.TableInfo, maxFileSize int64) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<title>Workbook Migration</title>`)
		w.raw(`<script src="https://unpkg.com/htmx.org@2.0.4" defer></script>`)
		w.raw(`<script src="/static/app.js" defer></script>`)
		w.raw(`<style>` + pageCSS + `</style></head><body><main>`)

		w.raw(`<h1>Workbook Migration</h1>`)
		w.raw(`<p class="muted">Upload the weekly reporting workbook to preview what will be imported.`)
		w.raw(` <a href="/api/migration/template">Download an empty template</a>.</p>`)

		w.raw(`<div id="alerts"></div>`)

		w.raw(`<form id="upload" hx-post="/api/migration/dry-run" hx-encoding="multipart/form-data" hx-target="#preview" hx-swap="innerHTML">`)
		w.raw(`<input type="file" name="file" accept=".xlsx" required>`)
		w.raw(`<button type="submit">Dry run</button>`)
		w.raw(`<span class="muted">`)
		w.textf("Maximum size %s", formatBytes(maxFileSize))
		w.raw(`</span></form>`)

		w.raw(`<section id="preview"></section><section id="progress"></section>`)

		w.raw(`<details><summary>Target tables</summary><ol>`)
		for _, t := range tables {
			w.raw(`<li>`)
			w.text(t.Label)
			w.raw(` <span class="muted">`)
			w.textf("(%s sheet)", t.Group)
			w.raw(`</span></li>`)
		}
		w.raw(`</ol></details>`)

		w.raw(`</main></body></html>`)
		return w.err
	})
}

const pageCSS = `body{font-family:system-ui,sans-serif;margin:0;background:#f7f7f8;color:#1f2328}
main{max-width:960px;margin:2rem auto;padding:0 1rem}
.muted{color:#656d76;font-size:.9em}
form{display:flex;gap:.75rem;align-items:center;margin:1rem 0}
table{border-collapse:collapse;width:100%;margin:1rem 0;background:#fff}
th,td{border:1px solid #d0d7de;padding:.4rem .6rem;text-align:left}
.alert{border:1px solid #cf222e;background:#ffebe9;padding:.75rem;margin:1rem 0}
.warn{color:#9a6700}
progress{width:100%}
.phases li.done{color:#1a7f37}
.phases li.active{font-weight:600}`
