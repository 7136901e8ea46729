package output

import (
	"html/template"
	"io"

	"github.com/dshills/quill/internal/review"
)

// HTMLWriter renders a report as a self-contained document, one section per
// reviewed file. All file names and review text are HTML-escaped by the
// template engine.
type HTMLWriter struct{}

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Quill Code Review</title>
<style>
body { font-family: sans-serif; margin: 2em auto; max-width: 56em; }
h2 { border-bottom: 1px solid #ccc; padding-bottom: 0.2em; }
pre { white-space: pre-wrap; background: #f6f8fa; padding: 1em; border-radius: 4px; }
.failed { color: #9a3b00; }
</style>
</head>
<body>
<h1>Code Review</h1>
{{- range .Sections}}
<section>
<h2>{{.File}}</h2>
<pre>{{.Content}}</pre>
</section>
{{- end}}
{{- if .Failed}}
<section>
<h2 class="failed">Not reviewed</h2>
<ul>
{{- range .Failed}}
<li class="failed">{{.File}}: {{.Err}}</li>
{{- end}}
</ul>
</section>
{{- end}}
</body>
</html>
`))

// Write renders the report.
func (h *HTMLWriter) Write(w io.Writer, report *review.Report) error {
	return htmlTmpl.Execute(w, report)
}
