package workflow

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"docintel/constants"
	"docintel/internal/entity"
)

// Confidence tiers (inclusive lower bounds).
const (
	tierHigh   = 80
	tierMedium = 50
)

const genericDocumentError = "Processing failed."

var reportTmpl = template.Must(template.New("report").Parse(`<div class="results">
{{- range . }}
<section class="document">
<h3 class="document-header">{{ .Filename }} <span class="badge {{ .BadgeClass }}">{{ .Status }}</span></h3>
{{- if .Error }}
<p class="document-error">{{ .Error }}</p>
{{- else if .Empty }}
<p class="document-empty">No fields extracted.</p>
{{- else }}
<table class="fields">
<thead><tr><th>Field Name</th><th>Field Value</th><th>Confidence</th></tr></thead>
<tbody>
{{- range .Rows }}
<tr><td>{{ .Name }}</td><td>{{ .Value }}</td><td>{{ if .Tier }}<span class="confidence {{ .Tier }}">{{ .Confidence }}</span>{{ else }}{{ .Confidence }}{{ end }}</td></tr>
{{- end }}
</tbody>
</table>
{{- end }}
</section>
{{- end }}
</div>
`))

type documentView struct {
	Filename   string
	Status     string
	BadgeClass string
	Error      string
	Empty      bool
	Rows       []fieldRow
}

type fieldRow struct {
	Name       string
	Value      template.HTML
	Confidence string
	Tier       string
}

// RenderReport converts document results into the HTML results fragment. It
// is a pure function of its input: no retries, no I/O, just a faithful
// reflection of the payload.
func RenderReport(results []entity.DocumentResult) (string, error) {
	views := make([]documentView, len(results))
	for i, r := range results {
		views[i] = viewOf(r)
	}
	var b strings.Builder
	if err := reportTmpl.Execute(&b, views); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return b.String(), nil
}

func viewOf(r entity.DocumentResult) documentView {
	v := documentView{
		Filename:   r.Filename,
		Status:     string(r.Status),
		BadgeClass: "badge-" + string(r.Status),
	}
	if r.Status == constants.ResultStatusError {
		v.Error = r.Error
		if strings.TrimSpace(v.Error) == "" {
			v.Error = genericDocumentError
		}
		return v
	}
	if len(r.Fields) == 0 {
		v.Empty = true
		return v
	}
	v.Rows = make([]fieldRow, len(r.Fields))
	for i, f := range r.Fields {
		v.Rows[i] = fieldRow{
			Name:       f.FieldName,
			Value:      valueHTML(f.FieldValue),
			Confidence: confidenceText(f.Confidence),
			Tier:       confidenceTier(f.Confidence),
		}
	}
	return v
}

// valueHTML renders a field value cell: sentinels verbatim but de-emphasized,
// an empty value as a dash, and embedded newlines as visual line breaks.
func valueHTML(value string) template.HTML {
	switch value {
	case "":
		return "—"
	case constants.ValueNotFound, constants.ValueEmpty:
		return template.HTML(`<em class="value-muted">` + template.HTMLEscapeString(value) + `</em>`)
	}
	escaped := template.HTMLEscapeString(value)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return template.HTML(escaped)
}

func confidenceText(c *float64) string {
	if c == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", int(math.Round(*c)))
}

func confidenceTier(c *float64) string {
	switch {
	case c == nil:
		return ""
	case *c >= tierHigh:
		return "confidence-high"
	case *c >= tierMedium:
		return "confidence-medium"
	default:
		return "confidence-low"
	}
}

const pageShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Document Analysis Report</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 56rem; color: #1f2933; }
.document { margin-bottom: 2rem; }
.document-header { border-bottom: 1px solid #d4d9de; padding-bottom: .4rem; }
.badge { font-size: .75rem; padding: .15rem .5rem; border-radius: .6rem; vertical-align: middle; }
.badge-success { background: #e3f6e8; color: #1b7a37; }
.badge-error { background: #fdecea; color: #b3261e; }
.document-error { color: #b3261e; }
.document-empty, .value-muted { color: #6b7280; font-style: italic; }
table.fields { border-collapse: collapse; width: 100%%; }
table.fields th, table.fields td { border: 1px solid #d4d9de; padding: .4rem .6rem; text-align: left; }
.confidence { padding: .1rem .45rem; border-radius: .5rem; font-size: .8rem; }
.confidence-high { background: #e3f6e8; color: #1b7a37; }
.confidence-medium { background: #fff4de; color: #9a6a00; }
.confidence-low { background: #fdecea; color: #b3261e; }
</style>
</head>
<body>
<h1>Document Analysis Report</h1>
%s</body>
</html>
`

// RenderReportPage wraps the results fragment in a standalone HTML page, for
// writing reports to disk or serving them directly.
func RenderReportPage(results []entity.DocumentResult) (string, error) {
	fragment, err := RenderReport(results)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(pageShell, fragment), nil
}
