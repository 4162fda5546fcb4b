package report

import (
	"bytes"
	"context"
	"html/template"

	lifecycle "github.com/goliatone/go-lifecycle"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>Period: {{.PeriodStart}} to {{.PeriodEnd}}</p>
<p>{{.ProductsEvaluated}} products evaluated, {{.TotalUnitsSold}} units sold, revenue {{printf "%.2f" .TotalRevenue}}.</p>

<h2>Category performance</h2>
<table>
<tr><th>Category</th><th>Products</th><th>Units</th><th>Revenue</th><th>Avg price</th></tr>
{{range .CategoryStats}}<tr><td>{{.Category}}</td><td>{{.ProductCount}}</td><td>{{.UnitsSold}}</td><td>{{printf "%.2f" .Revenue}}</td><td>{{printf "%.2f" .AveragePrice}}</td></tr>
{{end}}</table>

<h2>Top performers</h2>
<ol>{{range .TopPerformers}}<li>{{.Name}} ({{.UnitsSold}} units)</li>{{end}}</ol>

{{if .SlowMovers}}<h2>Slow moving</h2>
<ul>{{range .SlowMovers}}<li>{{.Name}} ({{.UnitsSold}} units)</li>{{end}}</ul>{{end}}

{{if .RestockAlerts}}<h2>Restock</h2>
<ul>{{range .RestockAlerts}}<li>{{.Name}}: stock {{.Stock}} ({{.Urgency}})</li>{{end}}</ul>{{end}}

{{if .Trends}}<h2>Trends</h2>
<ul>{{range .Trends}}<li>{{.}}</li>{{end}}</ul>{{end}}

{{if .Recommendations}}<h2>Recommendations</h2>
<ul>{{range .Recommendations}}<li>{{.}}</li>{{end}}</ul>{{end}}
</body>
</html>
`))

// RenderReportProcessor renders the aggregated report into an HTML
// document stored on the entity.
type RenderReportProcessor struct {
	deps Deps
}

// NewRenderReportProcessor wires the processor.
func NewRenderReportProcessor(deps Deps) *RenderReportProcessor {
	deps.normalize()
	return &RenderReportProcessor{deps: deps}
}

func (p *RenderReportProcessor) Name() string { return "render_report" }

func (p *RenderReportProcessor) Process(ctx context.Context, e *lifecycle.Entity, _ lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	r, err := DecodeReport(e)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, r); err != nil {
		return nil, nil, lifecycle.NewError(lifecycle.ErrProcessorFailed, "render report template", err, map[string]any{
			"entity_id": e.ID,
		})
	}
	r.HTMLContent = buf.String()
	r.ReportStatus = "rendered"
	if err := lifecycle.Encode(e, r); err != nil {
		return nil, nil, err
	}
	e.SetTime("rendered_at", p.deps.Clock())
	p.deps.Logger.WithContext(ctx).Info("report %s rendered (%d bytes)", e.ID, buf.Len())
	return e, nil, nil
}
