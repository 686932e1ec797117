// Package export writes a static HTML snapshot of the dashboard next to the styled
// zone GeoJSON.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"taxidash/internal/charts"
	"taxidash/internal/dashboard"
	"taxidash/internal/format"
	"taxidash/internal/kpi"
	"taxidash/internal/mapview"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/safehtml"
	"github.com/google/safehtml/template"
	"github.com/google/safehtml/uncheckedconversions"
	"github.com/rs/zerolog/log"
)

const (
	// PageFile and MapFile are the names written into the output directory.
	PageFile = "index.html"
	MapFile  = "map.geojson"
)

// Options tune the export.
type Options struct {
	// Mermaid emits chart blocks for client-side rendering; otherwise charts are plain tables.
	Mermaid bool
	// Minify runs the stylesheet and boot script through esbuild.
	Minify bool
}

// Source is what the export reads from the dashboard.
type Source interface {
	Snapshot() (dashboard.View, error)
}

// ChartSource yields the rendered Mermaid text of a slot.
type ChartSource interface {
	Rendered(slot string) (string, bool)
}

type card struct {
	kpi.Card
	Up, Down bool
}

type bar struct {
	Label, Value, Tooltip string
	Width                 safehtml.Style
	Peak, Selected, Muted bool
}

type chart struct {
	Title, Period string
	Mermaid       string
	Bars          []bar
}

type legendRow struct {
	Label  string
	Swatch safehtml.Style
}

type page struct {
	Badge      string
	HourBadge  string
	Cards      []card
	Averages   kpi.AvgStats
	Boroughs   []dashboard.BoroughItem
	Charts     []chart
	Peaks      []bar
	Legend     []legendRow
	MapReady   bool
	Mermaid    bool
	MermaidSrc safehtml.TrustedResourceURL
	CSS        safehtml.StyleSheet
	Boot       safehtml.Script
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>NYC Taxi Trips · {{.Badge}}</title>
<style>{{.CSS}}</style>
</head>
<body>
<header><h1>NYC Taxi Trips</h1><span class="badge">{{.Badge}}</span></header>
<section class="kpis">
{{range .Cards}}<div class="card"><h2>{{.Title}}</h2><div class="value">{{.Value}}</div>{{if .Up}}<div class="change up">{{.Change}}</div>{{else if .Down}}<div class="change down">{{.Change}}</div>{{else}}<div class="change">{{.Change}}</div>{{end}}{{with .Sub}}<div class="sub">{{.}}</div>{{end}}</div>
{{end}}</section>
<section class="side">
<h2>Boroughs</h2>
<ul>{{range .Boroughs}}<li>{{if .Checked}}&#9745;{{else}}&#9744;{{end}} {{.Name}} <span class="count">{{.Count}}</span></li>{{end}}</ul>
<h2>Averages</h2>
<dl><dt>Distance</dt><dd>{{.Averages.Distance}}</dd><dt>Speed</dt><dd>{{.Averages.Speed}}</dd><dt>Duration</dt><dd>{{.Averages.Duration}}</dd></dl>
<h2>Peak Hours</h2>
<ol class="peaks">{{range .Peaks}}<li{{if .Selected}} class="active"{{end}}><span title="{{.Tooltip}}">{{.Label}}</span><span class="bar" style="{{.Width}}"></span><span>{{.Value}}</span></li>{{end}}</ol>
</section>
<section class="charts">
{{range .Charts}}<figure><figcaption>{{.Title}}{{with .Period}} <small>{{.}}</small>{{end}}</figcaption>
{{if $.Mermaid}}<pre class="mermaid">{{.Mermaid}}</pre>{{else}}<table>{{range .Bars}}<tr><th>{{.Label}}</th><td>{{.Value}}</td></tr>{{end}}</table>{{end}}
</figure>
{{end}}</section>
<section class="map">
<h2>Pickups by Zone{{with .HourBadge}} <small>{{.}}</small>{{end}}</h2>
{{if .MapReady}}<p><a href="map.geojson">map.geojson</a></p>{{else}}<p>Map unavailable</p>{{end}}
<ul class="legend">{{range .Legend}}<li><span class="swatch" style="{{.Swatch}}"></span>{{.Label}}</li>{{end}}</ul>
</section>
{{if .Mermaid}}<script src="{{.MermaidSrc}}"></script>
<script>{{.Boot}}</script>{{end}}
</body>
</html>
`

var pageTmpl = template.Must(template.New("page").Parse(pageTemplate))

const stylesheet = `
body { background: #0d0d0d; color: #e8e8e8; font-family: system-ui, sans-serif; margin: 0 2rem; }
header { display: flex; align-items: baseline; gap: 1rem; }
.badge { color: #FFD700; }
.kpis { display: grid; grid-template-columns: repeat(4, 1fr); gap: 1rem; }
.card { background: #1a1a1a; border-radius: 8px; padding: 1rem; }
.card .value { font-size: 1.8rem; }
.change.up { color: #4caf50; }
.change.down { color: #ef5350; }
.peaks li { display: grid; grid-template-columns: 5rem 1fr 4rem; align-items: center; }
.peaks li.active { color: #FFD700; }
.bar { display: inline-block; height: 6px; background: #FFD700; }
.swatch { display: inline-block; width: 12px; height: 12px; margin-right: 6px; }
.legend { list-style: none; padding: 0; }
`

const bootScript = `
document.addEventListener("DOMContentLoaded", function () {
  if (window.mermaid) {
    window.mermaid.initialize({ startOnLoad: false, theme: "dark" });
    window.mermaid.run({ querySelector: "pre.mermaid" });
  }
});
`

// minify runs esbuild over an asset, keeping the original on failure.
func minify(src string, loader api.Loader) string {
	res := api.Transform(src, api.TransformOptions{
		Loader:            loader,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: loader == api.LoaderJS,
	})
	if len(res.Errors) > 0 {
		log.Warn().Str("error", res.Errors[0].Text).Msg("Asset minification failed; using source")
		return src
	}
	return strings.TrimSpace(string(res.Code))
}

func widthStyle(pct int) safehtml.Style {
	return uncheckedconversions.StyleFromStringKnownToSatisfyTypeContract(fmt.Sprintf("width:%d%%;", max(0, min(100, pct))))
}

func swatchStyle(color string) safehtml.Style {
	return uncheckedconversions.StyleFromStringKnownToSatisfyTypeContract("background:" + color + ";")
}

var chartSlots = []string{charts.SlotTrends, charts.SlotBorough, charts.SlotFare, charts.SlotHistogram}

func buildPage(v dashboard.View, rendered ChartSource, opts Options) page {
	css, boot := stylesheet, bootScript
	if opts.Minify {
		css = minify(css, api.LoaderCSS)
		boot = minify(boot, api.LoaderJS)
	}

	p := page{
		Badge:      v.Badge,
		HourBadge:  v.HourBadge,
		Averages:   v.Averages,
		Boroughs:   v.Boroughs,
		MapReady:   v.MapReady,
		Mermaid:    opts.Mermaid,
		MermaidSrc: safehtml.TrustedResourceURLFromConstant("https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"),
		CSS:        uncheckedconversions.StyleSheetFromStringKnownToSatisfyTypeContract(css),
		Boot:       uncheckedconversions.ScriptFromStringKnownToSatisfyTypeContract(boot),
	}

	for _, c := range v.Cards {
		p.Cards = append(p.Cards, card{Card: c, Up: c.Trend == kpi.Up, Down: c.Trend == kpi.Down})
	}

	if spec, ok := v.Charts[charts.SlotPeakHours]; ok {
		p.Peaks = bars(spec)
	}
	for _, slot := range chartSlots {
		spec, ok := v.Charts[slot]
		if !ok {
			continue
		}
		c := chart{Title: spec.Title, Period: spec.Period, Bars: bars(spec)}
		if rendered != nil {
			if src, ok := rendered.Rendered(slot); ok {
				c.Mermaid = unfence(src)
			}
		}
		p.Charts = append(p.Charts, c)
	}

	for _, b := range v.Legend {
		p.Legend = append(p.Legend, legendRow{Label: b.Label, Swatch: swatchStyle(b.Color)})
	}
	return p
}

// unfence strips the markdown code fence; mermaid.js reads the bare diagram.
func unfence(src string) string {
	src = strings.TrimPrefix(src, "```mermaid\n")
	return strings.TrimSuffix(src, "\n```")
}

func bars(spec charts.Spec) []bar {
	out := make([]bar, 0, len(spec.Points))
	for _, pt := range spec.Points {
		out = append(out, bar{
			Label:    pt.Label,
			Value:    format.Thousands(int(pt.Value)),
			Tooltip:  pt.Tooltip,
			Width:    widthStyle(pt.Percent),
			Peak:     pt.Peak,
			Selected: pt.Selected,
			Muted:    pt.Muted,
		})
	}
	return out
}

// Render produces the HTML page for a dashboard view.
func Render(v dashboard.View, rendered ChartSource, opts Options) (safehtml.HTML, error) {
	h, err := pageTmpl.ExecuteToHTML(buildPage(v, rendered, opts))
	if err != nil {
		return safehtml.HTML{}, fmt.Errorf("failed to render page: %w", err)
	}
	return h, nil
}

// Write renders the dashboard into dir and returns the page path.
func Write(dir string, src Source, rendered ChartSource, surface *mapview.GeoJSONSurface, opts Options) (string, error) {
	v, err := src.Snapshot()
	if err != nil {
		return "", fmt.Errorf("dashboard not exportable: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	if surface != nil && v.MapReady {
		doc, err := surface.Render()
		if err != nil {
			return "", fmt.Errorf("failed to render map: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, MapFile), doc, 0644); err != nil {
			return "", fmt.Errorf("failed to write map: %w", err)
		}
	}

	h, err := Render(v, rendered, opts)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, PageFile)
	if err := os.WriteFile(path, []byte(h.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write page: %w", err)
	}

	log.Info().Str("path", path).Msg("Dashboard exported")
	return path, nil
}
