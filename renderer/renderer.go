// Package renderer renders command outputs as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
	"time"

	"github.com/etnz/palanca"
	"github.com/etnz/palanca/timeseries"
	"github.com/etnz/palanca/tradingview"
)

//go:embed templates/*.md
var templatesFS embed.FS

var templates = mustSub(templatesFS, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("renderer: %v", err))
	}
	return sub
}

var funcs = template.FuncMap{
	// ts formats an instant, dates only when at midnight UTC.
	"ts": func(t time.Time) string {
		t = t.UTC()
		if t.Equal(t.Truncate(24 * time.Hour)) {
			return t.Format(time.DateOnly)
		}
		return t.Format("2006-01-02 15:04:05Z")
	},
	// cell escapes a value for a table cell.
	"cell": func(v any) string {
		s := fmt.Sprint(v)
		s = strings.ReplaceAll(s, "|", `\|`)
		return strings.ReplaceAll(s, "\n", " ")
	},
}

// Resolution is the outcome of resolving one raw identifier.
type Resolution struct {
	Raw        string
	Key        palanca.Key
	Instrument palanca.Instrument
	Err        error
}

// Series is a window of observations of one instrument.
type Series struct {
	Key          palanca.Key
	Instrument   palanca.Instrument
	Range        string
	Observations []timeseries.Observation
}

// RenderResolutions renders a table of resolved identifiers.
func RenderResolutions(rs []Resolution) string {
	return renderTemplate("resolutions", "resolutions.md", nil, rs)
}

// RenderSeries renders the observations of an instrument.
func RenderSeries(s *Series) string {
	partials := map[string]string{
		"instrument_title": "instrument_title.md",
	}
	return renderTemplate("series", "series.md", partials, s)
}

// RenderQuotes renders the latest prices read from TradingView.
func RenderQuotes(quotes []*tradingview.Response) string {
	return renderTemplate("quotes", "quotes.md", nil, quotes)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
