package renderer

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/etnz/palanca"
	"github.com/etnz/palanca/timeseries"
	"github.com/etnz/palanca/tradingview"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// parseTables returns the cells of every table in a markdown document, header rows included.
func parseTables(t *testing.T, md string) [][][]string {
	t.Helper()
	source := []byte(md)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(source))

	var tables [][][]string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *east.Table:
			tables = append(tables, nil)
		case *east.TableHeader, *east.TableRow:
			var row []string
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				row = append(row, cellText(c, source))
			}
			tables[len(tables)-1] = append(tables[len(tables)-1], row)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return tables
}

// cellText concatenates the text segments below n.
func cellText(n ast.Node, source []byte) string {
	var b strings.Builder
	ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// headings returns the level 1 headings of a markdown document.
func headings(md string) []string {
	source := []byte(md)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))
	var titles []string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering && h.Level == 1 {
			titles = append(titles, cellText(h, source))
		}
		return ast.WalkContinue, nil
	})
	return titles
}

var apple = palanca.Instrument{
	Key:      palanca.MustKey(palanca.ISIN, "US0378331005"),
	Name:     "Apple Inc",
	Symbol:   "AAPL",
	Exchange: "US",
	Currency: "USD",
}

func TestRenderResolutions(t *testing.T) {
	md := RenderResolutions([]Resolution{
		{Raw: "AAPL", Key: apple.Key, Instrument: apple},
		{Raw: "EURUSD", Key: palanca.MustKey(palanca.CurrencyPair, "EURUSD")},
		{Raw: "TSLA", Err: errors.New("no mapping for TICKER:TSLA")},
	})
	tables := parseTables(t, md)
	if len(tables) != 1 {
		t.Fatalf("RenderResolutions() has %d tables want 1:\n%s", len(tables), md)
	}
	want := [][]string{
		{"Identifier", "Key", "Name", "Exchange", "Currency"},
		{"AAPL", "ISIN:US0378331005", "Apple Inc", "US", "USD"},
		{"EURUSD", "FX:EURUSD", "", "", ""},
		{"TSLA", "no mapping for TICKER:TSLA", "", "", ""},
	}
	if diff := cmp.Diff(want, tables[0]); diff != "" {
		t.Errorf("RenderResolutions() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderSeries(t *testing.T) {
	s := &Series{
		Key:        apple.Key,
		Instrument: apple,
		Range:      "[2024-01-01, 2024-01-04)",
		Observations: []timeseries.Observation{
			timeseries.At(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("185.64"), timeseries.Close),
			timeseries.At(time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC), decimal.RequireFromString("184.25"), timeseries.Price),
		},
	}
	md := RenderSeries(s)
	if got, want := headings(md), []string{"ISIN:US0378331005 Apple Inc"}; !cmp.Equal(got, want) {
		t.Errorf("RenderSeries() headings = %q want %q", got, want)
	}
	tables := parseTables(t, md)
	want := [][]string{
		{"Time", "Kind", "Value"},
		{"2024-01-02", "close", "185.64"},
		{"2024-01-03 15:30:00Z", "price", "184.25"},
	}
	if len(tables) != 1 {
		t.Fatalf("RenderSeries() has %d tables want 1:\n%s", len(tables), md)
	}
	if diff := cmp.Diff(want, tables[0]); diff != "" {
		t.Errorf("RenderSeries() mismatch (-want +got):\n%s", diff)
	}

	s.Observations = nil
	md = RenderSeries(s)
	if len(parseTables(t, md)) != 0 || !strings.Contains(md, "No observation in [2024-01-01, 2024-01-04).") {
		t.Errorf("RenderSeries(empty) =\n%s", md)
	}
}

func TestRenderQuotes(t *testing.T) {
	c := tradingview.Candle{
		Time:   time.Date(2025, 8, 9, 1, 59, 0, 0, time.UTC),
		Open:   decimal.RequireFromString("330"),
		High:   decimal.RequireFromString("330"),
		Low:    decimal.RequireFromString("329.98"),
		Close:  decimal.RequireFromString("329.99"),
		Volume: decimal.RequireFromString("257"),
	}
	md := RenderQuotes([]*tradingview.Response{{Symbol: "TSLA", Exchange: "NASDAQ", Candles: []tradingview.Candle{c}}})
	tables := parseTables(t, md)
	if len(tables) != 1 || len(tables[0]) != 2 {
		t.Fatalf("RenderQuotes() =\n%s", md)
	}
	want := []string{"TSLA", "NASDAQ", "2025-08-09 01:59:00Z", "330", "330", "329.98", "329.99", "257"}
	if diff := cmp.Diff(want, tables[0][1]); diff != "" {
		t.Errorf("RenderQuotes() mismatch (-want +got):\n%s", diff)
	}
}

func TestCellEscapesPipes(t *testing.T) {
	md := RenderResolutions([]Resolution{{Raw: "A|B", Err: errors.New("bad\nformat")}})
	tables := parseTables(t, md)
	if len(tables) != 1 || len(tables[0]) != 2 || len(tables[0][1]) != 5 {
		t.Fatalf("RenderResolutions() =\n%s", md)
	}
}

func TestMustSub(t *testing.T) {
	names, err := fs.Glob(templates, "*.md")
	if err != nil || len(names) == 0 {
		t.Fatalf("embedded templates = %v, %v; want markdown files", names, err)
	}
	defer func() {
		if recover() == nil {
			t.Error("mustSub(../outside) did not panic")
		}
	}()
	mustSub(templatesFS, "../outside")
}
