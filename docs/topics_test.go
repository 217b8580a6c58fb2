package docs

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/etnz/palanca"
	"github.com/etnz/palanca/config"
	"github.com/etnz/palanca/timeseries"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

func TestTopics(t *testing.T) {
	// Every topic listed in readme.md loads, and every .md file is listed.
	file, err := os.Open("readme.md")
	if err != nil {
		t.Fatalf("failed to open readme.md: %v", err)
	}
	defer file.Close()

	var listed []string
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if m := topicRegex.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			listed = append(listed, strings.TrimSpace(m[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning readme.md: %v", err)
	}

	for _, topic := range listed {
		t.Run("load_"+topic, func(t *testing.T) {
			if _, err := GetTopic(topic); err != nil {
				t.Errorf("failed to get topic %q: %v", topic, err)
			}
		})
	}

	all, err := GetAllTopics()
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(listed)
	if !slices.Equal(all, listed) {
		t.Errorf("GetAllTopics() = %v, readme.md lists %v", all, listed)
	}

	star, err := GetTopic("*")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(star, "\n# "); got != len(all)-1 {
		t.Errorf("GetTopic(*) has %d inner titles, want %d", got, len(all)-1)
	}
	if _, err := GetTopic("nope"); err == nil {
		t.Error("GetTopic(nope) succeeded, want error")
	}
}

// HELPER

// fencedBlocks returns the content of the code blocks of lang in a topic.
func fencedBlocks(t *testing.T, topic, lang string) []string {
	t.Helper()
	content, err := GetTopic(topic)
	if err != nil {
		t.Fatal(err)
	}
	source := []byte(content)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var blocks []string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || string(fcb.Language(source)) != lang {
			return ast.WalkContinue, nil
		}
		var b bytes.Buffer
		for i := 0; i < fcb.Lines().Len(); i++ {
			line := fcb.Lines().At(i)
			b.Write(line.Value(source))
		}
		blocks = append(blocks, b.String())
		return ast.WalkContinue, nil
	})
	if len(blocks) == 0 {
		t.Fatalf("topic %q has no %s block", topic, lang)
	}
	return blocks
}

// tableRows returns the body rows of the first table of a topic, each cell
// being the list of its code spans.
func tableRows(t *testing.T, topic string) [][][]string {
	t.Helper()
	content, err := GetTopic(topic)
	if err != nil {
		t.Fatal(err)
	}
	source := []byte(content)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(source))

	var rows [][][]string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		row, ok := n.(*east.TableRow)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		var cells [][]string
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, codeSpans(c, source))
		}
		rows = append(rows, cells)
		return ast.WalkSkipChildren, nil
	})
	return rows
}

// codeSpans returns the text of the code spans below n, or of n itself when
// there is none.
func codeSpans(n ast.Node, source []byte) []string {
	var spans []string
	var all strings.Builder
	ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.CodeSpan:
			var b strings.Builder
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					b.Write(t.Segment.Value(source))
				}
			}
			spans = append(spans, b.String())
		case *ast.Text:
			all.Write(n.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	if len(spans) == 0 {
		return []string{all.String()}
	}
	return spans
}

func TestIdentifierExamples(t *testing.T) {
	r := palanca.NewResolver()
	for _, row := range tableRows(t, "identifiers") {
		scheme, err := palanca.ParseScheme(row[0][0])
		if err != nil {
			t.Fatal(err)
		}
		deterministic := row[2][0] != "from a source"
		for _, ex := range row[1] {
			t.Run(ex, func(t *testing.T) {
				if scheme != palanca.Private {
					id, err := palanca.ParseIdentifier(ex, "")
					if err != nil || id.Scheme != scheme {
						t.Errorf("ParseIdentifier(%q) = %v, %v; want scheme %s", ex, id, err, scheme)
					}
				}
				_, err := r.Resolve(context.Background(), ex, scheme)
				if deterministic && err != nil {
					t.Errorf("Resolve(%q, %s) error = %v, want a key", ex, scheme, err)
				}
				if !deterministic && err == nil {
					t.Errorf("Resolve(%q, %s) succeeded without source", ex, scheme)
				}
			})
		}
	}
}

func TestConfigurationExample(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "secret")
	path := filepath.Join(t.TempDir(), "palanca.yaml")
	if err := os.WriteFile(path, []byte(fencedBlocks(t, "configuration", "yaml")[0]), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load() of the documented example: %v", err)
	}
	def := config.Default()
	if cfg.EODHD.APIKey != "secret" {
		t.Errorf("eodhd.api_key = %q, want it expanded from the environment", cfg.EODHD.APIKey)
	}
	if cfg.Cache != def.Cache || cfg.TradingView != def.TradingView || cfg.Log != def.Log {
		t.Errorf("documented example differs from the defaults: %+v", cfg)
	}
}

func TestStoreExample(t *testing.T) {
	st := timeseries.NewStore[palanca.Key]()
	block := fencedBlocks(t, "store", "json")[0]
	if err := timeseries.Decode(strings.NewReader(block), "store.md", st, palanca.ParseKey); err != nil {
		t.Fatal(err)
	}
	if got := st.Len(palanca.MustKey(palanca.ISIN, "US0378331005")); got != 2 {
		t.Errorf("documented store has %d observations, want 2", got)
	}
}
