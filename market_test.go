package palanca

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/etnz/palanca/timeseries"
	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestMarket(t *testing.T) *Market {
	t.Helper()
	return NewMarket(NewCache(NewResolver(WithSource(appleDirectory(t)))), nil)
}

func TestMarketAppendAndQuery(t *testing.T) {
	m := newTestMarket(t)
	ctx := context.Background()

	// The same security through three identifiers.
	if _, err := m.Append(ctx, "AAPL", timeseries.At(day("2024-01-02"), decimal.RequireFromString("185.0"), timeseries.Close)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := m.Append(ctx, "US0378331005", timeseries.At(day("2024-01-02"), decimal.RequireFromString("186.5"), timeseries.Close)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	key, seq, err := m.Query(ctx, "037833100", day("2024-01-01"), day("2024-01-03"))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if key != appleISIN {
		t.Errorf("Query() key = %v want %v", key, appleISIN)
	}
	got := slices.Collect(seq)
	if len(got) != 1 || !got[0].Value.Equal(decimal.RequireFromString("186.5")) {
		t.Errorf("Query() = %v want a single observation at 186.5", got)
	}

	// [2024-01-01, 2024-01-02) excludes the observation at 2024-01-02.
	_, seq, err = m.Query(ctx, "AAPL", day("2024-01-01"), day("2024-01-02"))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got := slices.Collect(seq); len(got) != 0 {
		t.Errorf("Query() = %v want nothing", got)
	}
}

func TestMarketErrors(t *testing.T) {
	m := newTestMarket(t)
	ctx := context.Background()
	obs := timeseries.At(day("2024-01-02"), decimal.NewFromInt(1), timeseries.Close)

	if _, err := m.Append(ctx, "US037833100X", obs); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Append(malformed) error = %v want ErrInvalidFormat", err)
	}
	if _, err := m.Append(ctx, "TSLA", obs); !errors.Is(err, ErrUnresolved) {
		t.Errorf("Append(unknown ticker) error = %v want ErrUnresolved", err)
	}
	if got := len(m.Store().Keys()); got != 0 {
		t.Errorf("failed appends created %d series", got)
	}

	_, _, err := m.Query(ctx, "US5949181045", day("2024-01-01"), day("2024-01-03"))
	var uerr *UnknownInstrumentError
	if !errors.As(err, &uerr) || !errors.Is(err, ErrUnknownInstrument) {
		t.Errorf("Query(no series) error = %v want *UnknownInstrumentError", err)
	}
	if _, _, err := m.Latest(ctx, "AAPL"); !errors.Is(err, ErrUnknownInstrument) {
		t.Errorf("Latest(no series) error = %v want ErrUnknownInstrument", err)
	}
}

func TestMarketSaveLoad(t *testing.T) {
	m := newTestMarket(t)
	ctx := context.Background()
	m.Append(ctx, "AAPL",
		timeseries.At(day("2024-01-02"), decimal.RequireFromString("185.64"), timeseries.Close),
		timeseries.At(day("2024-01-03"), decimal.RequireFromString("184.25"), timeseries.Close),
	)
	m.Append(ctx, "EURUSD", timeseries.At(day("2024-01-02"), decimal.RequireFromString("1.0945"), timeseries.Price))

	var sb strings.Builder
	if err := m.Save(&sb); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(sb.String(), `{"key":"FX:EURUSD"`) {
		t.Errorf("Save() output should be sorted by key, got:\n%s", sb.String())
	}

	back := NewMarket(NewCache(NewResolver()), nil)
	if err := back.Load(strings.NewReader(sb.String()), "store.jsonl"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	_, latest, err := back.Latest(ctx, "US0378331005")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if !latest.Value.Equal(decimal.RequireFromString("184.25")) {
		t.Errorf("Latest() = %v want 184.25", latest)
	}
}
