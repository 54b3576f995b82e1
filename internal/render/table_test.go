package render

import (
	"strings"
	"testing"
	"time"

	"oiscan/internal/models"
)

func TestGroupDigits(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"123", "123"},
		{"1234", "1,234"},
		{"5000000", "5,000,000"},
		{"5000000.1234", "5,000,000.1234"},
		{"-1234.5", "-1,234.5"},
		{"0.0001", "0.0001"},
	}
	for _, tc := range cases {
		if got := groupDigits(tc.in); got != tc.want {
			t.Errorf("groupDigits(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRender(t *testing.T) {
	var sb strings.Builder
	r := NewTableRenderer(&sb)

	result := &models.ScanResult{
		ScanID:    "test",
		StartedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Duration:  12 * time.Second,
		Rows: []models.MarketRow{
			{
				Symbol:             "BTC",
				Price:              50000,
				PriceChangePercent: 2.5,
				QuoteVolume:        2000000,
				OpenInterestValue:  5000000,
				OIVolumeRatio:      2.5,
				FundingRate:        0.01,
			},
		},
	}

	if err := r.Render(result); err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := sb.String()
	for _, want := range []string{
		"Symbol", "OI/Vol",
		"BTC", "$50,000.0000", "+2.50%", "$2,000,000", "$5,000,000", "2.500", "+0.0100%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProgressPrinter(t *testing.T) {
	var sb strings.Builder
	p := NewProgressPrinter(&sb)

	p.Update(1, 2)
	p.Update(2, 2)

	out := sb.String()
	if !strings.Contains(out, "1/2") || !strings.Contains(out, "2/2") {
		t.Fatalf("unexpected progress output: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatal("final update should end the line")
	}

	// zero total must not divide by zero
	p.Update(0, 0)
}
