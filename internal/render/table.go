package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"oiscan/internal/models"
)

// TableRenderer writes a scan result as a plain-text table, formatted the way
// the hosted UI presents it.
type TableRenderer struct {
	w io.Writer
}

// NewTableRenderer writes tables to w.
func NewTableRenderer(w io.Writer) *TableRenderer {
	return &TableRenderer{w: w}
}

// Render prints the header line and one row per market, ordered as assembled.
func (r *TableRenderer) Render(result *models.ScanResult) error {
	fmt.Fprintf(r.w, "Snapshot %s | scanned contracts: %d | duration: %s\n\n",
		result.StartedAt.Local().Format("15:04:05"),
		len(result.Rows),
		result.Duration.Round(10e6),
	)

	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Symbol\tPrice\tChg%\tVol 24h\tOI (Hold)\tOI/Vol\tFunding\t")

	for _, row := range result.Rows {
		fmt.Fprintf(tw, "%s\t$%s\t%+.2f%%\t$%s\t$%s\t%.3f\t%+.4f%%\t\n",
			row.Symbol,
			groupDigits(fmt.Sprintf("%.4f", row.Price)),
			row.PriceChangePercent,
			groupDigits(fmt.Sprintf("%.0f", row.QuoteVolume)),
			groupDigits(fmt.Sprintf("%.0f", row.OpenInterestValue)),
			row.OIVolumeRatio,
			row.FundingRate,
		)
	}

	return tw.Flush()
}

// groupDigits inserts thousands separators into the integer part of a
// formatted number: "5000000.1234" -> "5,000,000.1234".
func groupDigits(s string) string {
	intPart := s
	rest := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, rest = s[:i], s[i:]
	}

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}

	n := len(intPart)
	if n <= 3 {
		return sign + intPart + rest
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := n % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	b.WriteString(rest)
	return b.String()
}
