package market

import "testing"

func TestUnifiedSymbol(t *testing.T) {
	if got := UnifiedSymbol("BTC", "USDT"); got != "BTC/USDT:USDT" {
		t.Fatalf("UnifiedSymbol = %q", got)
	}
}

func TestDisplaySymbol(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BTC/USDT:USDT", "BTC"},
		{"BTC/USDT", "BTC"},
		{"1000PEPE/USDT:USDT", "1000PEPE"},
		{"BTC", "BTC"},
	}
	for _, tc := range cases {
		if got := DisplaySymbol(tc.in, "USDT"); got != tc.want {
			t.Errorf("DisplaySymbol(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRawSymbol(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BTC/USDT:USDT", "BTCUSDT"},
		{"BTC/USDT", "BTCUSDT"},
		{"ETH/USDT:USDT", "ETHUSDT"},
	}
	for _, tc := range cases {
		if got := RawSymbol(tc.in, "USDT"); got != tc.want {
			t.Errorf("RawSymbol(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	// the funding-lookup form of a unified symbol must equal the exchange
	// symbol the unified form was built from
	unified := UnifiedSymbol("SOL", "USDT")
	if got := RawSymbol(unified, "USDT"); got != "SOLUSDT" {
		t.Fatalf("round trip = %q", got)
	}
}
