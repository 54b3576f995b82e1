package market

import "strings"

// Symbols exist in three forms. The exchange reports "BTCUSDT"; internally a
// scan keys everything by the unified "BTC/USDT:USDT"; the UI shows "BTC".
// Funding snapshots come back keyed by the exchange form, so the two
// normalizations below must stay in sync with UnifiedSymbol.

// UnifiedSymbol builds the unified join key from the contract's base and
// quote assets.
func UnifiedSymbol(base, quote string) string {
	return base + "/" + quote + ":" + quote
}

// DisplaySymbol strips the quote-asset decorations from a unified symbol:
// "BTC/USDT:USDT" -> "BTC".
func DisplaySymbol(symbol, quote string) string {
	symbol = strings.TrimSuffix(symbol, ":"+quote)
	return strings.TrimSuffix(symbol, "/"+quote)
}

// RawSymbol converts a unified symbol to the exchange form used by funding
// snapshots and per-symbol endpoints: "BTC/USDT:USDT" -> "BTCUSDT".
func RawSymbol(symbol, quote string) string {
	symbol = strings.ReplaceAll(symbol, "/", "")
	return strings.Replace(symbol, ":"+quote, "", 1)
}
