package classify

import (
	"strings"

	"solana-wallet-watcher/internal/constants"
	"solana-wallet-watcher/internal/models"
)

// Admit is the final admission gate before hand-off. It is stateless, so
// the same candidate always yields the same decision.
//
// Admission is decided by the symbol alone: a valid-looking non-reference
// symbol admits, anything else rejects. Enrichment false negatives on the
// blacklist terms must never suppress a genuine trade signal, which is why
// no blacklist can veto a usable symbol. Rejection names the blacklist a
// dropped candidate matched.
func Admit(ev *models.ClassifiedEvent, _ string) bool {
	if ev == nil {
		return false
	}
	return ValidSymbol(ev.Symbol)
}

// Rejection names the first junk trait of a candidate, for drop logging.
// It is only meaningful for events Admit rejected; an event can carry a
// junk trait (say, a placeholder wallet label) and still be admitted on
// the strength of its symbol.
func Rejection(ev *models.ClassifiedEvent, txType string) string {
	if ev == nil {
		return "no event"
	}
	if constants.UselessTxTypes[txType] {
		return "signal-free transaction kind"
	}
	if constants.PlaceholderWallets[strings.ToLower(strings.TrimSpace(ev.Wallet))] {
		return "placeholder wallet"
	}

	symbol := strings.TrimSpace(ev.Symbol)
	switch {
	case len(symbol) < 2:
		return "symbol too short"
	case constants.PlaceholderSymbols[strings.ToLower(symbol)]:
		return "placeholder symbol"
	case constants.ReferenceSymbols[strings.ToUpper(symbol)]:
		return "reference-asset symbol"
	}
	return ""
}

// ValidSymbol reports whether a symbol names a real non-reference asset:
// at least two characters, not a placeholder, not the native currency or
// one of its wrapped/staked aliases.
func ValidSymbol(symbol string) bool {
	symbol = strings.TrimSpace(symbol)
	if len(symbol) < 2 {
		return false
	}
	if constants.PlaceholderSymbols[strings.ToLower(symbol)] {
		return false
	}
	if constants.ReferenceSymbols[strings.ToUpper(symbol)] {
		return false
	}
	return true
}
