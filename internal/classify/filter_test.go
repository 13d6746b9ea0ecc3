package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"solana-wallet-watcher/internal/models"
)

func event(symbol, wallet string) *models.ClassifiedEvent {
	return &models.ClassifiedEvent{
		Signature: "sig",
		Wallet:    wallet,
		Symbol:    symbol,
		Direction: models.DirectionBuy,
		SolAmount: 1.5,
	}
}

func TestAdmit_ValidSymbol(t *testing.T) {
	assert.True(t, Admit(event("FOO", "wallet-1"), "SWAP"))
	assert.True(t, Admit(event("BONK", "wallet-1"), "SWAP"))
}

func TestAdmit_ValidSymbolShortCircuits(t *testing.T) {
	// A genuine symbol admits even when the wallet label and kind look bad:
	// blacklist false negatives must never suppress a real trade signal.
	assert.True(t, Admit(event("FOO", "activity detected"), "ACCOUNT_UPDATE"))
}

func TestAdmit_RejectsBadSymbols(t *testing.T) {
	cases := map[string]string{
		"blank":           "",
		"single char":     "X",
		"punctuation":     "-",
		"placeholder":     "unknown",
		"batch fallback":  "symbol unknown",
		"reference alias": "SOL",
		"wrapped alias":   "wSOL",
		"staked alias":    "jitoSOL",
	}
	for name, symbol := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, Admit(event(symbol, "wallet-1"), "SWAP"))
		})
	}
}

func TestAdmit_Nil(t *testing.T) {
	assert.False(t, Admit(nil, "SWAP"))
}

func TestAdmit_Idempotent(t *testing.T) {
	candidates := []*models.ClassifiedEvent{
		event("FOO", "wallet-1"),
		event("SOL", "wallet-1"),
		event("", "wallet-1"),
		event("unknown", "activity detected"),
	}
	for _, ev := range candidates {
		first := Admit(ev, "SWAP")
		second := Admit(ev, "SWAP")
		assert.Equal(t, first, second)
	}
}

func TestRejection_NamesTheMatchedBlacklist(t *testing.T) {
	cases := []struct {
		name   string
		ev     *models.ClassifiedEvent
		txType string
		reason string
	}{
		{"nil event", nil, "SWAP", "no event"},
		{"useless kind", event("unknown", "wallet-1"), "ACCOUNT_UPDATE", "signal-free transaction kind"},
		{"placeholder wallet", event("unknown", "Activity Detected"), "SWAP", "placeholder wallet"},
		{"short symbol", event("X", "wallet-1"), "SWAP", "symbol too short"},
		{"placeholder symbol", event("n/a", "wallet-1"), "SWAP", "placeholder symbol"},
		{"reference alias", event("jitoSOL", "wallet-1"), "SWAP", "reference-asset symbol"},
		{"admissible", event("FOO", "wallet-1"), "SWAP", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.reason, Rejection(tc.ev, tc.txType))
		})
	}
}

func TestValidSymbol(t *testing.T) {
	assert.True(t, ValidSymbol("FOO"))
	assert.True(t, ValidSymbol(" BONK "))
	assert.False(t, ValidSymbol("SOL"))
	assert.False(t, ValidSymbol("n/a"))
	assert.False(t, ValidSymbol("?"))
	assert.False(t, ValidSymbol("F"))
}
