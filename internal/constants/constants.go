package constants

import "time"

// Reference asset: wrapped SOL. Swaps are priced against it.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// LamportsPerSOL is the native base-unit scale.
const LamportsPerSOL = 1_000_000_000

// Redis keys
const (
	RedisKeyRecentEvents = "events:recent"
	PubSubChannelEvents  = "events:live"
)

// Limits
const (
	MaxRecentEvents = 100
	// MinSolAmount drops dust/fee-only results from classification.
	MinSolAmount = 0.01
)

// Rate limiting and rotation defaults
const (
	DefaultEnrichInterval      = 1100 * time.Millisecond // min gap between calls of one kind
	DefaultRotateInterval      = 10 * time.Minute
	DefaultRotateCallThreshold = 40
)

// Metadata cache defaults
const (
	DefaultMetadataTTL   = 30 * time.Minute
	DefaultMetadataSweep = 5 * time.Minute
)

// Reconnect policy defaults
const (
	DefaultReconnectBackoff    = 2 * time.Second
	DefaultReconnectBackoffCap = 60 * time.Second
	DefaultReconnectMaxRetries = 10
)

// ReferenceSymbols are the native currency and its wrapped/staked variants.
// None of them may ever be the primary asset of a notification.
var ReferenceSymbols = map[string]bool{
	"SOL":     true,
	"WSOL":    true,
	"MSOL":    true,
	"STSOL":   true,
	"JITOSOL": true,
	"JSOL":    true,
	"BSOL":    true,
	"INF":     true,
}

// PlaceholderSymbols are enrichment failure artifacts, never tradeable names.
var PlaceholderSymbols = map[string]bool{
	"unknown":        true,
	"symbol unknown": true,
	"n/a":            true,
	"na":             true,
	"-":              true,
	"?":              true,
	".":              true,
}

// PlaceholderWallets are generic labels an upstream decoder substitutes when
// it cannot resolve the real wallet.
var PlaceholderWallets = map[string]bool{
	"activity detected":   true,
	"generic transaction": true,
	"unknown wallet":      true,
}

// UselessTxTypes never carry a trade signal.
var UselessTxTypes = map[string]bool{
	"ACCOUNT_UPDATE":     true,
	"INITIALIZE_ACCOUNT": true,
	"CLOSE_ACCOUNT":      true,
	"SET_AUTHORITY":      true,
	"SYSTEM":             true,
}

// TxTypeSwap is the only transaction kind the classifier accepts.
const TxTypeSwap = "SWAP"

// SymbolUnknown is the per-entry placeholder substituted on asset batch
// lookup failure.
const SymbolUnknown = "symbol unknown"
