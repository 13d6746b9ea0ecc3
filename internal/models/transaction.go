package models

import "encoding/json"

// EnhancedTransaction is a decoded transaction from the Helius
// enhanced-transactions endpoint. Fetched on demand per signature and
// discarded after the processing cycle; never persisted.
type EnhancedTransaction struct {
	Signature       string           `json:"signature"`
	Type            string           `json:"type"` // e.g. "SWAP", "TRANSFER", "UNKNOWN"
	Source          string           `json:"source"`
	Description     string           `json:"description"`
	Timestamp       int64            `json:"timestamp"`
	Fee             int64            `json:"fee"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers"`
	AccountData     []AccountData    `json:"accountData"`
}

// TokenTransfer is a single SPL token movement inside a transaction.
type TokenTransfer struct {
	FromUserAccount string         `json:"fromUserAccount"`
	ToUserAccount   string         `json:"toUserAccount"`
	Mint            string         `json:"mint"`
	TokenAmount     json.Number    `json:"tokenAmount"`
	RawTokenAmount  RawTokenAmount `json:"rawTokenAmount"`
}

// RawTokenAmount carries the unscaled on-chain amount as a string plus the
// mint's decimal precision. The string form is kept as-is so large supplies
// never pass through a float.
type RawTokenAmount struct {
	TokenAmount string `json:"tokenAmount"`
	Decimals    int    `json:"decimals"`
}

// NativeTransfer is a lamport movement between two accounts.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

// AccountData carries per-account balance deltas reported by the
// enrichment API. Kept for auxiliary inspection only.
type AccountData struct {
	Account             string `json:"account"`
	NativeBalanceChange int64  `json:"nativeBalanceChange"`
}
