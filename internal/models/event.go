package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a classified trade from the watched wallet's point of view.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Invert flips BUY to SELL and back. Receiving the reference asset in a swap
// means the wallet sold the other leg, so reference transfers carry the
// inverted membership direction.
func (d Direction) Invert() Direction {
	if d == DirectionBuy {
		return DirectionSell
	}
	return DirectionBuy
}

// NormalizedAmount is one transfer leg after extraction: a human-scaled
// amount string, the SOL value when the leg is the reference asset, and the
// direction relative to the watched wallet.
type NormalizedAmount struct {
	Mint        string
	From        string
	To          string
	Amount      string // human formatted, "not available" when unparseable
	SolAmount   decimal.Decimal
	Direction   Direction
	IsReference bool
}

// AssetMetadata is the cached per-mint enrichment result.
type AssetMetadata struct {
	Mint     string `json:"mint"`
	Symbol   string `json:"symbol"`
	ImageURL string `json:"image_url"`
}

// ClassifiedEvent is the terminal output of the pipeline, handed off once
// per admitted transaction.
type ClassifiedEvent struct {
	Signature  string    `json:"signature"`
	Wallet     string    `json:"wallet"`
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	SolAmount  float64   `json:"sol_amount"`
	AmountText string    `json:"amount_text"`
	Timestamp  time.Time `json:"timestamp"`
}
