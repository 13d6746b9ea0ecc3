package extract

import (
	"github.com/sirupsen/logrus"

	"solana-wallet-watcher/internal/constants"
	"solana-wallet-watcher/internal/models"
)

// MembershipDirection applies the base address-membership rule to one
// transfer: receiving-only is a BUY, sending-only a SELL. When both
// endpoints are watched a swap reads as a SELL of the asset leaving the
// wallet. Neither endpoint watched defaults to BUY; that is an inherited
// approximation, not a verified invariant.
func MembershipDirection(watched map[string]bool, from, to, txType string) models.Direction {
	sending := watched[from]
	receiving := watched[to]

	switch {
	case receiving && !sending:
		return models.DirectionBuy
	case sending && !receiving:
		return models.DirectionSell
	case sending && receiving:
		if txType == constants.TxTypeSwap {
			return models.DirectionSell
		}
		return models.DirectionBuy
	default:
		return models.DirectionBuy
	}
}

// Extractor normalizes a decoded transaction into an ordered list of
// transfer legs relative to a watched-address set.
type Extractor struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Extractor{logger: logger}
}

// Extract walks the token transfers first. When none of them touch the
// reference asset it falls back to the raw native (lamport) transfers so a
// swap routed through unwrapped SOL still yields a priced leg.
func (e *Extractor) Extract(tx *models.EnhancedTransaction, watched map[string]bool) []models.NormalizedAmount {
	if tx == nil {
		return nil
	}

	var out []models.NormalizedAmount
	refSeen := false

	for _, tt := range tx.TokenTransfers {
		leg, ok := e.tokenLeg(tx, tt, watched)
		if !ok {
			continue
		}
		if leg.IsReference {
			refSeen = true
		}
		out = append(out, leg)
	}

	if !refSeen {
		for _, nt := range tx.NativeTransfers {
			if nt.Amount == 0 {
				continue
			}
			out = append(out, e.nativeLeg(nt, watched))
		}
	}

	return out
}

func (e *Extractor) tokenLeg(tx *models.EnhancedTransaction, tt models.TokenTransfer, watched map[string]bool) (models.NormalizedAmount, bool) {
	raw := tt.RawTokenAmount.TokenAmount
	decimals := tt.RawTokenAmount.Decimals
	if raw == "" {
		raw = tt.TokenAmount.String()
		decimals = 0
	}
	if raw == "" || raw == "0" {
		return models.NormalizedAmount{}, false
	}

	value, parsed := ParseRawAmount(raw, decimals)
	if parsed && value.IsZero() {
		return models.NormalizedAmount{}, false
	}

	amount := AmountNotAvailable
	if parsed {
		amount = FormatBucketed(value)
	}

	direction := MembershipDirection(watched, tt.FromUserAccount, tt.ToUserAccount, tx.Type)

	leg := models.NormalizedAmount{
		Mint:      tt.Mint,
		From:      tt.FromUserAccount,
		To:        tt.ToUserAccount,
		Amount:    amount,
		Direction: direction,
	}

	if tt.Mint == constants.WrappedSOLMint {
		// Receiving the reference asset means the wallet sold the other
		// leg of the swap, so the membership direction flips.
		leg.IsReference = true
		leg.Direction = direction.Invert()
		if parsed {
			leg.SolAmount = value
			leg.Amount = FormatSolAmount(value)
		}
	}

	return leg, true
}

func (e *Extractor) nativeLeg(nt models.NativeTransfer, watched map[string]bool) models.NormalizedAmount {
	sol := LamportsToSol(nt.Amount)

	// Signed relative to the watched wallet: an outgoing lamport transfer
	// counts negative, anything else positive. Positive means received,
	// which reads as BUY until the classifier weighs the whole swap.
	direction := models.DirectionBuy
	if watched[nt.FromUserAccount] && !watched[nt.ToUserAccount] {
		direction = models.DirectionSell
	}

	return models.NormalizedAmount{
		Mint:        constants.WrappedSOLMint,
		From:        nt.FromUserAccount,
		To:          nt.ToUserAccount,
		Amount:      FormatSolAmount(sol),
		SolAmount:   sol,
		Direction:   direction,
		IsReference: true,
	}
}
