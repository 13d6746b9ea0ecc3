package classify

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana-wallet-watcher/internal/constants"
	"solana-wallet-watcher/internal/extract"
	"solana-wallet-watcher/internal/models"
)

// Classifier turns the normalized legs of one transaction into a single
// buy/sell decision for the watched wallet.
type Classifier struct {
	minSol decimal.Decimal
	logger *logrus.Logger
}

func NewClassifier(logger *logrus.Logger) *Classifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &Classifier{
		minSol: decimal.NewFromFloat(constants.MinSolAmount),
		logger: logger,
	}
}

// Classify returns the classified event for a swap, or nil when the
// transaction carries no usable trade signal. Non-swap kinds, transactions
// without a reference-asset leg, dust-only amounts, and transactions with
// no nameable non-reference asset are all dropped here.
func (c *Classifier) Classify(tx *models.EnhancedTransaction, legs []models.NormalizedAmount, watched map[string]bool, metadata map[string]models.AssetMetadata) *models.ClassifiedEvent {
	if tx == nil || tx.Type != constants.TxTypeSwap {
		return nil
	}

	var refs []models.NormalizedAmount
	for _, leg := range legs {
		if leg.IsReference {
			refs = append(refs, leg)
		}
	}
	if len(refs) == 0 {
		c.logger.WithField("signature", short(tx.Signature)).Debug("no reference-asset leg, dropping")
		return nil
	}

	// Fee transfers are much smaller than the swap itself, so the largest
	// reference leg decides.
	main := refs[0]
	for _, leg := range refs[1:] {
		if leg.SolAmount.Abs().GreaterThan(main.SolAmount.Abs()) {
			main = leg
		}
	}

	var direction models.Direction
	var amount decimal.Decimal

	switch {
	case watched[main.To]:
		// Wallet received the reference asset: it sold the other leg.
		direction = models.DirectionSell
		amount = main.SolAmount.Abs()
	case watched[main.From]:
		direction = models.DirectionBuy
		amount = main.SolAmount.Abs()
	default:
		// Data-quality fallback: no watched endpoint on the main leg, so
		// derive direction from the net flow across every reference leg.
		var sent, received decimal.Decimal
		for _, leg := range refs {
			amount = amount.Add(leg.SolAmount.Abs())
			if watched[leg.From] {
				sent = sent.Add(leg.SolAmount.Abs())
			}
			if watched[leg.To] {
				received = received.Add(leg.SolAmount.Abs())
			}
		}
		if sent.GreaterThan(received) {
			direction = models.DirectionBuy
		} else {
			direction = models.DirectionSell
		}
	}

	if amount.LessThan(c.minSol) {
		c.logger.WithFields(logrus.Fields{
			"signature": short(tx.Signature),
			"amount":    amount.String(),
		}).Debug("amount below significance threshold, dropping")
		return nil
	}

	symbol := c.primaryAsset(legs, metadata)
	if symbol == "" {
		c.logger.WithField("signature", short(tx.Signature)).Debug("no primary asset, dropping")
		return nil
	}

	ts := time.Now().UTC()
	if tx.Timestamp > 0 {
		ts = time.Unix(tx.Timestamp, 0).UTC()
	}

	solAmount, _ := amount.Float64()
	return &models.ClassifiedEvent{
		Signature:  tx.Signature,
		Wallet:     c.resolveWallet(main, legs, watched),
		Symbol:     symbol,
		Direction:  direction,
		SolAmount:  solAmount,
		AmountText: extract.FormatSolText(amount),
		Timestamp:  ts,
	}
}

// primaryAsset picks the first non-reference asset with a usable symbol.
func (c *Classifier) primaryAsset(legs []models.NormalizedAmount, metadata map[string]models.AssetMetadata) string {
	for _, leg := range legs {
		if leg.IsReference {
			continue
		}
		symbol := strings.TrimSpace(metadata[leg.Mint].Symbol)
		if len(symbol) < 2 {
			continue
		}
		if constants.ReferenceSymbols[strings.ToUpper(symbol)] {
			continue
		}
		if constants.PlaceholderSymbols[strings.ToLower(symbol)] {
			continue
		}
		return symbol
	}
	return ""
}

// resolveWallet prefers the watched endpoint of the main leg, then the
// first watched endpoint on any leg.
func (c *Classifier) resolveWallet(main models.NormalizedAmount, legs []models.NormalizedAmount, watched map[string]bool) string {
	if watched[main.To] {
		return main.To
	}
	if watched[main.From] {
		return main.From
	}
	for _, leg := range legs {
		if watched[leg.From] {
			return leg.From
		}
		if watched[leg.To] {
			return leg.To
		}
	}
	return ""
}

func short(sig string) string {
	if len(sig) > 8 {
		return sig[:8]
	}
	return sig
}
