package classify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-watcher/internal/constants"
	"solana-wallet-watcher/internal/models"
)

const (
	walletW = "WaLLetWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWW"
	poolA   = "PooLAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	fooMint = "FooMintAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
)

func watchedSet() map[string]bool {
	return map[string]bool{walletW: true}
}

func fooMetadata() map[string]models.AssetMetadata {
	return map[string]models.AssetMetadata{
		fooMint: {Mint: fooMint, Symbol: "FOO"},
	}
}

func refLeg(from, to string, sol float64) models.NormalizedAmount {
	return models.NormalizedAmount{
		Mint:        constants.WrappedSOLMint,
		From:        from,
		To:          to,
		SolAmount:   decimal.NewFromFloat(sol),
		IsReference: true,
	}
}

func tokenLeg(from, to, mint string) models.NormalizedAmount {
	return models.NormalizedAmount{Mint: mint, From: from, To: to, Amount: "1.50"}
}

func TestClassify_BuyWhenWalletSendsReference(t *testing.T) {
	c := NewClassifier(nil)

	// Wallet W pays 2.0 SOL and receives FOO: a BUY of FOO for 2.0 SOL.
	tx := &models.EnhancedTransaction{Signature: "sig-1", Type: "SWAP", Timestamp: 1_700_000_000}
	legs := []models.NormalizedAmount{
		refLeg(walletW, poolA, 2.0),
		tokenLeg(poolA, walletW, fooMint),
	}

	ev := c.Classify(tx, legs, watchedSet(), fooMetadata())
	require.NotNil(t, ev)
	assert.Equal(t, "sig-1", ev.Signature)
	assert.Equal(t, walletW, ev.Wallet)
	assert.Equal(t, "FOO", ev.Symbol)
	assert.Equal(t, models.DirectionBuy, ev.Direction)
	assert.Equal(t, 2.0, ev.SolAmount)
	assert.Equal(t, "2.000 SOL", ev.AmountText)
	assert.Equal(t, int64(1_700_000_000), ev.Timestamp.Unix())
}

func TestClassify_SellWhenWalletReceivesReference(t *testing.T) {
	c := NewClassifier(nil)

	tx := &models.EnhancedTransaction{Signature: "sig-2", Type: "SWAP"}
	legs := []models.NormalizedAmount{
		refLeg(poolA, walletW, 0.75),
		tokenLeg(walletW, poolA, fooMint),
	}

	ev := c.Classify(tx, legs, watchedSet(), fooMetadata())
	require.NotNil(t, ev)
	assert.Equal(t, models.DirectionSell, ev.Direction)
	assert.Equal(t, 0.75, ev.SolAmount)
}

func TestClassify_RejectsNonSwap(t *testing.T) {
	c := NewClassifier(nil)

	tx := &models.EnhancedTransaction{Signature: "sig-3", Type: "ACCOUNT_UPDATE"}
	legs := []models.NormalizedAmount{
		refLeg(poolA, walletW, 5.0),
		tokenLeg(walletW, poolA, fooMint),
	}

	assert.Nil(t, c.Classify(tx, legs, watchedSet(), fooMetadata()))
}

func TestClassify_RejectsWithoutReferenceLeg(t *testing.T) {
	c := NewClassifier(nil)

	tx := &models.EnhancedTransaction{Signature: "sig-4", Type: "SWAP"}
	legs := []models.NormalizedAmount{tokenLeg(poolA, walletW, fooMint)}

	assert.Nil(t, c.Classify(tx, legs, watchedSet(), fooMetadata()))
}

func TestClassify_MainTransferBeatsFees(t *testing.T) {
	c := NewClassifier(nil)

	// The tiny fee transfer must not decide the direction.
	tx := &models.EnhancedTransaction{Signature: "sig-5", Type: "SWAP"}
	legs := []models.NormalizedAmount{
		refLeg(poolA, "FeeCollector11111111111111111111111111111111", 0.02),
		refLeg(walletW, poolA, 3.5),
		tokenLeg(poolA, walletW, fooMint),
	}

	ev := c.Classify(tx, legs, watchedSet(), fooMetadata())
	require.NotNil(t, ev)
	assert.Equal(t, models.DirectionBuy, ev.Direction)
	assert.Equal(t, 3.5, ev.SolAmount)
}

func TestClassify_NetFlowFallback(t *testing.T) {
	c := NewClassifier(nil)

	// No watched endpoint on the main leg: direction derives from the net
	// flow and the amount sums every reference leg.
	intermediate := "IntermediateXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"
	tx := &models.EnhancedTransaction{Signature: "sig-6", Type: "SWAP"}
	legs := []models.NormalizedAmount{
		refLeg(intermediate, poolA, 4.0),
		refLeg(walletW, intermediate, 1.0),
		tokenLeg(poolA, walletW, fooMint),
	}

	ev := c.Classify(tx, legs, watchedSet(), fooMetadata())
	require.NotNil(t, ev)
	assert.Equal(t, models.DirectionBuy, ev.Direction)
	assert.Equal(t, 5.0, ev.SolAmount)
	assert.Equal(t, walletW, ev.Wallet)
}

func TestClassify_DropsDust(t *testing.T) {
	c := NewClassifier(nil)

	tx := &models.EnhancedTransaction{Signature: "sig-7", Type: "SWAP"}
	legs := []models.NormalizedAmount{
		refLeg(walletW, poolA, 0.001),
		tokenLeg(poolA, walletW, fooMint),
	}

	assert.Nil(t, c.Classify(tx, legs, watchedSet(), fooMetadata()))
}

func TestClassify_PrimaryAssetSkipsReferenceAliases(t *testing.T) {
	c := NewClassifier(nil)

	msolMint := "MSoLMintXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"
	metadata := map[string]models.AssetMetadata{
		msolMint: {Mint: msolMint, Symbol: "mSOL"},
		fooMint:  {Mint: fooMint, Symbol: "FOO"},
	}

	tx := &models.EnhancedTransaction{Signature: "sig-8", Type: "SWAP"}
	legs := []models.NormalizedAmount{
		refLeg(walletW, poolA, 2.0),
		tokenLeg(poolA, walletW, msolMint),
		tokenLeg(poolA, walletW, fooMint),
	}

	ev := c.Classify(tx, legs, watchedSet(), metadata)
	require.NotNil(t, ev)
	assert.Equal(t, "FOO", ev.Symbol)
}

func TestClassify_DropsWhenNoPrimaryAsset(t *testing.T) {
	c := NewClassifier(nil)

	metadata := map[string]models.AssetMetadata{
		fooMint: {Mint: fooMint, Symbol: "X"}, // too short to be real
	}

	tx := &models.EnhancedTransaction{Signature: "sig-9", Type: "SWAP"}
	legs := []models.NormalizedAmount{
		refLeg(walletW, poolA, 2.0),
		tokenLeg(poolA, walletW, fooMint),
	}

	assert.Nil(t, c.Classify(tx, legs, watchedSet(), metadata))
}
