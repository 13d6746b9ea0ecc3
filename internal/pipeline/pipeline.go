package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"solana-wallet-watcher/internal/classify"
	"solana-wallet-watcher/internal/constants"
	"solana-wallet-watcher/internal/extract"
	"solana-wallet-watcher/internal/models"
	"solana-wallet-watcher/internal/storage"
)

// Enricher fetches decoded transactions and asset metadata.
type Enricher interface {
	FetchTransaction(ctx context.Context, signature string) *models.EnhancedTransaction
	FetchAssetBatch(ctx context.Context, mints []string) []models.AssetMetadata
}

// WatchedFunc returns a snapshot of the watched-address set.
type WatchedFunc func() map[string]bool

// Pipeline runs one pushed signature through enrichment, extraction,
// classification and the admission filter, then fans the admitted event
// out. Every failure mode degrades to skipping the transaction; nothing
// here may take the stream down.
type Pipeline struct {
	enricher   Enricher
	extractor  *extract.Extractor
	classifier *classify.Classifier
	watched    WatchedFunc
	handler    storage.EventHandler
	cache      storage.EventCache
	store      storage.EventStore
	logger     *logrus.Logger
}

type Config struct {
	Enricher Enricher
	Watched  WatchedFunc
	Handler  storage.EventHandler // required: downstream hand-off
	Cache    storage.EventCache   // optional recent-events fanout
	Store    storage.EventStore   // optional analytics sink
	Logger   *logrus.Logger
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Handler == nil {
		return nil, fmt.Errorf("event handler is required")
	}
	if cfg.Enricher == nil {
		return nil, fmt.Errorf("enricher is required")
	}
	if cfg.Watched == nil {
		return nil, fmt.Errorf("watched-address source is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Pipeline{
		enricher:   cfg.Enricher,
		extractor:  extract.New(cfg.Logger),
		classifier: classify.NewClassifier(cfg.Logger),
		watched:    cfg.Watched,
		handler:    cfg.Handler,
		cache:      cfg.Cache,
		store:      cfg.Store,
		logger:     cfg.Logger,
	}, nil
}

// HandleSignature processes one pushed signature end to end.
func (p *Pipeline) HandleSignature(ctx context.Context, signature string) {
	log := p.logger.WithField("signature", short(signature))

	tx := p.enricher.FetchTransaction(ctx, signature)
	if tx == nil {
		log.Debug("enrichment unavailable, skipping transaction")
		return
	}
	if tx.Type != constants.TxTypeSwap {
		log.WithField("type", tx.Type).Debug("not a swap, skipping")
		return
	}

	watched := p.watched()
	legs := p.extractor.Extract(tx, watched)
	if len(legs) == 0 {
		log.Debug("no usable transfers, skipping")
		return
	}

	metadata := p.assetMetadata(ctx, legs)

	ev := p.classifier.Classify(tx, legs, watched, metadata)
	if ev == nil {
		return
	}
	if !classify.Admit(ev, tx.Type) {
		log.WithFields(logrus.Fields{
			"symbol": ev.Symbol,
			"reason": classify.Rejection(ev, tx.Type),
		}).Debug("event rejected by admission filter")
		return
	}

	p.deliver(ctx, ev, log)
}

// assetMetadata resolves symbols for every non-reference mint touched by
// the transaction, preserving leg order.
func (p *Pipeline) assetMetadata(ctx context.Context, legs []models.NormalizedAmount) map[string]models.AssetMetadata {
	var mints []string
	seen := make(map[string]bool)
	for _, leg := range legs {
		if leg.IsReference || seen[leg.Mint] || leg.Mint == "" {
			continue
		}
		seen[leg.Mint] = true
		mints = append(mints, leg.Mint)
	}
	if len(mints) == 0 {
		return nil
	}

	out := make(map[string]models.AssetMetadata, len(mints))
	for _, meta := range p.enricher.FetchAssetBatch(ctx, mints) {
		out[meta.Mint] = meta
	}
	return out
}

func (p *Pipeline) deliver(ctx context.Context, ev *models.ClassifiedEvent, log *logrus.Entry) {
	log.WithFields(logrus.Fields{
		"wallet":    short(ev.Wallet),
		"symbol":    ev.Symbol,
		"direction": ev.Direction,
		"amount":    ev.AmountText,
	}).Info("classified event admitted")

	p.handler(ev)

	if p.cache != nil {
		if err := p.cache.AddRecentEvent(ctx, ev); err != nil {
			log.WithError(err).Warn("recent-events cache write failed")
		}
		if err := p.cache.PublishEvent(ctx, ev); err != nil {
			log.WithError(err).Warn("event publish failed")
		}
	}
	if p.store != nil {
		if err := p.store.InsertEvent(ctx, ev); err != nil {
			log.WithError(err).Warn("event store insert failed")
		}
	}
}

func short(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
