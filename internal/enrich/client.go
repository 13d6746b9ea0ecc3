package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"solana-wallet-watcher/internal/constants"
	"solana-wallet-watcher/internal/metacache"
	"solana-wallet-watcher/internal/models"
	"solana-wallet-watcher/internal/queue"
)

// Rotator supplies the active API key and accounts outbound calls.
type Rotator interface {
	CurrentKey() string
	NoteCall()
}

// Client fetches enhanced transactions and batched asset metadata from
// Helius. Every call is serialized through the rate-limited queue and
// consumes one rotator call-slot.
type Client struct {
	httpClient *http.Client
	apiURL     string
	rpcURL     string
	rotator    Rotator
	queue      *queue.Queue
	cache      *metacache.Cache
	logger     *logrus.Logger
}

type ClientConfig struct {
	APIURL  string // enhanced-transactions base, e.g. https://api.helius.xyz
	RPCURL  string // DAS JSON-RPC base, e.g. https://mainnet.helius-rpc.com
	Timeout time.Duration
	Rotator Rotator
	Queue   *queue.Queue
	Cache   *metacache.Cache
	Logger  *logrus.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiURL:  strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"),
		rpcURL:  strings.TrimRight(strings.TrimSpace(cfg.RPCURL), "/"),
		rotator: cfg.Rotator,
		queue:   cfg.Queue,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}
}

// FetchTransaction returns the decoded transaction for a signature, or nil
// on any transport error, timeout, or empty upstream result. The caller
// degrades instead of failing its stage.
func (c *Client) FetchTransaction(ctx context.Context, signature string) *models.EnhancedTransaction {
	if !validSignature(signature) {
		c.logger.WithField("signature", signature).Debug("skipping malformed signature")
		return nil
	}

	out := <-c.queue.Enqueue(ctx, queue.KindTransaction, func(ctx context.Context) (interface{}, error) {
		return c.fetchTransactionOnce(ctx, signature)
	})
	if !out.OK {
		return nil
	}
	tx, _ := out.Value.(*models.EnhancedTransaction)
	return tx
}

// FetchAssetBatch resolves metadata for the given mints, preserving input
// order and length. Cached entries are served locally; only the uncached
// subset goes upstream, and each upstream miss yields a placeholder entry.
func (c *Client) FetchAssetBatch(ctx context.Context, mints []string) []models.AssetMetadata {
	result := make([]models.AssetMetadata, len(mints))
	if len(mints) == 0 {
		return result
	}

	hits, misses := c.cache.Partition(mints)

	fetched := make(map[string]models.AssetMetadata)
	if len(misses) > 0 {
		out := <-c.queue.Enqueue(ctx, queue.KindAssetBatch, func(ctx context.Context) (interface{}, error) {
			return c.fetchAssetBatchOnce(ctx, misses)
		})
		if out.OK {
			fetched, _ = out.Value.(map[string]models.AssetMetadata)
		}
	}

	for i, mint := range mints {
		if meta, ok := hits[mint]; ok {
			result[i] = meta
			continue
		}
		if meta, ok := fetched[mint]; ok {
			result[i] = meta
			c.cache.Put(mint, meta)
			continue
		}
		result[i] = models.AssetMetadata{Mint: mint, Symbol: constants.SymbolUnknown}
	}
	return result
}

func (c *Client) fetchTransactionOnce(ctx context.Context, signature string) (*models.EnhancedTransaction, error) {
	c.rotator.NoteCall()
	url := fmt.Sprintf("%s/v0/transactions?api-key=%s", c.apiURL, c.rotator.CurrentKey())

	body, err := json.Marshal(transactionsRequest{Transactions: []string{signature}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	raw, err := c.post(ctx, url, body)
	if err != nil {
		return nil, err
	}

	var txs []models.EnhancedTransaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, fmt.Errorf("decode transactions response: %w", err)
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("empty result for signature %s", signature)
	}

	tx := txs[0]
	if tx.Signature == "" {
		tx.Signature = signature
	}
	return &tx, nil
}

func (c *Client) fetchAssetBatchOnce(ctx context.Context, mints []string) (map[string]models.AssetMetadata, error) {
	c.rotator.NoteCall()
	url := fmt.Sprintf("%s/?api-key=%s", c.rpcURL, c.rotator.CurrentKey())

	body, err := json.Marshal(assetBatchRequest{
		JSONRPC: "2.0",
		ID:      "asset-batch",
		Method:  "getAssetBatch",
		Params: assetBatchParams{
			IDs:            mints,
			DisplayOptions: displayOptions{ShowFungible: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	raw, err := c.post(ctx, url, body)
	if err != nil {
		return nil, err
	}

	var resp assetBatchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode asset batch response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getAssetBatch: %w", resp.Error)
	}

	out := make(map[string]models.AssetMetadata, len(resp.Result))
	for _, entry := range resp.Result {
		if entry.ID == "" {
			continue
		}
		symbol := strings.TrimSpace(entry.Content.Metadata.Symbol)
		if symbol == "" {
			continue
		}
		out[entry.ID] = models.AssetMetadata{
			Mint:     entry.ID,
			Symbol:   symbol,
			ImageURL: entry.Content.Links.Image,
		}
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: raw}
	}
	return raw, nil
}

// validSignature checks the base58 shape of a signature before spending a
// queue slot on it.
func validSignature(signature string) bool {
	if signature == "" {
		return false
	}
	decoded, err := base58.Decode(signature)
	if err != nil {
		return false
	}
	return len(decoded) == 64
}
